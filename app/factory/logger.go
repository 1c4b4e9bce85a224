package factory

import (
	"fmt"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// ConfigureLogging sets the process-wide level and JSON output. An empty level means info.
func ConfigureLogging(level string) error {
	level = strings.TrimSpace(level)
	if level == "" {
		level = "info"
	}
	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid LOG_LEVEL %q: %w", level, err)
	}
	logrus.SetLevel(parsed)
	logrus.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339Nano})
	return nil
}

func NewModuleLogger(module string) logrus.FieldLogger {
	return logrus.WithField("module", module)
}

func LoggerWithContext(logger logrus.FieldLogger, ctx echo.Context) logrus.FieldLogger {
	return logger.WithField("request_id", ctx.Request().Header.Get("X-Request-ID"))
}

// LoggerForPayer scopes a logger to one payer and, when set, one session.
func LoggerForPayer(logger logrus.FieldLogger, payerID, sessionID string) logrus.FieldLogger {
	fields := logrus.Fields{"payer_id": payerID}
	if sessionID != "" {
		fields["session_id"] = sessionID
	}
	return logger.WithFields(fields)
}
