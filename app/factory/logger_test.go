package factory

import (
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

func TestNewModuleLogger(t *testing.T) {
	logger := NewModuleLogger("entitlements-controller")
	entry, ok := logger.(*logrus.Entry)
	if !ok {
		t.Fatalf("expected *logrus.Entry, got %T", logger)
	}
	if entry.Data["module"] != "entitlements-controller" {
		t.Fatalf("expected module field, got %+v", entry.Data)
	}
}

func TestLoggerWithContext(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("X-Request-ID", "rest-test-123")
	rec := httptest.NewRecorder()
	ctx := e.NewContext(req, rec)

	logger := LoggerWithContext(logrus.NewEntry(logrus.StandardLogger()), ctx)
	entry, ok := logger.(*logrus.Entry)
	if !ok {
		t.Fatalf("expected *logrus.Entry, got %T", logger)
	}
	if entry.Data["request_id"] != "rest-test-123" {
		t.Fatalf("expected request_id field, got %+v", entry.Data)
	}
}

func TestLoggerForPayer(t *testing.T) {
	base := logrus.NewEntry(logrus.StandardLogger())

	entry := LoggerForPayer(base, "asha@example.com", "").(*logrus.Entry)
	if entry.Data["payer_id"] != "asha@example.com" {
		t.Fatalf("expected payer_id field, got %+v", entry.Data)
	}
	if _, ok := entry.Data["session_id"]; ok {
		t.Fatalf("expected no session_id field, got %+v", entry.Data)
	}

	entry = LoggerForPayer(base, "asha@example.com", "s-1").(*logrus.Entry)
	if entry.Data["session_id"] != "s-1" {
		t.Fatalf("expected session_id field, got %+v", entry.Data)
	}
}

func TestConfigureLogging(t *testing.T) {
	previous := logrus.GetLevel()
	t.Cleanup(func() { logrus.SetLevel(previous) })

	if err := ConfigureLogging("debug"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if logrus.GetLevel() != logrus.DebugLevel {
		t.Fatalf("expected debug level, got %s", logrus.GetLevel())
	}
	if err := ConfigureLogging(""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if logrus.GetLevel() != logrus.InfoLevel {
		t.Fatalf("expected info level, got %s", logrus.GetLevel())
	}
	if err := ConfigureLogging("loud"); err == nil {
		t.Fatal("expected error for unknown level")
	}
}
