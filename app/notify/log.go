package notify

import (
	"context"

	"github.com/sirupsen/logrus"
	"github.com/vibast-solutions/ms-go-entitlements/app/entity"
)

// LogNotifier writes user notices to the service log.
type LogNotifier struct {
	logger logrus.FieldLogger
}

func NewLogNotifier(logger logrus.FieldLogger) *LogNotifier {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(_ context.Context, notice entity.Notice) error {
	n.logger.WithFields(logrus.Fields{
		"kind":       notice.Kind,
		"payer_id":   notice.PayerID,
		"plan":       notice.PlanDisplayName,
		"expires_at": notice.ExpiresAt,
	}).Info(notice.Message)
	return nil
}
