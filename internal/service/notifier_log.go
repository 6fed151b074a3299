package service

import (
	"context"

	"github.com/sirupsen/logrus"
)

// LogNotifier writes messages to the log instead of sending them. Development only.
type LogNotifier struct {
	logger logrus.FieldLogger
}

func NewLogNotifier(logger logrus.FieldLogger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Send(ctx context.Context, to string, subject string, htmlBody string) error {
	n.logger.WithFields(logrus.Fields{
		"to":      to,
		"subject": subject,
		"body":    htmlBody,
	}).Info("email not sent (log notifier)")
	return nil
}
