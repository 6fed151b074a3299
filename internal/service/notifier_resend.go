package service

import (
	"context"
	"errors"
	"strings"

	"github.com/resend/resend-go/v2"
)

type ResendNotifier struct {
	client *resend.Client
	from   string
}

func NewResendNotifier(apiKey string, from string) (*ResendNotifier, error) {
	if strings.TrimSpace(apiKey) == "" || strings.TrimSpace(from) == "" {
		return nil, errors.New("resend notifier requires an api key and a from address")
	}
	return &ResendNotifier{client: resend.NewClient(apiKey), from: from}, nil
}

func (n *ResendNotifier) Send(ctx context.Context, to string, subject string, htmlBody string) error {
	_, err := n.client.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    n.from,
		To:      []string{to},
		Subject: subject,
		Html:    htmlBody,
	})
	return err
}
