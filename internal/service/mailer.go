package service

import (
	"context"
	"fmt"

	"github.com/resend/resend-go/v2"
	"go.uber.org/zap"
)

// Mail is a single outbound message.
type Mail struct {
	From    string
	To      []string
	Subject string
	HTML    string
}

// Mailer delivers outbound email. Delivery failures propagate as generic
// errors; there is no retry at this layer.
type Mailer interface {
	SendMail(ctx context.Context, mail Mail) error
}

// ResendMailer delivers through the Resend API.
type ResendMailer struct {
	client *resend.Client
}

// NewResendMailer creates a Resend-backed mailer.
func NewResendMailer(apiKey string) *ResendMailer {
	return &ResendMailer{client: resend.NewClient(apiKey)}
}

// SendMail sends the message through Resend.
func (m *ResendMailer) SendMail(ctx context.Context, mail Mail) error {
	_, err := m.client.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    mail.From,
		To:      mail.To,
		Subject: mail.Subject,
		Html:    mail.HTML,
	})
	if err != nil {
		return fmt.Errorf("failed to send mail: %w", err)
	}
	return nil
}

// DevMailer logs messages instead of delivering them.
type DevMailer struct {
	logger *zap.Logger
}

// NewDevMailer creates a logging mailer for non-production environments.
func NewDevMailer(logger *zap.Logger) *DevMailer {
	return &DevMailer{logger: logger}
}

// SendMail logs the message.
func (m *DevMailer) SendMail(_ context.Context, mail Mail) error {
	m.logger.Info("Outbound mail",
		zap.String("from", mail.From),
		zap.Strings("to", mail.To),
		zap.String("subject", mail.Subject),
		zap.String("html", mail.HTML),
	)
	return nil
}
