package service

import (
	"context"
	"fmt"

	"hiringhall-backend/internal/config"
	"hiringhall-backend/internal/logger"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

type sendGridNotifier struct {
	client *sendgrid.Client
	cfg    config.SendGridConfig
}

// NewSendGridNotifier mails unusual-condition notices to the hall admin.
// Falls back to a log-only notifier when no API key is configured, so
// development deployments work without SendGrid credentials.
func NewSendGridNotifier(cfg config.SendGridConfig) Notifier {
	if cfg.APIKey == "" || cfg.AdminEmail == "" {
		logger.Warn("sendgrid not configured, admin notifications will only be logged")
		return &logNotifier{}
	}
	return &sendGridNotifier{
		client: sendgrid.NewSendClient(cfg.APIKey),
		cfg:    cfg,
	}
}

func (n *sendGridNotifier) NotifyAdmin(ctx context.Context, subject, message string) error {
	from := mail.NewEmail(n.cfg.FromName, n.cfg.FromEmail)
	to := mail.NewEmail("", n.cfg.AdminEmail)
	email := mail.NewSingleEmail(from, subject, to, message, "")

	resp, err := n.client.SendWithContext(ctx, email)
	if err != nil {
		return fmt.Errorf("failed to send admin notification: %w", err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("sendgrid rejected notification: status %d: %s", resp.StatusCode, resp.Body)
	}
	logger.Debug("admin notification sent", "subject", subject)
	return nil
}

// logNotifier satisfies Notifier by writing to the log only.
type logNotifier struct{}

func (n *logNotifier) NotifyAdmin(_ context.Context, subject, message string) error {
	logger.Info("admin notification", "subject", subject, "message", message)
	return nil
}
