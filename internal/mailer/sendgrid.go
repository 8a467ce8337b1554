package mailer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// sendgridClient — часть *sendgrid.Client, используемая отправителем.
type sendgridClient interface {
	SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error)
}

// SendGridSender — Dispatcher, отправляющий письма через SendGrid.
type SendGridSender struct {
	client   sendgridClient
	fromName string
	fromAddr string
	logger   *slog.Logger
}

// NewSendGridSender создаёт отправителя с API-ключом SendGrid.
func NewSendGridSender(apiKey, fromAddr, fromName string, logger *slog.Logger) (*SendGridSender, error) {
	if apiKey == "" {
		return nil, ErrNotConfigured
	}
	return newSendGridSender(sendgrid.NewSendClient(apiKey), fromAddr, fromName, logger), nil
}

func newSendGridSender(client sendgridClient, fromAddr, fromName string, logger *slog.Logger) *SendGridSender {
	return &SendGridSender{
		client:   client,
		fromName: fromName,
		fromAddr: fromAddr,
		logger:   logger.With(slog.String("component", "sendgrid_sender")),
	}
}

// Send рендерит письмо и отправляет его через SendGrid.
func (s *SendGridSender) Send(ctx context.Context, msg *Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}

	html, err := RenderHTML(ctx, msg)
	if err != nil {
		return err
	}

	message := mail.NewSingleEmail(
		mail.NewEmail(s.fromName, s.fromAddr),
		Subject(msg),
		mail.NewEmail(msg.RecipientName, msg.To),
		PlainText(msg),
		html,
	)

	resp, err := s.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("sendgrid: %w", err)
	}

	if resp.StatusCode >= 400 {
		s.logger.Error("SendGrid отклонил письмо",
			slog.Int("status", resp.StatusCode),
			slog.String("body", resp.Body),
		)
		return &DispatchError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("sendgrid вернул статус %d", resp.StatusCode),
		}
	}

	s.logger.Info("Письмо отправлено через SendGrid",
		slog.Int("status", resp.StatusCode),
		slog.String("user_type", string(msg.UserType)),
	)
	return nil
}
