package services

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/resend/resend-go/v2"

	"github.com/HammerMeetNail/birthdaysurprise/internal/config"
	"github.com/HammerMeetNail/birthdaysurprise/internal/logging"
	"github.com/HammerMeetNail/birthdaysurprise/internal/models"
)

// resendEmails is the part of resend.Client.Emails we call.
type resendEmails interface {
	SendWithContext(ctx context.Context, params *resend.SendEmailRequest) (*resend.SendEmailResponse, error)
}

var newResendEmails = func(apiKey string) resendEmails {
	return resend.NewClient(apiKey).Emails
}

// EmailService forwards letter replies to the surprise's sender address.
type EmailService struct {
	provider    string
	fromAddress string
	fromName    string
	emails      resendEmails
	logger      *logging.Logger
}

func NewEmailService(cfg *config.EmailConfig, logger *logging.Logger) *EmailService {
	if logger == nil {
		logger = logging.Default
	}
	svc := &EmailService{
		provider:    cfg.Provider,
		fromAddress: cfg.FromAddress,
		fromName:    cfg.FromName,
		logger:      logger,
	}
	if cfg.Provider == "resend" {
		svc.emails = newResendEmails(cfg.ResendAPIKey)
	}
	return svc
}

func (s *EmailService) NotifyMessage(ctx context.Context, cfg models.SurpriseConfig, msg *models.Message) error {
	if !models.IsValidEmail(cfg.SenderEmail) {
		return fmt.Errorf("no valid sender email to notify")
	}
	subject, htmlBody, text := buildMessageEmail(cfg, msg)
	return s.send(ctx, cfg.SenderEmail, subject, htmlBody, text)
}

func (s *EmailService) send(ctx context.Context, to, subject, htmlBody, text string) error {
	switch s.provider {
	case "resend":
		from := s.fromAddress
		if s.fromName != "" {
			from = fmt.Sprintf("%s <%s>", s.fromName, s.fromAddress)
		}
		_, err := s.emails.SendWithContext(ctx, &resend.SendEmailRequest{
			From:    from,
			To:      []string{to},
			Subject: subject,
			Html:    htmlBody,
			Text:    text,
		})
		if err != nil {
			return fmt.Errorf("sending email via resend: %w", err)
		}
		return nil
	default:
		s.logger.Info("Email (console provider)", map[string]interface{}{
			"to":      to,
			"subject": subject,
			"body":    text,
		})
		return nil
	}
}

func buildMessageEmail(cfg models.SurpriseConfig, msg *models.Message) (string, string, string) {
	subject := sanitizeSubject(fmt.Sprintf("%s wrote back: a letter from %s", cfg.RecipientName, msg.Sender))
	when := msg.CreatedAt.UTC().Format("Jan 2, 2006 15:04 MST")
	paragraphs := strings.ReplaceAll(templateEscape(msg.Content), "\n", "<br>")

	htmlBody := fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
</head>
<body style="font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; max-width: 640px; margin: 0 auto; padding: 24px;">
  <h1 style="color: #d6336c; font-size: 24px;">A letter for you</h1>
  <p style="color: #666; margin-top: 0;">From <strong>%s</strong> on %s</p>
  <div style="font-size: 16px; line-height: 1.5; background: #fff5f8; border-radius: 8px; padding: 16px;">%s</div>
  <hr style="border: none; border-top: 1px solid #eee; margin: 30px 0;">
  <p style="color: #999; font-size: 12px;">Sent from the birthday surprise for %s</p>
</body>
</html>`,
		templateEscape(msg.Sender),
		templateEscape(when),
		paragraphs,
		templateEscape(cfg.RecipientName),
	)

	text := fmt.Sprintf(`A letter for you
From %s on %s

%s

--
Sent from the birthday surprise for %s`,
		msg.Sender,
		when,
		msg.Content,
		cfg.RecipientName,
	)

	return subject, htmlBody, text
}

func templateEscape(value string) string {
	return html.EscapeString(value)
}

func sanitizeSubject(subject string) string {
	cleaned := strings.ReplaceAll(subject, "\n", " ")
	cleaned = strings.ReplaceAll(cleaned, "\r", " ")
	cleaned = strings.TrimSpace(cleaned)
	if len(cleaned) > 120 {
		cleaned = cleaned[:117] + "..."
	}
	return cleaned
}
