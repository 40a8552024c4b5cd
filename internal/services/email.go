package services

import (
	"fmt"
	"html"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"

	"psychicline-backend/internal/models"
)

type EmailService struct {
	dialer      *gomail.Dialer
	from        string
	frontendURL string
	devMode     bool
	log         *zap.Logger
}

func NewEmailService(host string, port int, user, pass, from, frontendURL string, log *zap.Logger) *EmailService {
	devMode := host == "" || user == ""
	if devMode {
		log.Warn("email service running in dev mode, messages are logged instead of sent")
	}
	return &EmailService{
		dialer:      gomail.NewDialer(host, port, user, pass),
		from:        from,
		frontendURL: frontendURL,
		devMode:     devMode,
		log:         log,
	}
}

func (s *EmailService) SendMessageReply(p models.MessageReplyPayload) error {
	subject := "Re: " + p.Subject
	body := fmt.Sprintf(`<div style="font-family: Arial, sans-serif; padding: 20px; color: #333;">
  <p>Hi %s,</p>
  <p style="white-space: pre-wrap;">%s</p>
  <p style="color: #888; font-size: 12px;">You are receiving this because you contacted us at %s.</p>
</div>`, html.EscapeString(p.Name), html.EscapeString(p.Body), html.EscapeString(s.frontendURL))

	return s.sendHTML(p.To, subject, body)
}

func (s *EmailService) SendPayoutReceipt(p models.PayoutReceiptPayload) error {
	subject := "Payout sent: $" + p.Amount.String()
	body := fmt.Sprintf(`<div style="font-family: Arial, sans-serif; padding: 20px; color: #333;">
  <h2>Payout sent</h2>
  <p>Hi %s, a payout of <strong>$%s</strong> has been sent to you.</p>
  <p>Payment reference: <code>%s</code></p>
</div>`, html.EscapeString(p.PsychicName), p.Amount.String(), html.EscapeString(p.PaymentID))

	return s.sendHTML(p.To, subject, body)
}

func (s *EmailService) SendRequestAccepted(p models.RequestAcceptedPayload) error {
	link := fmt.Sprintf("%s/chat-requests/%s", s.frontendURL, p.RequestID)
	subject := p.PsychicName + " accepted your chat request"
	body := fmt.Sprintf(`<div style="font-family: Arial, sans-serif; padding: 20px; color: #333;">
  <p>Hi %s,</p>
  <p>%s is ready to chat. Start your paid session before the request expires.</p>
  <a href="%s" style="background-color: #6d28d9; color: white; padding: 10px 20px; text-decoration: none; border-radius: 5px; display: inline-block;">Start session</a>
</div>`, html.EscapeString(p.UserName), html.EscapeString(p.PsychicName), link)

	return s.sendHTML(p.To, subject, body)
}

func (s *EmailService) sendHTML(to, subject, htmlBody string) error {
	if s.devMode {
		s.log.Info("dev email", zap.String("to", to), zap.String("subject", subject), zap.String("body", htmlBody))
		return nil
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", htmlBody)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", to, err)
	}

	s.log.Info("email sent", zap.String("to", to), zap.String("subject", subject))
	return nil
}
