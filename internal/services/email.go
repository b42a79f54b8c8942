package services

import (
	"fmt"
	"html"
	"log"
	"net/smtp"
	"strings"

	"sitepulse/internal/config"
	"sitepulse/internal/domain"
)

const mimeBoundary = "----=_SitePulse_Part_0001"

// EmailService sends admin notifications over SMTP
type EmailService struct {
	cfg  *config.EmailConfig
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewEmailService creates a new email service
func NewEmailService(cfg *config.EmailConfig) *EmailService {
	return &EmailService{cfg: cfg, send: smtp.SendMail}
}

// IsEnabled returns whether email service is enabled
func (s *EmailService) IsEnabled() bool {
	return s.cfg.Enabled
}

// NotifyNewContact emails the admin about a new contact submission. With
// email disabled the submission is only logged.
func (s *EmailService) NotifyNewContact(c *domain.Contact) error {
	if !s.cfg.Enabled {
		log.Printf("[EMAIL] New contact from %s (%s), notification disabled", c.Name, c.Email)
		return nil
	}

	subject := fmt.Sprintf("New contact form submission from %s", c.Name)
	rows := contactRows(c)

	var text strings.Builder
	text.WriteString("New contact form submission\n\n")
	for _, r := range rows {
		fmt.Fprintf(&text, "%s: %s\n", r[0], r[1])
	}
	fmt.Fprintf(&text, "\nMessage:\n%s\n\nContact ID: %s\n", c.Message, c.ID)

	var body strings.Builder
	body.WriteString(`<!DOCTYPE html><html lang="en"><head><meta charset="UTF-8"><title>New contact</title></head>`)
	body.WriteString(`<body style="font-family: -apple-system, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #334155;">`)
	body.WriteString(`<div style="max-width: 600px; margin: 0 auto; padding: 20px;">`)
	body.WriteString(`<h2 style="color: #1C5D99;">New contact form submission</h2>`)
	body.WriteString(`<div style="background: #F8FAFC; padding: 20px; border-radius: 8px;">`)
	for _, r := range rows {
		fmt.Fprintf(&body, "<p><strong>%s:</strong> %s</p>", r[0], html.EscapeString(r[1]))
	}
	body.WriteString(`</div><div style="padding: 20px; border-left: 4px solid #1C5D99; margin: 20px 0;">`)
	fmt.Fprintf(&body, `<h3 style="margin-top: 0;">Message</h3><p style="white-space: pre-wrap;">%s</p>`, html.EscapeString(c.Message))
	fmt.Fprintf(&body, `</div><p style="color: #64748B; font-size: 14px;">Contact ID: %s</p></div></body></html>`, c.ID)

	if err := s.SendHTMLEmail(s.cfg.AdminEmail, subject, body.String(), text.String()); err != nil {
		return err
	}
	log.Printf("[EMAIL] Contact notification sent: id=%s", c.ID)
	return nil
}

func contactRows(c *domain.Contact) [][2]string {
	orUnset := func(p *string) string {
		if p == nil || *p == "" {
			return "Not provided"
		}
		return *p
	}
	return [][2]string{
		{"Name", c.Name},
		{"Email", c.Email},
		{"Phone", orUnset(c.Phone)},
		{"Company", orUnset(c.Company)},
		{"Project type", orUnset(c.ProjectType)},
		{"Budget", orUnset(c.Budget)},
		{"Timeline", orUnset(c.Timeline)},
		{"Submitted", c.CreatedAt.Format("January 2, 2006 at 3:04 PM MST")},
	}
}

// SendHTMLEmail sends an HTML email with plain text fallback
func (s *EmailService) SendHTMLEmail(to, subject, htmlBody, textBody string) error {
	if !s.cfg.Enabled {
		log.Printf("[EMAIL] Would send to %s: %s", to, subject)
		return nil
	}
	if s.cfg.SMTPHost == "" || s.cfg.Username == "" || s.cfg.Password == "" {
		return fmt.Errorf("email service not properly configured")
	}

	from := s.cfg.FromEmail
	if s.cfg.FromName != "" {
		from = fmt.Sprintf("%s <%s>", s.cfg.FromName, s.cfg.FromEmail)
	}

	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\nTo: %s\r\nSubject: %s\r\n", from, to, subject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&msg, "Content-Type: multipart/alternative; boundary=\"%s\"\r\n\r\n", mimeBoundary)
	writePart(&msg, "text/plain", textBody)
	if htmlBody != "" {
		writePart(&msg, "text/html", htmlBody)
	}
	fmt.Fprintf(&msg, "--%s--\r\n", mimeBoundary)

	auth := smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.SMTPHost)
	addr := fmt.Sprintf("%s:%d", s.cfg.SMTPHost, s.cfg.SMTPPort)
	if err := s.send(addr, auth, s.cfg.FromEmail, []string{to}, []byte(msg.String())); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

func writePart(msg *strings.Builder, contentType, body string) {
	fmt.Fprintf(msg, "--%s\r\n", mimeBoundary)
	fmt.Fprintf(msg, "Content-Type: %s; charset=UTF-8\r\n\r\n", contentType)
	msg.WriteString(body)
	msg.WriteString("\r\n")
}
