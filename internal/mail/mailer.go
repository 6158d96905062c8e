// Package mail formats and sends schedule reminder mail through the
// internal relay.
package mail

import (
	"fmt"
	"html"
	"mime"
	"net/mail"
	"net/smtp"
	"strings"

	"go.uber.org/zap"

	"github.com/t77yq/uni-helper/internal/config"
	"github.com/t77yq/uni-helper/internal/model"
	"github.com/t77yq/uni-helper/internal/portal"
)

// Mailer sends reminder mail over the internal SMTP relay. The relay
// accepts unauthenticated mail from the office network.
type Mailer struct {
	cfg       config.SMTPConfig
	portalURL string
	logger    *zap.Logger
}

func NewMailer(cfg config.SMTPConfig, portalURL string, logger *zap.Logger) *Mailer {
	return &Mailer{
		cfg:       cfg,
		portalURL: portalURL,
		logger:    logger.Named("mail"),
	}
}

// SendReminder mails the one-hour reminder for a schedule.
func (m *Mailer) SendReminder(to string, s model.Schedule) error {
	subject := fmt.Sprintf(`[일정 알림] "%s" 일정이 1시간 후 예정되어 있습니다`, s.Title)
	msg := buildMessage(m.cfg.From, to, subject, reminderBody(s, m.portalURL))

	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	if err := smtp.SendMail(addr, nil, envelopeFrom(m.cfg.From), []string{to}, msg); err != nil {
		return fmt.Errorf("failed to send mail via %s: %w", addr, err)
	}

	m.logger.Info("Reminder mail sent",
		zap.String("to", to),
		zap.String("schedule_id", s.ID))
	return nil
}

// envelopeFrom extracts the bare address for the SMTP envelope from a
// display-name From header.
func envelopeFrom(from string) string {
	if parsed, err := mail.ParseAddress(from); err == nil {
		return parsed.Address
	}
	return from
}

func buildMessage(from, to, subject, htmlBody string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", subject))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=utf-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(htmlBody)
	return []byte(b.String())
}

func reminderBody(s model.Schedule, portalURL string) string {
	var b strings.Builder
	b.WriteString(`<div style="font-family: 'Malgun Gothic', sans-serif; line-height: 1.6;">`)
	b.WriteString(`<h2 style="color: #2c3e50;">일정 알림</h2>`)
	fmt.Fprintf(&b, `<p><strong>%s</strong> 일정이 1시간 후 예정되어 있습니다.</p>`,
		html.EscapeString(s.Title))
	fmt.Fprintf(&b, `<p>예정 일시: %s %s</p>`, s.Date, s.Time)
	if s.Description != "" {
		fmt.Fprintf(&b, `<p>내용: %s</p>`, html.EscapeString(s.Description))
	}
	if s.TicketID != "" {
		title := s.TicketTitle
		if title == "" {
			title = s.TicketID
		}
		fmt.Fprintf(&b, `<p>관련 요청: <a href="%s">%s</a></p>`,
			portal.TicketURL(portalURL, s.TicketID), html.EscapeString(title))
	}
	b.WriteString(`</div>`)
	return b.String()
}
