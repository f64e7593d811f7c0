package smtp

import (
	"fmt"
	"net/smtp"

	"github.com/whisperly-api/internal/config"
)

// Mailer sends emails. The auth service only needs "send a one-time code to
// an address", so the interface stays a single generic send.
type Mailer interface {
	SendEmail(to, subject, body string) error
}

type mailer struct {
	host     string
	port     string
	from     string
	username string
	password string
}

func NewMailer(cfg *config.Config) Mailer {
	return &mailer{
		host:     cfg.SMTPHost,
		port:     cfg.SMTPPort,
		from:     cfg.SMTPFrom,
		username: cfg.SMTPUsername,
		password: cfg.SMTPPassword,
	}
}

func (m *mailer) SendEmail(to, subject, body string) error {
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s", m.from, to, subject, body)
	addr := fmt.Sprintf("%s:%s", m.host, m.port)

	var auth smtp.Auth
	if m.username != "" {
		auth = smtp.PlainAuth("", m.username, m.password, m.host)
	}

	return smtp.SendMail(addr, auth, m.from, []string{to}, []byte(msg))
}

// OTPSubject and OTPBody render the verification mail.
func OTPSubject() string { return "Whisperly OTP - Unlock Your Secrets" }

func OTPBody(code string) string {
	return fmt.Sprintf("Your Whisperly verification code is %s.\r\n\r\nThis code self-destructs in 5 minutes. If you didn't request it, ignore this mail and keep your secrets safe.", code)
}

// ResetSubject and ResetBody render the password-reset mail.
func ResetSubject() string { return "Whisperly Password Reset" }

func ResetBody(code string) string {
	return fmt.Sprintf("Your Whisperly password reset code is %s.\r\n\r\nThis code expires in 5 minutes. If you didn't request a reset, you can ignore this mail.", code)
}
