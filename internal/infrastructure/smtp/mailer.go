package smtp

import (
	"fmt"
	"net/smtp"

	"github.com/GioMjds/savoury-api/internal/config"
)

// Mailer sends one-time passcodes by email.
type Mailer interface {
	SendOTPEmail(to, code string) error
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

func (m *mailer) SendOTPEmail(to, code string) error {
	subject := "Savoury OTP Verification"
	body := fmt.Sprintf(
		"Welcome to Savoury!\r\n"+
			"\r\n"+
			"Your verification code is: %s\r\n"+
			"\r\n"+
			"This code expires in 5 minutes. Enter it in the verification screen to complete your registration.\r\n"+
			"\r\n"+
			"Never share this code with anyone. Savoury will never ask for your verification code.\r\n"+
			"\r\n"+
			"If you did not request this code, please ignore this email.\r\n",
		code,
	)
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s", m.from, to, subject, body)
	addr := fmt.Sprintf("%s:%s", m.host, m.port)

	var auth smtp.Auth
	if m.username != "" {
		auth = smtp.PlainAuth("", m.username, m.password, m.host)
	}

	return smtp.SendMail(addr, auth, m.from, []string{to}, []byte(msg))
}
