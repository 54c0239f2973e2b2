package notification

import (
	"fmt"
	"net/smtp"

	"github.com/rs/zerolog/log"

	"github.com/opla/zoauth/applications"
	"github.com/opla/zoauth/internal/config"
)

var _ Dispatcher = (*SMTPDispatcher)(nil)

// SMTPDispatcher sends notifications through the SMTP account configured for
// the server.
type SMTPDispatcher struct {
	config config.Config
}

func NewSMTPDispatcher(cfg config.Config) *SMTPDispatcher {
	return &SMTPDispatcher{config: cfg}
}

func (d *SMTPDispatcher) SendUserCreated(email, username string, policy applications.ValidationPolicy, activationToken string) bool {
	body := fmt.Sprintf("Welcome %s, your account has been created.", username)
	switch policy {
	case applications.ValidationMail:
		body = fmt.Sprintf(
			"Welcome %s, please validate your email address:\r\n%s/users/validate?access_token=%s",
			username, d.config.GetBaseURL(), activationToken)
	case applications.ValidationAdmin:
		body = fmt.Sprintf(
			"Welcome %s, your account is waiting for an administrator's validation.", username)
	}
	return d.send(email, "Your account", body)
}

func (d *SMTPDispatcher) SendResetPassword(email, resetToken string) bool {
	body := fmt.Sprintf(
		"A password reset was requested for your account:\r\n%s/users/password?access_token=%s",
		d.config.GetBaseURL(), resetToken)
	return d.send(email, "Password reset", body)
}

func (d *SMTPDispatcher) SendChangedPassword(email string) bool {
	return d.send(email, "Password changed", "Your password has been changed.")
}

func (d *SMTPDispatcher) SendAccountEnable(email, username string) bool {
	body := fmt.Sprintf("Hello %s, your account is now enabled.", username)
	return d.send(email, "Account enabled", body)
}

func (d *SMTPDispatcher) send(to, subject, body string) bool {
	if to == "" {
		return false
	}
	sender := d.config.GetSmtpSender()
	addr := d.config.GetSmtpHost() + ":" + d.config.GetSmtpPort()
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s\r\n", sender, to, subject, body)

	var auth smtp.Auth
	if d.config.GetSmtpAccount() != "" {
		auth = smtp.PlainAuth("", d.config.GetSmtpAccount(), d.config.GetSmtpPassword(), d.config.GetSmtpHost())
	}
	if err := smtp.SendMail(addr, auth, sender, []string{to}, []byte(msg)); err != nil {
		log.Err(err).Str("to", to).Str("subject", subject).Msg("Failed to send notification")
		return false
	}
	return true
}
