package mailer

import (
	"context"
	"fmt"
	"time"

	"github.com/study-assistant/internal/config"
	"github.com/wneessen/go-mail"
)

const otpSubject = "AI Study Assistant - Email Verification"

// otpBodyTemplate renders the verification mail. Only the code varies.
const otpBodyTemplate = `<html>
<body style="background:#f4f6fb;font-family:Arial;padding:30px">
<div style="max-width:520px;background:white;padding:30px;border-radius:14px">
	<h2 style="color:#4f46e5">AI Study Assistant</h2>
	<p>Your OTP for account verification is:</p>
	<div style="background:#eef2ff;font-size:32px;font-weight:bold;text-align:center;padding:18px;border-radius:12px;letter-spacing:6px;margin:20px 0;">%s</div>
	<p>This OTP is valid for %d minutes.</p>
</div>
</body>
</html>`

// Mailer delivers one-time codes over SMTPS. Sends are synchronous and
// bounded by the configured timeout so a stuck relay cannot hang a request.
type Mailer struct {
	cfg        config.SMTPConfig
	ttlMinutes int
}

// New creates a Mailer from SMTP configuration.
func New(cfg config.SMTPConfig, otpTTL time.Duration) *Mailer {
	return &Mailer{
		cfg:        cfg,
		ttlMinutes: int(otpTTL.Minutes()),
	}
}

// SendOTP delivers the verification code to the destination address. Any
// relay failure (auth, network, timeout) is returned to the caller so it
// can be reported distinctly from a code mismatch.
func (m *Mailer) SendOTP(ctx context.Context, to, code string) error {
	msg := mail.NewMsg()
	if err := msg.From(m.cfg.From); err != nil {
		return fmt.Errorf("invalid sender address: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("invalid recipient address: %w", err)
	}
	msg.Subject(otpSubject)
	msg.SetBodyString(mail.TypeTextHTML, fmt.Sprintf(otpBodyTemplate, code, m.ttlMinutes))

	client, err := mail.NewClient(m.cfg.Host,
		mail.WithPort(m.cfg.Port),
		mail.WithSSL(),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(m.cfg.Username),
		mail.WithPassword(m.cfg.Password),
		mail.WithTimeout(time.Duration(m.cfg.TimeoutSeconds)*time.Second),
	)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send otp mail: %w", err)
	}
	return nil
}
