// Package mailer sends transactional email over SMTP.
package mailer

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"time"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

// Purpose selects the wording of a one-time code email.
type Purpose int

const (
	PurposeSignup Purpose = iota
	PurposePasswordReset
)

type Config struct {
	Host         string
	Port         int
	Username     string
	Password     string
	From         string
	AppName      string
	SupportEmail string
	CodeTTL      time.Duration
}

type sender interface {
	DialAndSend(m ...*gomail.Message) error
}

type Mailer struct {
	cfg    Config
	sender sender
	log    *zap.Logger
	tpl    *template.Template
	now    func() time.Time
}

func New(cfg Config, log *zap.Logger) *Mailer {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.CodeTTL <= 0 {
		cfg.CodeTTL = 10 * time.Minute
	}
	m := &Mailer{
		cfg: cfg,
		log: log,
		tpl: template.Must(template.New("otp").Parse(otpHTMLTemplate)),
		now: time.Now,
	}
	if cfg.Host != "" {
		m.sender = gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	}
	return m
}

type otpData struct {
	AppName      string
	Heading      string
	Intro        string
	Code         string
	Minutes      int
	Ignore       string
	SupportEmail string
	Year         int
}

// SendOTP mails a one-time code. Without an SMTP host the code is only logged.
func (m *Mailer) SendOTP(ctx context.Context, to, code string, purpose Purpose) error {
	subject := fmt.Sprintf("Your %s OTP Code", m.cfg.AppName)
	body, err := m.renderOTP(code, purpose)
	if err != nil {
		return err
	}

	if m.sender == nil {
		m.log.Warn("smtp not configured, otp mail not sent", zap.String("to", to))
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.cfg.From)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", body)

	if err := m.sender.DialAndSend(msg); err != nil {
		return fmt.Errorf("send otp mail: %w", err)
	}
	m.log.Info("otp mail sent", zap.String("to", to))
	return nil
}

func (m *Mailer) renderOTP(code string, purpose Purpose) (string, error) {
	data := otpData{
		AppName:      m.cfg.AppName,
		Code:         code,
		Minutes:      int(m.cfg.CodeTTL / time.Minute),
		SupportEmail: m.cfg.SupportEmail,
		Year:         m.now().Year(),
	}
	switch purpose {
	case PurposePasswordReset:
		data.Heading = "Reset Your Password"
		data.Intro = fmt.Sprintf("We received a request to reset your %s password. Please use the OTP below to continue.", m.cfg.AppName)
		data.Ignore = "If you didn't request a password reset, you can safely ignore this email."
	default:
		data.Heading = "Verify Your Email"
		data.Intro = fmt.Sprintf("Thank you for signing up with %s. Please use the OTP below to verify your email address.", m.cfg.AppName)
		data.Ignore = fmt.Sprintf("If you didn't create a %s account, you can safely ignore this email.", m.cfg.AppName)
	}

	var buf bytes.Buffer
	if err := m.tpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render otp mail: %w", err)
	}
	return buf.String(), nil
}

const otpHTMLTemplate = `<div style="max-width:440px;margin:0 auto;border-radius:8px;overflow:hidden;border:1px solid #ddd;">
  <div style="background:#222;padding:18px 0;text-align:center;">
    <span style="font-size:1.6rem;font-weight:bold;color:#fff;font-family:sans-serif;">{{.AppName}}</span>
  </div>
  <div style="background:#fff;padding:32px 24px 24px;">
    <h2 style="font-family:sans-serif;color:#222;margin-top:0;">{{.Heading}}</h2>
    <p style="font-family:sans-serif;font-size:1rem;color:#444;">Hello,<br>{{.Intro}}</p>
    <div style="margin:28px 0;text-align:center;">
      <span style="display:inline-block;padding:16px 32px;font-size:1.8rem;letter-spacing:10px;background:#f3f3f3;color:#222;font-weight:bold;border-radius:8px;border:1px solid #e5e7eb;">{{.Code}}</span>
    </div>
    <p style="font-family:sans-serif;font-size:0.97rem;color:#555;">This code will expire in {{.Minutes}} minutes.</p>
    <p style="font-family:sans-serif;font-size:0.97rem;color:#999;margin-top:24px;">{{.Ignore}}</p>
  </div>
  <div style="background:#fafafa;font-size:0.93rem;text-align:center;color:#777;padding:18px;">
    &copy; {{.Year}} {{.AppName}}. All rights reserved.<br>
    Need help? Contact us at <a href="mailto:{{.SupportEmail}}" style="color:#666;text-decoration:underline;">{{.SupportEmail}}</a>
  </div>
</div>`
