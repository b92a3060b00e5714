package mailer

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog"
	"gopkg.in/gomail.v2"
)

// Sender delivers transactional mail. The auth service depends on this
// interface so tests can substitute a fake.
type Sender interface {
	SendActivation(to, name, code string) error
}

// Mailer sends mail over SMTP.
type Mailer struct {
	config *mailerConfig
	dialer *gomail.Dialer
	logger zerolog.Logger
}

var _ Sender = (*Mailer)(nil)

// New creates a Mailer from the SMTP_* environment variables.
func New(logger zerolog.Logger) (*Mailer, error) {
	cfg, err := newMailerConfig()
	if err != nil {
		return nil, err
	}

	return &Mailer{
		config: cfg,
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		logger: logger,
	}, nil
}

// SendActivation mails the activation code to a pending registrant.
func (m *Mailer) SendActivation(to, name, code string) error {
	var body bytes.Buffer
	if err := activationTemplate.Execute(&body, map[string]string{
		"Name": name,
		"Code": code,
	}); err != nil {
		return fmt.Errorf("render activation mail: %w", err)
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.config.From)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", "Activate your ELearning account")
	msg.SetBody("text/html", body.String())

	if err := m.dialer.DialAndSend(msg); err != nil {
		m.logger.Error().Err(err).Str("to", to).Msg("failed to send activation mail")
		return err
	}
	return nil
}

var activationTemplate = template.Must(template.New("activation").Parse(`
<div style="font-family:sans-serif;max-width:480px;margin:0 auto">
  <h2>Activate your account</h2>
  <p>Hello {{.Name}},</p>
  <p>Use the code below to activate your ELearning account. It expires in 5 minutes.</p>
  <p style="font-size:28px;letter-spacing:6px;font-weight:bold">{{.Code}}</p>
  <p>If you did not request this, you can ignore this email.</p>
</div>
`))

// mailerConfig holds SMTP configuration.
type mailerConfig struct {
	Host     string `env:"SMTP_HOST"`
	Port     int    `env:"SMTP_PORT" envDefault:"587"`
	Username string `env:"SMTP_MAIL"`
	Password string `env:"SMTP_PASSWORD"`
	From     string `env:"SMTP_MAIL"`
}

func newMailerConfig() (*mailerConfig, error) {
	cfg, err := env.ParseAs[mailerConfig]()
	if err != nil {
		return nil, fmt.Errorf("parse smtp environment: %w", err)
	}
	if cfg.Host == "" {
		return nil, fmt.Errorf("missing SMTP_HOST environment variable")
	}
	if cfg.From == "" {
		return nil, fmt.Errorf("missing SMTP_MAIL environment variable")
	}
	return &cfg, nil
}
