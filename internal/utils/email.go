package utils

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/wneessen/go-mail"

	"essence_back_end/internal/config"
)

// Mailer envoie les emails HTML par SMTP. Sans hôte SMTP configuré,
// les emails sont seulement journalisés (développement).
type Mailer struct {
	cfg config.SMTPConfig
}

func NewMailer(cfg config.SMTPConfig) *Mailer {
	return &Mailer{cfg: cfg}
}

// NewMessage prépare le message sans l'envoyer
func (m *Mailer) NewMessage(to, subject, htmlBody string) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(m.cfg.From); err != nil {
		return nil, err
	}
	if err := msg.To(to); err != nil {
		return nil, err
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextHTML, htmlBody)
	return msg, nil
}

func (m *Mailer) Send(ctx context.Context, to, subject, htmlBody string) error {
	msg, err := m.NewMessage(to, subject, htmlBody)
	if err != nil {
		return err
	}

	if m.cfg.Host == "" {
		log.Printf("📧 [dev] Email non envoyé (SMTP non configuré) à %s: %s", to, subject)
		return nil
	}

	client, err := mail.NewClient(m.cfg.Host,
		mail.WithPort(m.cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthLogin),
		mail.WithUsername(m.cfg.Username),
		mail.WithPassword(m.cfg.Password),
		mail.WithTLSPolicy(mail.TLSMandatory),
	)
	if err != nil {
		return err
	}

	log.Println("📤 Envoi de l'e-mail à", to)
	return client.DialAndSendWithContext(ctx, msg)
}

// EmailCodeSender envoie le code OTP par email
type EmailCodeSender struct {
	Mailer interface {
		Send(ctx context.Context, to, subject, htmlBody string) error
	}
}

func (s EmailCodeSender) SendCode(ctx context.Context, to, code string, ttl time.Duration) error {
	html, err := RenderOTPEmail(code, ttl)
	if err != nil {
		return err
	}
	return s.Mailer.Send(ctx, to, "🔐 Votre code de connexion Essence", html)
}

// LogSMSSender journalise le code au lieu de l'envoyer par SMS
type LogSMSSender struct{}

func (LogSMSSender) SendCode(_ context.Context, to, code string, ttl time.Duration) error {
	log.Printf("📱 [sms] Code %s pour %s (valide %s)", code, maskPhone(to), ttl)
	return nil
}

func maskPhone(phone string) string {
	if len(phone) <= 4 {
		return phone
	}
	return fmt.Sprintf("%s****%s", phone[:3], phone[len(phone)-2:])
}
