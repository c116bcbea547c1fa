package mail

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/smtp"
	"strings"
	"time"

	"github.com/landlordheaven/heaven-backend/pkg/config"
	"github.com/landlordheaven/heaven-backend/pkg/db/models"
	"github.com/landlordheaven/heaven-backend/pkg/logger"
	"github.com/landlordheaven/heaven-backend/pkg/money"
)

// Sender delivers transactional email.
type Sender interface {
	Send(ctx context.Context, to []string, subject, htmlBody string) error
}

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPSender sends HTML mail through a relay.
type SMTPSender struct {
	cfg  config.MailConfig
	send sendFunc
}

func NewSMTP(cfg config.MailConfig) *SMTPSender {
	return &SMTPSender{cfg: cfg, send: smtp.SendMail}
}

func (s *SMTPSender) Send(ctx context.Context, to []string, subject, htmlBody string) error {
	if len(to) == 0 {
		return fmt.Errorf("no recipients")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)

	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", s.cfg.From)
	fmt.Fprintf(&msg, "To: %s\r\n", strings.Join(to, ", "))
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n\r\n")
	msg.WriteString(htmlBody)

	return s.send(addr, auth, s.cfg.From, to, []byte(msg.String()))
}

// LogSender records messages instead of sending them. Used when no relay is configured.
type LogSender struct {
	Logger *logger.Logger
}

func (l LogSender) Send(ctx context.Context, to []string, subject, _ string) error {
	if l.Logger != nil {
		l.Logger.Info(l.Logger.WithFields(ctx, map[string]any{
			"to":      strings.Join(to, ","),
			"subject": subject,
		}), "email delivery skipped: smtp not configured")
	}
	return nil
}

// NewSender picks SMTP when a host is configured.
func NewSender(cfg config.MailConfig, logg *logger.Logger) Sender {
	if strings.TrimSpace(cfg.Host) == "" {
		return LogSender{Logger: logg}
	}
	return NewSMTP(cfg)
}

var confirmationTemplate = template.Must(template.New("order_confirmation").Parse(`<!doctype html>
<html><body>
<p>Hello{{if .Name}} {{.Name}}{{end}},</p>
<p>Thank you for your purchase of <strong>{{.Product}}</strong> ({{.Amount}}) on {{.Date}}.</p>
<p>Your order reference is <code>{{.OrderID}}</code>. You can download your documents from your dashboard at <a href="{{.DashboardURL}}">{{.DashboardURL}}</a>.</p>
<p>Landlord Heaven</p>
</body></html>`))

// Mailer renders and sends order mail.
type Mailer struct {
	sender    Sender
	publicURL string
}

func NewMailer(sender Sender, publicURL string) *Mailer {
	return &Mailer{sender: sender, publicURL: strings.TrimRight(publicURL, "/")}
}

// SendOrderConfirmation emails the purchase confirmation to the order's user.
func (m *Mailer) SendOrderConfirmation(ctx context.Context, order *models.Order) error {
	if order == nil || order.User == nil || order.User.Email == "" {
		return fmt.Errorf("order has no recipient")
	}
	data := map[string]any{
		"Product":      order.ProductType.Label(),
		"Amount":       money.Format(order.Amount),
		"Date":         order.CreatedAt.In(time.UTC).Format("02/01/2006"),
		"OrderID":      order.ID.String(),
		"DashboardURL": m.publicURL + "/dashboard",
	}
	if order.User.FullName != nil {
		data["Name"] = *order.User.FullName
	}
	var body bytes.Buffer
	if err := confirmationTemplate.Execute(&body, data); err != nil {
		return fmt.Errorf("render confirmation: %w", err)
	}
	subject := fmt.Sprintf("Your Landlord Heaven order: %s", order.ProductType.Label())
	return m.sender.Send(ctx, []string{order.User.Email}, subject, body.String())
}
