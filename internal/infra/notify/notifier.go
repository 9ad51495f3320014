// Package notify delivers transactional emails. Callers depend on the
// Notifier interface; delivery is direct (Mailgun), queued (RabbitMQ) or
// logged in development.
package notify

import (
	"context"
	"time"

	"gallery-api/internal/infra/metrics"
	"gallery-api/internal/logging"

	mg "github.com/mailgun/mailgun-go/v4"
	"github.com/sirupsen/logrus"
)

type Notifier interface {
	Send(ctx context.Context, recipient string, kind Kind, data map[string]any) error
}

// Deliver sends through n, records the outcome and logs failures. The
// error is returned for callers that must react to it.
func Deliver(ctx context.Context, n Notifier, log logrus.FieldLogger, recipient string, kind Kind, data map[string]any) error {
	if n == nil {
		return nil
	}
	err := n.Send(ctx, recipient, kind, data)
	metrics.RecordNotification(string(kind), err == nil)
	if err != nil {
		logging.Error(log, "notification failed", err, logrus.Fields{"to": recipient, "kind": string(kind)})
	}
	return err
}

// LineItem is how order lines are passed to the order templates.
type LineItem struct {
	Title string
	Price string
}

// LogNotifier renders the message and writes it to the log.
type LogNotifier struct {
	Log logrus.FieldLogger
}

func (n LogNotifier) Send(_ context.Context, recipient string, kind Kind, data map[string]any) error {
	msg, err := Render(kind, data)
	if err != nil {
		return err
	}
	n.Log.WithFields(logrus.Fields{
		"to":      recipient,
		"kind":    string(kind),
		"subject": msg.Subject,
	}).Info("📨 " + msg.Text)
	return nil
}

// Mailgun sends rendered messages through the Mailgun API.
type Mailgun struct {
	Domain string
	APIKey string
	Sender string
}

func NewMailgun(domain, apiKey, sender string) *Mailgun {
	return &Mailgun{Domain: domain, APIKey: apiKey, Sender: sender}
}

// SendMessage sends an already rendered email.
func (m *Mailgun) SendMessage(ctx context.Context, to string, msg Message) error {
	client := mg.NewMailgun(m.Domain, m.APIKey)
	message := client.NewMessage(m.Sender, msg.Subject, msg.Text, to)
	if msg.HTML != "" {
		message.SetHtml(msg.HTML)
	}
	c, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	_, _, err := client.Send(c, message)
	return err
}

func (m *Mailgun) Send(ctx context.Context, recipient string, kind Kind, data map[string]any) error {
	msg, err := Render(kind, data)
	if err != nil {
		return err
	}
	return m.SendMessage(ctx, recipient, msg)
}
