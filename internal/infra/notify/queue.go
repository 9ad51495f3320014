package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// EmailJob is the JSON payload put on the RabbitMQ queue for the email worker.
type EmailJob struct {
	To       string         `json:"to"`
	Template Kind           `json:"template"`
	Data     map[string]any `json:"data,omitempty"`
}

// Publisher is the part of an AMQP channel the queue notifier needs.
type Publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// Queue hands emails to the worker through a durable queue.
type Queue struct {
	conn  *amqp.Connection
	ch    Publisher
	queue string
}

func NewQueue(url, queue string) (*Queue, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	if _, err := DeclareQueue(ch, queue); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}
	return &Queue{conn: conn, ch: ch, queue: queue}, nil
}

// NewQueueWithPublisher builds a Queue over an existing channel.
func NewQueueWithPublisher(p Publisher, queue string) *Queue {
	return &Queue{ch: p, queue: queue}
}

// DeclareQueue declares the durable email queue.
func DeclareQueue(ch *amqp.Channel, queue string) (amqp.Queue, error) {
	return ch.QueueDeclare(
		queue,
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,
	)
}

func (q *Queue) Close() {
	if q == nil {
		return
	}
	if c, ok := q.ch.(*amqp.Channel); ok && c != nil {
		_ = c.Close()
	}
	if q.conn != nil {
		_ = q.conn.Close()
	}
}

func (q *Queue) Send(ctx context.Context, recipient string, kind Kind, data map[string]any) error {
	// fail fast on unknown kinds instead of poisoning the queue
	if _, ok := subjects[kind]; !ok {
		_, err := Render(kind, data)
		return err
	}
	b, err := json.Marshal(EmailJob{To: recipient, Template: kind, Data: data})
	if err != nil {
		return err
	}
	return q.ch.PublishWithContext(ctx,
		"",      // default exchange
		q.queue, // routing key = queue
		false,   // mandatory
		false,   // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now().UTC(),
			Body:         b,
		},
	)
}

// MessageSender delivers an already rendered email.
type MessageSender interface {
	SendMessage(ctx context.Context, to string, msg Message) error
}

// ProcessJob decodes a queued EmailJob, renders it and sends it. retry is
// true only when delivery failed and the message may succeed later.
func ProcessJob(ctx context.Context, body []byte, sender MessageSender) (retry bool, err error) {
	var job EmailJob
	if err := json.Unmarshal(body, &job); err != nil {
		return false, fmt.Errorf("bad message: %w", err)
	}
	if job.To == "" {
		return false, errors.New("bad message: missing recipient")
	}
	msg, err := Render(job.Template, job.Data)
	if err != nil {
		return false, fmt.Errorf("render %s: %w", job.Template, err)
	}
	if err := sender.SendMessage(ctx, job.To, msg); err != nil {
		return true, fmt.Errorf("send: %w", err)
	}
	return false, nil
}
