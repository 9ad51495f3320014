// Command email-worker consumes queued emails and sends them through Mailgun.
package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"gallery-api/config"
	"gallery-api/internal/infra/metrics"
	"gallery-api/internal/infra/notify"
	"gallery-api/internal/logging"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg := config.LoadMail()
	log := logging.New(cfg.AppName, cfg.AppEnv)

	if cfg.RabbitMQURL == "" || cfg.RabbitMQEmailQueue == "" {
		log.Fatal("RabbitMQ not configured")
	}
	if cfg.MailgunDomain == "" || cfg.MailgunAPIKey == "" || cfg.MailgunSender == "" {
		log.Fatal("Mailgun not configured")
	}

	conn, err := amqp.Dial(cfg.RabbitMQURL)
	if err != nil {
		log.WithError(err).Fatal("amqp dial")
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		log.WithError(err).Fatal("amqp channel")
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(16, 0, false); err != nil {
		log.WithError(err).Fatal("qos")
	}
	if _, err := notify.DeclareQueue(ch, cfg.RabbitMQEmailQueue); err != nil {
		log.WithError(err).Fatal("queue declare")
	}

	msgs, err := ch.Consume(cfg.RabbitMQEmailQueue, "", false, false, false, false, nil)
	if err != nil {
		log.WithError(err).Fatal("consume")
	}

	mg := notify.NewMailgun(cfg.MailgunDomain, cfg.MailgunAPIKey, cfg.MailgunSender)
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for msg := range msgs {
			handle(ctx, log, mg, msg)
		}
	}()

	log.WithField("queue", cfg.RabbitMQEmailQueue).Info("email worker listening")
	select {
	case <-ctx.Done():
	case <-done:
		log.Warn("delivery channel closed")
		return
	}
	log.Info("shutting down...")
	_ = ch.Close()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
	}
}

func handle(ctx context.Context, log logrus.FieldLogger, mg notify.MessageSender, msg amqp.Delivery) {
	c, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	retry, err := notify.ProcessJob(c, msg.Body, mg)
	if err != nil {
		log.WithError(err).WithField("redelivered", msg.Redelivered).Warn("email job failed")
		metrics.RecordNotification("queued", false)
		// a message that already failed once is dropped rather than looping
		_ = msg.Nack(false, retry && !msg.Redelivered)
		return
	}
	metrics.RecordNotification("queued", true)
	_ = msg.Ack(false)
}
