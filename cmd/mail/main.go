package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/mothercare-dev/clinic/backend/internal/config"
	"github.com/mothercare-dev/clinic/backend/internal/logging"
	"github.com/mothercare-dev/clinic/backend/internal/mailer"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/wneessen/go-mail"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := logging.New(os.Stdout, cfg.Log.Level, cfg.Log.Format)
	slog.SetDefault(logger)

	/**********************************************
	 * SMTP client
	 **********************************************/
	client, err := mail.NewClient(cfg.Email.SMTP.Host,
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithSSL(),
		mail.WithPort(cfg.Email.SMTP.Port),
		mail.WithUsername(cfg.Email.SMTP.Username),
		mail.WithPassword(cfg.Email.SMTP.Password),
	)
	if err != nil {
		logger.Error("failed to create mail client", "error", err)
		return
	}
	defer client.Close()

	dialCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Email.SMTP.DialTimeout)*time.Second)
	defer cancel()
	if err := client.DialWithContext(dialCtx); err != nil {
		logger.Error("failed to connect to mail server", "error", err)
		return
	}

	/**********************************************
	 * RabbitMQ
	 **********************************************/
	conn, err := amqp.Dial(cfg.RabbitMQ.DSN)
	if err != nil {
		logger.Error("failed to connect to rabbitmq", "error", err)
		return
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		logger.Error("failed to open channel", "error", err)
		return
	}
	defer ch.Close()

	q, err := ch.QueueDeclare(
		cfg.RabbitMQ.Queue,
		true,  // durable
		false, // keep the queue when no worker is connected
		false,
		false,
		nil,
	)
	if err != nil {
		logger.Error("failed to declare queue", "error", err)
		return
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	msgs, err := ch.Consume(
		q.Name,
		"",    // broker-assigned consumer tag
		false, // manual ack
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		logger.Error("failed to consume queue", "error", err)
		os.Exit(1)
	}

	ctx, stop := context.WithCancel(context.Background())
	wg := sync.WaitGroup{}

	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					logger.Warn("delivery channel closed")
					return
				}
				handle(client, cfg.Email.SMTP.Username, msg)
			}
		}
	}()

	logger.Info("waiting for mail", "queue", q.Name)
	<-sigChan

	logger.Info("shutting down mail worker")
	stop()
	wg.Wait()
	logger.Info("mail worker stopped")
}

// handle sends one queued mail. Messages that can never be sent are dropped;
// SMTP failures go back on the queue.
func handle(client *mail.Client, from string, d amqp.Delivery) {
	message, err := mailer.Decode(d.Body)
	if err != nil {
		slog.Error("failed to decode mail message", "error", err)
		_ = d.Nack(false, false)
		return
	}

	m, err := mailer.Build(message, from)
	if err != nil {
		slog.Error("failed to build mail", "type", message.Type, "error", err)
		_ = d.Nack(false, false)
		return
	}

	if err := client.DialAndSend(m); err != nil {
		slog.Error("failed to send mail", "type", message.Type, "error", err)
		_ = d.Nack(false, true)
		return
	}

	slog.Info("mail sent", "type", message.Type)
	_ = d.Ack(false)
}
