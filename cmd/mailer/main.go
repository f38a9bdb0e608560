// Command mailer drains the mail queue filled by the API when MAIL_DRIVER=amqp
// and delivers each message over SMTP.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"parkeasy/internal/config"
	"parkeasy/internal/logger"
	"parkeasy/internal/notify"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	lg := logger.New(cfg.LogLevel)
	defer lg.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	q, err := notify.DialQueue(cfg.Mail.AMQPURL, cfg.Mail.Queue)
	if err != nil {
		lg.Fatalw("mail queue", "error", err)
	}
	defer q.Close()

	smtp := notify.NewSMTPDispatcher(notify.SMTPConfig{
		Host:     cfg.Mail.SMTPHost,
		Port:     cfg.Mail.SMTPPort,
		Username: cfg.Mail.SMTPUsername,
		Password: cfg.Mail.SMTPPassword,
		From:     cfg.Mail.From,
		SiteName: cfg.SiteName,
	})
	lg.Infow("mailer consuming", "queue", cfg.Mail.Queue)
	if err := q.Consume(ctx, smtp, lg); err != nil {
		lg.Errorw("mailer stopped", "error", err)
	}
}
