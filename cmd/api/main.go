package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"parkeasy/internal/auth"
	"parkeasy/internal/config"
	"parkeasy/internal/httpserver"
	"parkeasy/internal/httpserver/validation"
	"parkeasy/internal/logger"
	"parkeasy/internal/models"
	"parkeasy/internal/notify"
	"parkeasy/internal/services/accounts"
	"parkeasy/internal/services/admin"
	"parkeasy/internal/services/audit"
	"parkeasy/internal/services/booking"
	"parkeasy/internal/services/checkout"
	"parkeasy/internal/services/inventory"
	"parkeasy/internal/services/receipt"
	"parkeasy/internal/worker"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
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

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{TranslateError: true})
	if err != nil {
		lg.Fatalw("db connect failed", "error", err)
	}
	if err := models.Migrate(db); err != nil {
		lg.Fatalw("automigrate failed", "error", err)
	}
	if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
		lg.Fatalw("upload dir", "dir", cfg.UploadDir, "error", err)
	}

	dispatcher, closeMail := mailDispatcher(cfg, lg)
	defer closeMail()
	mailer := notify.NewMailer(dispatcher, lg)

	signer := auth.NewSigner(cfg.JWTSecret, cfg.JWTExpiresIn)
	gen := receipt.NewGenerator(sequencer(ctx, cfg, lg))

	acc := accounts.NewService(db, signer, mailer, lg, accounts.Options{
		BaseURL:  cfg.BaseURL,
		OTPTTL:   cfg.OTPTTL,
		ResetTTL: cfg.ResetTTL,
	})
	if err := acc.SeedAdmin(ctx, cfg.Admin.Email, cfg.Admin.Username, cfg.Admin.Password); err != nil {
		lg.Fatalw("admin seed failed", "error", err)
	}
	bookings := booking.NewService(db, lg)

	router := httpserver.NewRouter(httpserver.Deps{
		DB:        db,
		Signer:    signer,
		Validator: validation.New(),
		Logger:    lg,
		UploadDir: cfg.UploadDir,
		Accounts:  acc,
		Inventory: inventory.NewService(db, lg, cfg.UploadDir),
		Bookings:  bookings,
		Checkout:  checkout.NewService(db, gen, mailer, lg),
		Receipts:  receipt.NewService(db, gen, lg),
		Admin:     admin.NewService(db, lg),
		Audit:     audit.NewLog(db),
	})

	if cfg.LifecycleSweepInterval > 0 {
		go worker.NewLifecycleWorker(bookings, cfg.LifecycleSweepInterval, lg).Start(ctx)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	lg.Infow("listening", "port", cfg.HTTPPort)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		lg.Fatalw("server failed", "error", err)
	}
	lg.Infow("server stopped")
}

// sequencer keeps receipt counters in redis when REDIS_ADDR is set.
func sequencer(ctx context.Context, cfg *config.Config, lg *zap.SugaredLogger) receipt.Sequencer {
	if cfg.Redis.Addr == "" {
		return receipt.DBSequencer{}
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		lg.Warnw("redis unavailable, receipt counters stay in the database", "addr", cfg.Redis.Addr, "error", err)
		_ = rdb.Close()
		return receipt.DBSequencer{}
	}
	return receipt.NewRedisSequencer(rdb)
}

func mailDispatcher(cfg *config.Config, lg *zap.SugaredLogger) (notify.Dispatcher, func()) {
	switch cfg.Mail.Driver {
	case "smtp":
		return notify.NewSMTPDispatcher(smtpConfig(cfg)), func() {}
	case "amqp":
		q, err := notify.DialQueue(cfg.Mail.AMQPURL, cfg.Mail.Queue)
		if err != nil {
			lg.Fatalw("mail queue", "error", err)
		}
		return q, func() { _ = q.Close() }
	}
	return &notify.LogDispatcher{SiteName: cfg.SiteName, Logger: lg}, func() {}
}

func smtpConfig(cfg *config.Config) notify.SMTPConfig {
	return notify.SMTPConfig{
		Host:     cfg.Mail.SMTPHost,
		Port:     cfg.Mail.SMTPPort,
		Username: cfg.Mail.SMTPUsername,
		Password: cfg.Mail.SMTPPassword,
		From:     cfg.Mail.From,
		SiteName: cfg.SiteName,
	}
}
