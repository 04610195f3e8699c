package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	httpadp "loanapp-backend/internal/adapter/http"
	"loanapp-backend/internal/adapter/kafka"
	"loanapp-backend/internal/adapter/middleware"
	"loanapp-backend/internal/adapter/outbox"
	"loanapp-backend/internal/adapter/repository/mysql"
	"loanapp-backend/internal/config"
	"loanapp-backend/internal/infrastructure/cache"
	"loanapp-backend/internal/infrastructure/db"
	"loanapp-backend/internal/infrastructure/logger"
	"loanapp-backend/internal/infrastructure/metrics"
	"loanapp-backend/internal/usecase/application"
	"loanapp-backend/internal/usecase/approval"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	gdb, err := db.OpenGorm(cfg.DBDriver, cfg.DSN(), log)
	if err != nil {
		return err
	}
	if err := mysql.AutoMigrate(gdb); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	m := metrics.New()
	tx := mysql.NewGormUoW(gdb)
	approvals := approval.NewUsecase(tx, m, log)

	var (
		sink     outbox.Sink
		consumer *kafka.Consumer
	)
	switch cfg.EventTransport {
	case config.TransportKafka:
		pub := kafka.NewPublisher(kafka.NewWriter(cfg.KafkaBrokers, cfg.KafkaTopic))
		defer pub.Close()
		sink = pub
		consumer = kafka.NewConsumer(
			kafka.NewReader(cfg.KafkaBrokers, cfg.KafkaTopic, cfg.KafkaGroupID),
			approvals, cfg.OutboxRetryMaxTries, m, log)
		defer consumer.Close()
	default:
		sink = outbox.NewListenerSink(approvals)
	}

	relay := outbox.NewRelay(mysql.NewOutboxRepository(gdb), sink, outbox.Config{
		PollInterval:  cfg.OutboxPollInterval,
		BatchSize:     cfg.OutboxBatchSize,
		RetryMaxTries: cfg.OutboxRetryMaxTries,
		MaxAttempts:   cfg.OutboxMaxAttempts,
		Retention:     cfg.OutboxRetention,
	}, m, log)
	apps := application.NewUsecase(mysql.NewApplicantRepository(gdb), tx, relay, m, log)

	checks := map[string]httpadp.Pinger{"db": sqlDB.PingContext}
	var idem echo.MiddlewareFunc
	if cfg.RedisAddr != "" {
		rdb, err := cache.OpenRedis(cfg.RedisAddr, cfg.RedisDB)
		if err != nil {
			return err
		}
		defer rdb.Close()
		idem = middleware.Idempotency(rdb, time.Duration(cfg.IdempTTLSecs)*time.Second, log)
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	} else {
		log.Warn("REDIS_ADDR empty, idempotency keys are ignored")
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = httpadp.ErrorHandler(log)
	e.Use(echomw.Recover(), echomw.RequestID(), logger.RequestLogger(log), m.Middleware())

	// routes
	httpadp.Register(e, httpadp.Routes{
		Health:      httpadp.NewHandler(checks),
		Application: httpadp.NewApplicationHandler(apps, httpadp.NewValidator()),
		Approval:    httpadp.NewApprovalHandler(approvals),
		Metrics:     echo.WrapHandler(m.Handler()),
		Idempotency: idem,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error { return relay.Run(gctx) })
	if consumer != nil {
		g.Go(func() error { return consumer.Run(gctx) })
	}
	addr := ":" + cfg.AppPort
	g.Go(func() error {
		log.Info("listening", zap.String("addr", addr), zap.String("db", cfg.DBDriver), zap.String("transport", cfg.EventTransport))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	})

	err = g.Wait()
	log.Info("shutdown complete")
	return err
}
