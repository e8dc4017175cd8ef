package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/banking-ledger-core/internal/api_gateway"
	"github.com/banking-ledger-core/internal/api_gateway/service"
	"github.com/banking-ledger-core/internal/config"
	"github.com/banking-ledger-core/internal/data/mongo"
	"github.com/banking-ledger-core/internal/data/postgres"
	"github.com/banking-ledger-core/internal/logger"
	"github.com/banking-ledger-core/internal/platform/lifecycle"
	"github.com/banking-ledger-core/internal/platform/messaging/producers"
	"github.com/banking-ledger-core/internal/platform/metrics"
	"github.com/banking-ledger-core/internal/platform/persistence"
	"github.com/banking-ledger-core/internal/transaction_processor/components"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "api gateway: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConfig("api_gateway")
	if err != nil {
		return err
	}
	log := logger.NewLogger(cfg)

	defaults, err := cfg.Ledger.Defaults()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	var resources lifecycle.Closers
	shutdown := func() error {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return resources.CloseAll(shutdownCtx)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	appMetrics := metrics.New(registry)

	postgresDB, err := persistence.NewPostgresDB(ctx, log, &cfg.Postgres)
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	resources.PushFunc(postgresDB.Close)

	mongoDB, err := persistence.NewMongoDB(ctx, log, &cfg.MongoDB)
	if err != nil {
		return errors.Join(fmt.Errorf("mongodb: %w", err), shutdown())
	}
	resources.Push(mongoDB.Close)

	requestProducer, err := producers.NewTransactionRequestProducer(log, &cfg.Kafka)
	if err != nil {
		return errors.Join(fmt.Errorf("transaction request producer: %w", err), shutdown())
	}
	resources.Push(func(context.Context) error { return requestProducer.Close() })

	// reversals and upgrade decisions notify the account holders
	notificationProducer, err := producers.NewNotificationProducer(log, &cfg.Kafka)
	if err != nil {
		return errors.Join(fmt.Errorf("notification producer: %w", err), shutdown())
	}
	resources.Push(func(context.Context) error { return notificationProducer.Close() })

	repos := components.Repositories{
		Accounts:     postgres.NewAccountRepository(log, postgresDB),
		Transactions: postgres.NewTransactionRepository(log, postgresDB),
		Flagged:      postgres.NewFlaggedRepository(log, postgresDB),
		Upgrades:     postgres.NewUpgradeRepository(log, postgresDB),
		Outbox:       postgres.NewOutboxRepository(log, postgresDB),
	}
	ledgerRepo := mongo.NewLedgerRepository(log, mongoDB.Database())
	if err := ledgerRepo.EnsureIndexes(ctx); err != nil {
		return errors.Join(err, shutdown())
	}
	auditRepo := mongo.NewAuditRepository(log, mongoDB.Database())

	dispatcher := components.NewDispatcher(notificationProducer, auditRepo, log.With("component", "dispatcher"))
	admin := components.CreateAdminServices(postgresDB, repos, dispatcher, appMetrics, log)

	server := api_gateway.NewServer(log, cfg, api_gateway.Services{
		Accounts:     service.NewAccountService(log, repos.Accounts, ledgerRepo, auditRepo, defaults),
		Transactions: service.NewTransactionService(log, repos.Transactions, repos.Accounts, requestProducer, admin.Upgrades),
		Admin:        service.NewAdminService(log, admin.Reversals, admin.Reviews, admin.Upgrades),
	}, api_gateway.Observability{
		Metrics:  appMetrics,
		Gatherer: registry,
		Health: map[string]api_gateway.HealthChecker{
			"postgres": postgresDB,
			"mongodb":  mongoDB,
		},
	})
	// requests stop before the stores they use close
	resources.Push(server.Stop)

	errCh := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "port", cfg.Server.Port)
		if err := server.Start(); err != nil {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	var serverErr error
	select {
	case <-ctx.Done():
		log.Info("Shutdown signal received")
	case serverErr = <-errCh:
		log.Error("HTTP server failed, shutting down", "error", serverErr)
	}

	if err := shutdown(); err != nil {
		log.Error("API gateway shutdown completed with errors", "error", err)
		return errors.Join(serverErr, err)
	}
	log.Info("API gateway shutdown completed")
	return serverErr
}
