package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/banking-ledger-core/internal/config"
	"github.com/banking-ledger-core/internal/data/mongo"
	"github.com/banking-ledger-core/internal/data/postgres"
	"github.com/banking-ledger-core/internal/logger"
	"github.com/banking-ledger-core/internal/platform/lifecycle"
	"github.com/banking-ledger-core/internal/platform/messaging/consumers"
	"github.com/banking-ledger-core/internal/platform/messaging/producers"
	"github.com/banking-ledger-core/internal/platform/metrics"
	"github.com/banking-ledger-core/internal/platform/persistence"
	"github.com/banking-ledger-core/internal/transaction_processor/components"
	"github.com/banking-ledger-core/internal/transaction_processor/consumer"
	"github.com/banking-ledger-core/internal/transaction_processor/outbox_poller"
	"github.com/banking-ledger-core/internal/transaction_processor/service"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "transaction processor: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConfig("transaction_processor")
	if err != nil {
		return err
	}
	log := logger.NewLogger(cfg)
	log.Info("Starting Transaction Processor", "app_name", cfg.Application.Name, "env", cfg.Application.Env)

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

	dlqProducer, err := producers.NewDLQProducer(log, &cfg.Kafka)
	if err != nil {
		return errors.Join(fmt.Errorf("dlq producer: %w", err), shutdown())
	}
	// keep the interface nil when the DLQ is disabled
	var deadLetters producers.DeadLetterPublisher
	if dlqProducer != nil {
		deadLetters = dlqProducer
		resources.Push(func(context.Context) error { return dlqProducer.Close() })
	}

	notificationProducer, err := producers.NewNotificationProducer(log, &cfg.Kafka)
	if err != nil {
		return errors.Join(fmt.Errorf("notification producer: %w", err), shutdown())
	}
	resources.Push(func(context.Context) error { return notificationProducer.Close() })

	dispatcher := components.NewDispatcher(notificationProducer, auditRepo, log.With("component", "dispatcher"))
	processingService := components.CreateProcessingService(postgresDB, repos, dispatcher, appMetrics, cfg, log)

	kafkaConsumer := consumers.NewKafkaConsumer(log, &cfg.Kafka, deadLetters)
	resources.Push(func(context.Context) error { return kafkaConsumer.Close() })
	handler := consumer.NewTransactionEventHandler(log, processingService, deadLetters)

	ledgerPublisher := outbox_poller.NewLedgerPublisher(repos.Outbox, ledgerRepo, log.With("component", "ledger_publisher"))
	poller := outbox_poller.NewPoller(&cfg.Outbox, repos.Outbox, ledgerPublisher, appMetrics, log.With("component", "outbox_poller"))

	// running jobs drain before the consumer closes
	if pool, ok := processingService.(*service.WorkerPoolProcessingService); ok {
		resources.PushFunc(pool.Shutdown)
	}

	// the processor has no API, only health and metrics
	opsServer := newOpsServer(cfg, registry, postgresDB, mongoDB)
	resources.Push(opsServer.Shutdown)

	runCtx, cancelRun := context.WithCancel(ctx)
	defer cancelRun()
	errCh := make(chan error, 2)
	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		log.Info("Starting Kafka consumer", "topic", cfg.Kafka.TransactionTopic, "group", cfg.Kafka.ConsumerGroup)
		if err := kafkaConsumer.Run(runCtx, handler.HandleMessage); err != nil {
			errCh <- fmt.Errorf("kafka consumer: %w", err)
		}
	}()
	go func() {
		defer wg.Done()
		poller.Start(runCtx)
	}()
	go func() {
		log.Info("Starting ops server", "addr", opsServer.Addr)
		if err := opsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("ops server: %w", err)
		}
	}()

	var serviceErr error
	select {
	case <-ctx.Done():
		log.Info("Shutdown signal received")
	case serviceErr = <-errCh:
		log.Error("Service failed, shutting down", "error", serviceErr)
	}
	cancelRun()

	stopped := make(chan struct{})
	go func() {
		wg.Wait()
		close(stopped)
	}()
	select {
	case <-stopped:
		log.Info("Consumer and outbox poller stopped")
	case <-time.After(cfg.Server.ShutdownTimeout):
		log.Warn("Shutdown timeout reached before consumer and poller stopped")
	}

	if err := shutdown(); err != nil {
		log.Error("Transaction Processor shutdown completed with errors", "error", err)
		return errors.Join(serviceErr, err)
	}
	log.Info("Transaction Processor shutdown completed")
	return serviceErr
}

type pinger interface {
	Ping(ctx context.Context) error
}

// newOpsServer serves the metrics endpoint and a liveness probe on the server port
func newOpsServer(cfg *config.Config, gatherer prometheus.Gatherer, deps ...pinger) *http.Server {
	if cfg.Application.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/health", func(c *gin.Context) {
		for _, dep := range deps {
			if err := dep.Ping(c.Request.Context()); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "error": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if cfg.Metrics.Enabled {
		r.GET(cfg.Metrics.Path, gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	return &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
}
