package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/banking-ledger-core/internal/domain/shared"
	"github.com/banking-ledger-core/internal/platform/metrics"
	"github.com/panjf2000/ants/v2"
)

// drainTimeout bounds how long Shutdown waits for running workers
const drainTimeout = 10 * time.Second

// WorkerPoolProcessingService bounds how many requests reach the wrapped service at
// once. ProcessTransaction blocks until its request finished or ctx is done.
type WorkerPoolProcessingService struct {
	next    ProcessingService
	pool    *ants.Pool
	metrics *metrics.Metrics
	logger  *slog.Logger
}

type WorkerPoolConfig struct {
	Size int
}

func NewWorkerPoolProcessingService(
	next ProcessingService,
	config WorkerPoolConfig,
	m *metrics.Metrics,
	logger *slog.Logger,
) (*WorkerPoolProcessingService, error) {
	pool, err := ants.NewPool(config.Size,
		ants.WithLogger(antsLogger{logger}),
		ants.WithPanicHandler(func(p any) {
			logger.Error("Worker panicked", "panic", p)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create worker pool of size %d: %w", config.Size, err)
	}
	return &WorkerPoolProcessingService{next: next, pool: pool, metrics: m, logger: logger}, nil
}

func (s *WorkerPoolProcessingService) ProcessTransaction(ctx context.Context, request *shared.TransactionRequest) error {
	req := *request
	// buffered so a worker never blocks on a caller that gave up
	done := make(chan error, 1)

	if err := s.pool.Submit(func() { done <- s.run(ctx, &req) }); err != nil {
		s.logger.Error("Failed to submit transaction to worker pool",
			"transaction_id", req.TransactionID.String(),
			"correlation_id", req.CorrelationID,
			"error", err,
		)
		return fmt.Errorf("failed to submit transaction %s: %w", req.TransactionID, err)
	}

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *WorkerPoolProcessingService) run(ctx context.Context, req *shared.TransactionRequest) (err error) {
	s.metrics.JobStarted()
	defer s.metrics.JobFinished()
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic while processing transaction %s: %v", req.TransactionID, p)
		}
	}()
	return s.next.ProcessTransaction(ctx, req)
}

// Shutdown stops accepting work and waits up to drainTimeout for running workers.
func (s *WorkerPoolProcessingService) Shutdown() {
	s.logger.Info("Shutting down worker pool", "running_workers", s.pool.Running())
	if err := s.pool.ReleaseTimeout(drainTimeout); err != nil {
		s.logger.Warn("Worker pool did not drain in time", "error", err)
	}
}

func (s *WorkerPoolProcessingService) Running() int  { return s.pool.Running() }
func (s *WorkerPoolProcessingService) Capacity() int { return s.pool.Cap() }

// antsLogger routes the pool's own messages into slog
type antsLogger struct{ logger *slog.Logger }

func (l antsLogger) Printf(format string, args ...any) {
	l.logger.Warn(fmt.Sprintf(format, args...), "component", "ants")
}
