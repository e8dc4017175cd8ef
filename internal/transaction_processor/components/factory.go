package components

import (
	"log/slog"

	"github.com/banking-ledger-core/internal/config"
	"github.com/banking-ledger-core/internal/domain/account"
	"github.com/banking-ledger-core/internal/domain/fraud"
	"github.com/banking-ledger-core/internal/domain/outbox"
	"github.com/banking-ledger-core/internal/domain/transaction"
	"github.com/banking-ledger-core/internal/domain/upgrade"
	"github.com/banking-ledger-core/internal/platform/metrics"
	"github.com/banking-ledger-core/internal/transaction_processor/service"
)

// Repositories bundles the stores the ledger services run on
type Repositories struct {
	Accounts     account.Repository
	Transactions transaction.Repository
	Flagged      fraud.Repository
	Upgrades     upgrade.Repository
	Outbox       outbox.Repository
}

// NewEngine wires the transaction engine from its components
func NewEngine(
	uow service.UnitOfWork,
	repos Repositories,
	dispatcher service.Dispatcher,
	m *metrics.Metrics,
	cfg *config.Config,
	logger *slog.Logger,
) service.Engine {
	outboxManager := NewOutboxManager(repos.Outbox, logger.With("component", "outbox_manager"))

	return service.NewProcessingService(service.EngineDeps{
		UnitOfWork:      uow,
		Transactions:    repos.Transactions,
		Flagged:         repos.Flagged,
		Validator:       NewTransactionValidator(repos.Transactions, logger.With("component", "validator")),
		AccountManager:  NewAccountManager(repos.Accounts, logger.With("component", "account_manager")),
		Screener:        NewLimitScreener(repos.Transactions, cfg.Ledger.Location(), cfg.Ledger.AnomalyMultiplier, logger.With("component", "screener")),
		OutboxManager:   outboxManager,
		FailureRecorder: NewFailureRecorder(uow, repos.Transactions, outboxManager, logger.With("component", "failure_recorder")),
		Dispatcher:      dispatcher,
		Metrics:         m,
	}, logger.With("component", "engine"))
}

// CreateProcessingService creates the engine behind a worker pool, falling back to the
// bare engine when the pool cannot be built.
func CreateProcessingService(
	uow service.UnitOfWork,
	repos Repositories,
	dispatcher service.Dispatcher,
	m *metrics.Metrics,
	cfg *config.Config,
	logger *slog.Logger,
) service.ProcessingService {
	baseService := NewEngine(uow, repos, dispatcher, m, cfg, logger)

	workerPoolService, err := service.NewWorkerPoolProcessingService(
		baseService,
		service.WorkerPoolConfig{
			Size: cfg.WorkerPool.Size,
		},
		m,
		logger.With("component", "worker_pool"),
	)
	if err != nil {
		logger.Error("Failed to create worker pool service, falling back to base service", "error", err)
		return baseService
	}

	logger.Info("Created worker pool processing service", "pool_size", cfg.WorkerPool.Size)
	return workerPoolService
}

// AdminServices are the synchronous operations behind the admin surface
type AdminServices struct {
	Reversals service.ReversalService
	Reviews   service.ReviewService
	Upgrades  service.UpgradeService
}

func CreateAdminServices(
	uow service.UnitOfWork,
	repos Repositories,
	dispatcher service.Dispatcher,
	m *metrics.Metrics,
	logger *slog.Logger,
) *AdminServices {
	accountManager := NewAccountManager(repos.Accounts, logger.With("component", "account_manager"))
	outboxManager := NewOutboxManager(repos.Outbox, logger.With("component", "outbox_manager"))

	return &AdminServices{
		Reversals: service.NewReversalService(uow, repos.Transactions, accountManager, outboxManager, dispatcher, m, logger.With("component", "reversal")),
		Reviews:   service.NewReviewService(uow, repos.Flagged, repos.Accounts, dispatcher, logger.With("component", "review")),
		Upgrades:  service.NewUpgradeService(uow, repos.Upgrades, repos.Accounts, dispatcher, m, logger.With("component", "upgrade")),
	}
}
