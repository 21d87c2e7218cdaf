// Package scheduler runs the periodic billing and collection jobs: the
// debt-collection scan, recurring expense materialization, and monthly
// subscription billing.
package scheduler

import (
	"context"
	"sync"
	"time"

	appbilling "github.com/bms/backend/internal/application/billing"
	appcollection "github.com/bms/backend/internal/application/collection"
	"go.uber.org/zap"
)

// BillingSchedulerConfig holds configuration for the billing scheduler
type BillingSchedulerConfig struct {
	// Enabled determines if the scheduler is active
	Enabled bool

	// CollectionInterval is how often the debt-collection scan runs
	CollectionInterval time.Duration

	// RecurringInterval is how often recurring expenses are materialized
	RecurringInterval time.Duration

	// SubscriptionInterval is how often subscription dues are billed
	SubscriptionInterval time.Duration

	// JobTimeout is the maximum time for a single job run
	JobTimeout time.Duration
}

// DefaultBillingSchedulerConfig returns default configuration
func DefaultBillingSchedulerConfig() BillingSchedulerConfig {
	return BillingSchedulerConfig{
		Enabled:              true,
		CollectionInterval:   time.Hour,
		RecurringInterval:    6 * time.Hour,
		SubscriptionInterval: 12 * time.Hour,
		JobTimeout:           10 * time.Minute,
	}
}

// BillingScheduler runs the periodic ledger jobs. Each job is idempotent
// per billing period, so overlapping deployments or restarts never double
// bill: the interval only controls how quickly new periods are picked up.
type BillingScheduler struct {
	collectionService *appcollection.CollectionService
	expenseService    *appbilling.ExpenseService
	ledgerService     *appbilling.LedgerService
	config            BillingSchedulerConfig
	logger            *zap.Logger

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
}

// NewBillingScheduler creates a new billing scheduler
func NewBillingScheduler(
	collectionService *appcollection.CollectionService,
	expenseService *appbilling.ExpenseService,
	ledgerService *appbilling.LedgerService,
	config BillingSchedulerConfig,
	logger *zap.Logger,
) *BillingScheduler {
	return &BillingScheduler{
		collectionService: collectionService,
		expenseService:    expenseService,
		ledgerService:     ledgerService,
		config:            config,
		logger:            logger,
	}
}

// Start starts the scheduler loops
func (s *BillingScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	if !s.config.Enabled {
		s.mu.Unlock()
		s.logger.Info("Billing scheduler is disabled")
		return nil
	}
	s.isRunning = true
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(3)
	go s.runLoop(ctx, "collection_scan", s.config.CollectionInterval, s.runCollectionScan)
	go s.runLoop(ctx, "recurring_expenses", s.config.RecurringInterval, s.runRecurringExpenses)
	go s.runLoop(ctx, "subscription_billing", s.config.SubscriptionInterval, s.runSubscriptionBilling)

	s.logger.Info("Billing scheduler started",
		zap.Duration("collection_interval", s.config.CollectionInterval),
		zap.Duration("recurring_interval", s.config.RecurringInterval),
		zap.Duration("subscription_interval", s.config.SubscriptionInterval),
	)

	return nil
}

// Stop gracefully stops the scheduler
func (s *BillingScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Billing scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Billing scheduler stop timed out")
		return ctx.Err()
	}
}

// IsRunning returns whether the scheduler is running
func (s *BillingScheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isRunning
}

// TriggerCollectionScan runs an immediate debt-collection scan
func (s *BillingScheduler) TriggerCollectionScan(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return ErrSchedulerNotRunning
	}
	s.wg.Add(1)
	s.mu.Unlock()

	s.logger.Info("Triggering immediate collection scan")

	go func() {
		defer s.wg.Done()
		s.runCollectionScan(ctx)
	}()

	return nil
}

// runLoop runs a job on a fixed interval until the context is canceled.
// The first run happens one interval after start, not immediately, so a
// rolling restart does not fire every job at once.
func (s *BillingScheduler) runLoop(ctx context.Context, name string, interval time.Duration, job func(ctx context.Context)) {
	defer s.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Debug("Scheduler loop stopping", zap.String("job", name))
			return
		case <-ticker.C:
			job(ctx)
		}
	}
}

// runCollectionScan executes the debt-collection scan
func (s *BillingScheduler) runCollectionScan(ctx context.Context) {
	jobCtx, cancel := context.WithTimeout(ctx, s.config.JobTimeout)
	defer cancel()

	startTime := time.Now()
	result, err := s.collectionService.ProcessCollections(jobCtx, startTime)
	duration := time.Since(startTime)

	if err != nil {
		s.logger.Error("Collection scan failed",
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return
	}

	s.logger.Info("Collection scan completed",
		zap.Duration("duration", duration),
		zap.Int("processed", result.ProcessedCount),
		zap.Int("actions_triggered", result.ActionsTriggered),
	)
}

// runRecurringExpenses materializes due recurring expense occurrences
func (s *BillingScheduler) runRecurringExpenses(ctx context.Context) {
	jobCtx, cancel := context.WithTimeout(ctx, s.config.JobTimeout)
	defer cancel()

	startTime := time.Now()
	created, err := s.expenseService.MaterializeRecurring(jobCtx, startTime)
	duration := time.Since(startTime)

	if err != nil {
		s.logger.Error("Recurring expense materialization failed",
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return
	}

	s.logger.Info("Recurring expense materialization completed",
		zap.Duration("duration", duration),
		zap.Int("instances_created", created),
	)
}

// runSubscriptionBilling bills the current period's subscription dues
func (s *BillingScheduler) runSubscriptionBilling(ctx context.Context) {
	jobCtx, cancel := context.WithTimeout(ctx, s.config.JobTimeout)
	defer cancel()

	startTime := time.Now()
	billed, err := s.ledgerService.BillSubscriptions(jobCtx, startTime)
	duration := time.Since(startTime)

	if err != nil {
		s.logger.Error("Subscription billing failed",
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return
	}

	s.logger.Info("Subscription billing completed",
		zap.Duration("duration", duration),
		zap.Int("dues_created", billed),
	)
}
