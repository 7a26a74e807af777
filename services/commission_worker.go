package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/HSouheill/barrim_commission/logger"
	"github.com/HSouheill/barrim_commission/models"
	"golang.org/x/time/rate"
)

// TransactionQueue hands out transactions that still need commissions computed.
type TransactionQueue interface {
	// ClaimNext returns nil, nil when nothing is waiting.
	ClaimNext(ctx context.Context) (*models.Transaction, error)
	MarkProcessed(ctx context.Context, transactionID string, recordCount int) error
	// Release puts a claimed transaction back; it must not be claimed again before retryAt.
	Release(ctx context.Context, transactionID string, cause error, retryAt time.Time) error
	MarkInvalid(ctx context.Context, transactionID string, cause error) error
}

// CommissionWriter persists computed records.
type CommissionWriter interface {
	InsertPending(ctx context.Context, records []models.CommissionRecord) error
}

// Calculator is the subset of CommissionCalculator the worker needs.
type Calculator interface {
	CalculateCommission(ctx context.Context, tx models.Transaction) ([]models.CommissionRecord, error)
}

// WorkerConfig tunes the worker. Zero values take the defaults below.
type WorkerConfig struct {
	PollInterval time.Duration
	RatePerSec   float64
	Burst        int
	// MaxAttempts is how many failed runs a transaction gets before it is marked invalid.
	MaxAttempts int
	// RetryBackoff is the delay after the first failure; it doubles per attempt up to MaxRetryBackoff.
	RetryBackoff    time.Duration
	MaxRetryBackoff time.Duration
}

const (
	defaultPollInterval    = 5 * time.Second
	defaultMaxAttempts     = 10
	defaultRetryBackoff    = 30 * time.Second
	defaultMaxRetryBackoff = time.Hour
)

// CommissionWorker feeds claimed transactions through the calculator and stores the result.
type CommissionWorker struct {
	queue       TransactionQueue
	writer      CommissionWriter
	calculator  Calculator
	limiter     *rate.Limiter
	interval    time.Duration
	maxAttempts int
	backoff     time.Duration
	maxBackoff  time.Duration
	now         func() time.Time
}

func NewCommissionWorker(queue TransactionQueue, writer CommissionWriter, calculator Calculator, cfg WorkerConfig) *CommissionWorker {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaultMaxAttempts
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = defaultRetryBackoff
	}
	if cfg.MaxRetryBackoff <= 0 {
		cfg.MaxRetryBackoff = defaultMaxRetryBackoff
	}
	if cfg.MaxRetryBackoff < cfg.RetryBackoff {
		cfg.MaxRetryBackoff = cfg.RetryBackoff
	}
	limit := rate.Inf
	if cfg.RatePerSec > 0 {
		limit = rate.Limit(cfg.RatePerSec)
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}

	return &CommissionWorker{
		queue:       queue,
		writer:      writer,
		calculator:  calculator,
		limiter:     rate.NewLimiter(limit, cfg.Burst),
		interval:    cfg.PollInterval,
		maxAttempts: cfg.MaxAttempts,
		backoff:     cfg.RetryBackoff,
		maxBackoff:  cfg.MaxRetryBackoff,
		now:         time.Now,
	}
}

// Run processes transactions until ctx is cancelled. It sleeps for the poll interval
// whenever the queue is empty or the queue itself fails.
func (w *CommissionWorker) Run(ctx context.Context) error {
	log := logger.FromContext(ctx)
	log.Info("Commission worker started", "pollInterval", w.interval.String())

	for {
		if err := w.limiter.Wait(ctx); err != nil {
			return w.stopped(ctx, err)
		}

		processed, err := w.ProcessNext(ctx)
		if err != nil {
			log.Error("Commission worker iteration failed", "error", err)
		}
		if processed && err == nil {
			continue
		}

		select {
		case <-ctx.Done():
			return w.stopped(ctx, ctx.Err())
		case <-time.After(w.interval):
		}
	}
}

func (w *CommissionWorker) stopped(ctx context.Context, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
		logger.FromContext(ctx).Info("Commission worker stopped")
		return nil
	}
	return err
}

// ProcessNext handles at most one transaction. It reports whether a transaction was claimed.
// When calculation or persistence fails the transaction is released with a growing delay,
// or marked invalid once it has used up MaxAttempts.
func (w *CommissionWorker) ProcessNext(ctx context.Context) (bool, error) {
	tx, err := w.queue.ClaimNext(ctx)
	if err != nil {
		return false, fmt.Errorf("claim transaction: %w", err)
	}
	if tx == nil {
		return false, nil
	}

	log := logger.FromContext(ctx).With("transactionId", tx.ID)
	ctx = logger.WithContext(ctx, log)

	records, err := w.calculator.CalculateCommission(ctx, *tx)
	if err == nil && len(records) > 0 {
		err = w.writer.InsertPending(ctx, records)
	}
	if err != nil {
		w.giveBack(ctx, tx, err)
		return true, fmt.Errorf("process transaction %s: %w", tx.ID, err)
	}

	if err := w.queue.MarkProcessed(ctx, tx.ID, len(records)); err != nil {
		return true, fmt.Errorf("mark transaction %s processed: %w", tx.ID, err)
	}

	log.Info("Commission records created", "count", len(records), "amount", tx.Amount.String(), "currency", tx.Currency)
	return true, nil
}

func (w *CommissionWorker) giveBack(ctx context.Context, tx *models.Transaction, cause error) {
	log := logger.FromContext(ctx)

	if tx.Attempts >= w.maxAttempts {
		log.Error("Giving up on transaction", "attempts", tx.Attempts, "error", cause)
		if err := w.queue.MarkInvalid(ctx, tx.ID, cause); err != nil {
			log.Error("Failed to mark transaction invalid", "error", err)
		}
		return
	}

	retryAt := w.now().Add(w.retryDelay(tx.Attempts))
	if err := w.queue.Release(ctx, tx.ID, cause, retryAt); err != nil {
		log.Error("Failed to release transaction", "error", err)
		return
	}
	log.Warn("Transaction released for retry", "attempts", tx.Attempts, "retryAt", retryAt)
}

// retryDelay is RetryBackoff doubled for every attempt after the first, capped at MaxRetryBackoff.
func (w *CommissionWorker) retryDelay(attempts int) time.Duration {
	delay := w.backoff
	for i := 1; i < attempts && delay < w.maxBackoff; i++ {
		delay *= 2
	}
	return min(delay, w.maxBackoff)
}
