package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/m04kA/SMC-MarketplaceService/internal/service/settlement"
)

// Reconciler дорасчитывает платежи, по которым не пришли ни confirm, ни callback
type Reconciler struct {
	txRepo  TransactionRepository
	gateway StatusChecker
	settler Settler
	logger  Logger

	interval   time.Duration
	staleAfter time.Duration
	batch      int
	now        func() time.Time
}

func NewReconciler(
	txRepo TransactionRepository,
	gateway StatusChecker,
	settler Settler,
	logger Logger,
	interval time.Duration,
	staleAfter time.Duration,
	batch int,
) *Reconciler {
	if interval <= 0 {
		interval = time.Minute
	}
	if batch <= 0 {
		batch = 50
	}
	return &Reconciler{
		txRepo:     txRepo,
		gateway:    gateway,
		settler:    settler,
		logger:     logger,
		interval:   interval,
		staleAfter: staleAfter,
		batch:      batch,
		now:        time.Now,
	}
}

// WithClock подменяет источник времени (для тестов)
func (r *Reconciler) WithClock(now func() time.Time) *Reconciler {
	r.now = now
	return r
}

// Run сверяет платежи до отмены ctx
func (r *Reconciler) Run(ctx context.Context) {
	r.logger.Info("reconciler: started, interval=%s, stale_after=%s", r.interval, r.staleAfter)
	defer r.logger.Info("reconciler: stopped")

	runEvery(ctx, r.interval, func(ctx context.Context) {
		if _, err := r.RunOnce(ctx); err != nil && ctx.Err() == nil {
			r.logger.Error("reconciler: %v", err)
		}
	})
}

// RunOnce проверяет одну пачку зависших транзакций и возвращает число рассчитанных
func (r *Reconciler) RunOnce(ctx context.Context) (int, error) {
	stale, err := r.txRepo.ListStalePending(ctx, r.now().Add(-r.staleAfter), r.batch)
	if err != nil {
		return 0, fmt.Errorf("list stale transactions: %w", err)
	}

	settled := 0
	for _, tx := range stale {
		if ctx.Err() != nil {
			return settled, ctx.Err()
		}

		status, err := r.gateway.CheckStatus(ctx, tx.Reference)
		if err != nil {
			r.logger.Warn("reconciler: status check for transaction id=%d failed: %v", tx.ID, err)
			continue
		}

		outcome, final := status.Status.Outcome()
		if !final {
			continue
		}

		result, err := r.settler.Settle(ctx, settlement.Request{
			TransactionID: tx.ID,
			Outcome:       outcome,
			ResultCode:    status.ResultCode,
			ResultDesc:    status.ResultDesc,
			Source:        settlement.SourceReconciliation,
		})
		if err != nil {
			r.logger.Error("reconciler: failed to settle transaction id=%d: %v", tx.ID, err)
			continue
		}
		if result.Applied {
			settled++
		}
	}

	if settled > 0 {
		r.logger.Info("reconciler: settled %d of %d stale transactions", settled, len(stale))
	}
	return settled, nil
}
