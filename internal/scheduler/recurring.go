// Package scheduler materializes recurring expense templates on a cron
// schedule, typically early on the first day of each month.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/budgetpilot/finassist/internal/findata"
	"github.com/budgetpilot/finassist/pkg/log"
)

const runTimeout = 5 * time.Minute

// Recurring drives findata.GenerateMonthlyExpenses for every active user.
// The generation itself is idempotent, so an overlapping or repeated run is
// harmless.
type Recurring struct {
	store *findata.Store
	cron  *cron.Cron
}

// NewRecurring validates the cron expression and registers the monthly run.
func NewRecurring(store *findata.Store, cronExpr string) (*Recurring, error) {
	r := &Recurring{
		store: store,
		cron:  cron.New(),
	}
	if _, err := r.cron.AddFunc(cronExpr, r.run); err != nil {
		return nil, fmt.Errorf("invalid cron expression %q: %w", cronExpr, err)
	}
	return r, nil
}

func (r *Recurring) Start() {
	r.cron.Start()
}

// Stop halts scheduling and returns a context that is done once any
// in-flight run finishes.
func (r *Recurring) Stop() context.Context {
	return r.cron.Stop()
}

func (r *Recurring) run() {
	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()
	now := time.Now()
	if err := r.RunOnce(ctx, now.Year(), now.Month()); err != nil {
		log.Error("recurring expense run failed: %v", err)
	}
}

// RunOnce generates template expenses for the given month for all active
// users. Exposed for tests and manual triggering.
func (r *Recurring) RunOnce(ctx context.Context, year int, month time.Month) error {
	userIDs, err := r.store.ListActiveUserIDs(ctx)
	if err != nil {
		return fmt.Errorf("list active users: %w", err)
	}

	for _, userID := range userIDs {
		created, err := r.store.GenerateMonthlyExpenses(ctx, userID, year, month)
		if err != nil {
			log.Error("generate monthly expenses for user %d: %v", userID, err)
			continue
		}
		if created > 0 {
			log.Info("generated %d template expenses for user %d (%d-%02d)", created, userID, year, month)
		}
	}
	return nil
}
