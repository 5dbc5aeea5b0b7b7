// Package quota enforces per-host daily quote count and spend limits.
package quota

import (
	"context"
	"fmt"

	"spacesBack/internal/autoquote/store"
	"spacesBack/internal/autoquote/timeutil"
	"spacesBack/internal/models"
)

// Result reports whether a reservation was granted. Usage is the counter
// after the reservation, or the unchanged counter when refused.
type Result struct {
	OK     bool
	Reason models.ReasonCode
	Usage  models.DailyUsage
}

// UsageReader is the read side used by dashboards.
type UsageReader interface {
	GetUsage(ctx context.Context, hostID int64, day string) (models.DailyUsage, error)
}

// Governor resolves "today" with its clock. Counters are keyed by day, so a
// new day starts from zero without an explicit reset.
type Governor struct {
	clock timeutil.Clock
}

func NewGovernor(clock timeutil.Clock) *Governor {
	return &Governor{clock: clock}
}

// Today is the current local day key.
func (g *Governor) Today() string {
	return timeutil.Day(g.clock.Now())
}

// TryReserve admits one quote of the given cost for hostID. It must run inside
// the host transaction that also debits the wallet, so a later failure rolls
// the reservation back together with the debit.
func (g *Governor) TryReserve(ctx context.Context, tx store.Tx, hostID int64, limits models.Limits, cost int64) (Result, error) {
	if cost < 0 {
		return Result{}, fmt.Errorf("quota: %w: cost %d", models.ErrInvalidAmount, cost)
	}
	day := g.Today()
	u, err := tx.Usage(ctx, hostID, day)
	if err != nil {
		return Result{}, fmt.Errorf("quota: load usage: %w", err)
	}
	if u.Day != day {
		u = models.DailyUsage{HostID: hostID, Day: day}
	}

	if u.QuotesCount >= limits.MaxDailyQuotes {
		return Result{Reason: models.ReasonDailyQuoteLimitExceeded, Usage: u}, nil
	}
	if u.Spend+cost > limits.MaxDailySpend {
		return Result{Reason: models.ReasonDailyBudgetExceeded, Usage: u}, nil
	}

	u.QuotesCount++
	u.Spend += cost
	if u.QuotesCount > limits.MaxDailyQuotes || u.Spend > limits.MaxDailySpend {
		return Result{}, fmt.Errorf("quota: %w: host %d usage %+v exceeds %+v", models.ErrInvariantViolation, hostID, u, limits)
	}
	if err := tx.SaveUsage(ctx, u); err != nil {
		return Result{}, fmt.Errorf("quota: save usage: %w", err)
	}
	return Result{OK: true, Usage: u}, nil
}

// Usage returns today's counter snapshot for hostID.
func (g *Governor) Usage(ctx context.Context, r UsageReader, hostID int64) (models.DailyUsage, error) {
	day := g.Today()
	u, err := r.GetUsage(ctx, hostID, day)
	if err != nil {
		return models.DailyUsage{}, err
	}
	u.HostID, u.Day = hostID, day
	return u, nil
}
