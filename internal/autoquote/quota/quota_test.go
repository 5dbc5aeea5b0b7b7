package quota

import (
	"context"
	"sync"
	"testing"
	"time"

	"spacesBack/internal/autoquote/store"
	"spacesBack/internal/autoquote/timeutil"
	"spacesBack/internal/models"
)

func reserve(t *testing.T, s store.Store, g *Governor, limits models.Limits, cost int64) Result {
	t.Helper()
	var res Result
	err := s.InHostTx(context.Background(), 1, func(ctx context.Context, tx store.Tx) error {
		var err error
		res, err = g.TryReserve(ctx, tx, 1, limits, cost)
		return err
	})
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}
	return res
}

func TestTryReserveLimits(t *testing.T) {
	clock := timeutil.NewFixedClock(time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC))
	g := NewGovernor(clock)
	s := store.NewMemory(nil)
	limits := models.Limits{MaxDailyQuotes: 2, MaxDailySpend: 2500}

	if res := reserve(t, s, g, limits, 1000); !res.OK || res.Usage.QuotesCount != 1 {
		t.Fatalf("first reserve: %+v", res)
	}
	if res := reserve(t, s, g, limits, 2000); res.OK || res.Reason != models.ReasonDailyBudgetExceeded {
		t.Fatalf("expected budget exceeded, got %+v", res)
	}
	if res := reserve(t, s, g, limits, 1000); !res.OK || res.Usage.Spend != 2000 {
		t.Fatalf("second reserve: %+v", res)
	}
	if res := reserve(t, s, g, limits, 1); res.OK || res.Reason != models.ReasonDailyQuoteLimitExceeded {
		t.Fatalf("expected quote limit exceeded, got %+v", res)
	}
}

func TestZeroQuotaBlocksEverything(t *testing.T) {
	g := NewGovernor(timeutil.NewFixedClock(time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)))
	s := store.NewMemory(nil)
	res := reserve(t, s, g, models.Limits{MaxDailyQuotes: 0, MaxDailySpend: 1000}, 0)
	if res.OK || res.Reason != models.ReasonDailyQuoteLimitExceeded {
		t.Fatalf("expected quote limit exceeded, got %+v", res)
	}
}

func TestDayRollover(t *testing.T) {
	loc := timeutil.LoadLocation("Asia/Almaty")
	clock := timeutil.NewFixedClock(time.Date(2026, 3, 2, 23, 59, 0, 0, loc))
	g := NewGovernor(clock)
	s := store.NewMemory(nil)
	limits := models.Limits{MaxDailyQuotes: 1, MaxDailySpend: 1000}

	if res := reserve(t, s, g, limits, 1000); !res.OK {
		t.Fatalf("first reserve refused: %+v", res)
	}
	if res := reserve(t, s, g, limits, 1000); res.OK {
		t.Fatalf("expected refusal before midnight, got %+v", res)
	}

	clock.Advance(2 * time.Minute)
	res := reserve(t, s, g, limits, 1000)
	if !res.OK || res.Usage.Day != "2026-03-03" || res.Usage.QuotesCount != 1 {
		t.Fatalf("expected fresh counter after midnight, got %+v", res)
	}

	prev, _ := s.GetUsage(context.Background(), 1, "2026-03-02")
	if prev.QuotesCount != 1 {
		t.Fatalf("previous day counter changed: %+v", prev)
	}
}

func TestConcurrentReservationsNeverOvershoot(t *testing.T) {
	g := NewGovernor(timeutil.NewFixedClock(time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)))
	s := store.NewMemory(nil)
	limits := models.Limits{MaxDailyQuotes: 5, MaxDailySpend: 1_000_000}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		granted int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.InHostTx(context.Background(), 1, func(ctx context.Context, tx store.Tx) error {
				res, err := g.TryReserve(ctx, tx, 1, limits, 100)
				if err == nil && res.OK {
					mu.Lock()
					granted++
					mu.Unlock()
				}
				return err
			})
		}()
	}
	wg.Wait()

	if granted != 5 {
		t.Fatalf("expected exactly 5 reservations, got %d", granted)
	}
	u, _ := g.Usage(context.Background(), s, 1)
	if u.QuotesCount != 5 || u.Spend != 500 {
		t.Fatalf("unexpected usage %+v", u)
	}
}
