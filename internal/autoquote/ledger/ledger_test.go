package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"spacesBack/internal/autoquote/store"
	"spacesBack/internal/autoquote/timeutil"
	"spacesBack/internal/models"
)

func newService() (*Service, *store.Memory) {
	mem := store.NewMemory(nil)
	clock := timeutil.NewFixedClock(time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC))
	return &Service{Store: mem, Ledger: New(clock)}, mem
}

func fund(t *testing.T, s *Service, points, cash int64) {
	t.Helper()
	ctx := context.Background()
	if points > 0 {
		if _, err := s.Grant(ctx, 1, points, "seed"); err != nil {
			t.Fatalf("grant: %v", err)
		}
	}
	if cash > 0 {
		if _, err := s.TopUp(ctx, 1, cash, "seed"); err != nil {
			t.Fatalf("top up: %v", err)
		}
	}
}

func debit(s *Service, amount int64) ([]models.LedgerEntry, error) {
	var entries []models.LedgerEntry
	err := s.Store.InHostTx(context.Background(), 1, func(ctx context.Context, tx store.Tx) error {
		var err error
		entries, err = s.Ledger.Debit(ctx, tx, 1, amount, "auto-quote", "q1")
		return err
	})
	return entries, err
}

func TestDebitPointsBeforeCash(t *testing.T) {
	s, _ := newService()
	fund(t, s, 500, 1000)

	entries, err := debit(s, 700)
	if err != nil {
		t.Fatalf("debit: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %+v", entries)
	}
	if entries[0].FundType != models.FundPoints || entries[0].Amount != -500 || entries[0].BalanceAfter != 0 {
		t.Fatalf("unexpected points entry %+v", entries[0])
	}
	if entries[1].FundType != models.FundCash || entries[1].Amount != -200 || entries[1].BalanceAfter != 800 {
		t.Fatalf("unexpected cash entry %+v", entries[1])
	}

	w, _ := s.Balance(context.Background(), 1)
	if w.PointsBalance != 0 || w.CashBalance != 800 {
		t.Fatalf("unexpected wallet %+v", w)
	}
	if err := s.Verify(context.Background(), 1); err != nil {
		t.Fatalf("verify: %v", err)
	}
}

func TestDebitSingleFund(t *testing.T) {
	s, _ := newService()
	fund(t, s, 1000, 0)
	entries, err := debit(s, 300)
	if err != nil {
		t.Fatalf("debit: %v", err)
	}
	if len(entries) != 1 || entries[0].FundType != models.FundPoints {
		t.Fatalf("expected one points entry, got %+v", entries)
	}
}

func TestDebitInsufficientFunds(t *testing.T) {
	s, _ := newService()
	fund(t, s, 100, 100)

	if _, err := debit(s, 201); !errors.Is(err, models.ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
	w, _ := s.Balance(context.Background(), 1)
	if w.PointsBalance != 100 || w.CashBalance != 100 {
		t.Fatalf("wallet changed after failed debit: %+v", w)
	}
	history, _ := s.History(context.Background(), 1, 10, 0)
	if len(history) != 2 {
		t.Fatalf("expected only seed entries, got %d", len(history))
	}
}

func TestInvalidAmounts(t *testing.T) {
	s, _ := newService()
	if _, err := debit(s, 0); !errors.Is(err, models.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount for debit, got %v", err)
	}
	if _, err := s.TopUp(context.Background(), 1, -5, "x"); !errors.Is(err, models.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount for top up, got %v", err)
	}
}

func TestRefundRoundTrip(t *testing.T) {
	s, _ := newService()
	fund(t, s, 0, 1000)
	if _, err := debit(s, 1000); err != nil {
		t.Fatalf("debit: %v", err)
	}

	q := models.Quote{ID: "q1", HostID: 1, Cost: 1000}
	refund := func() error {
		return s.Store.InHostTx(context.Background(), 1, func(ctx context.Context, tx store.Tx) error {
			_, err := s.Ledger.Refund(ctx, tx, q, "unread")
			return err
		})
	}
	if err := refund(); err != nil {
		t.Fatalf("refund: %v", err)
	}
	if err := refund(); !errors.Is(err, models.ErrAlreadyRefunded) {
		t.Fatalf("expected ErrAlreadyRefunded, got %v", err)
	}

	w, _ := s.Balance(context.Background(), 1)
	if w.Total() != 1000 || w.PointsBalance != 1000 {
		t.Fatalf("expected cost back in points, got %+v", w)
	}
	if err := s.Verify(context.Background(), 1); err != nil {
		t.Fatalf("verify: %v", err)
	}
}

func TestHistoryNewestFirst(t *testing.T) {
	s, _ := newService()
	fund(t, s, 10, 20)
	history, err := s.History(context.Background(), 1, 0, 0)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 2 || history[0].Kind != models.LedgerTopUp || history[1].Kind != models.LedgerGrant {
		t.Fatalf("unexpected history order: %+v", history)
	}
}
