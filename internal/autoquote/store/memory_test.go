package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"spacesBack/internal/models"
)

var errBoom = errors.New("boom")

func TestInHostTxRollsBackOnError(t *testing.T) {
	m := NewMemory(nil)
	ctx := context.Background()

	err := m.InHostTx(ctx, 1, func(ctx context.Context, tx Tx) error {
		if err := tx.SaveWallet(ctx, models.Wallet{HostID: 1, CashBalance: 500}); err != nil {
			return err
		}
		if err := tx.InsertQuote(ctx, models.Quote{ID: "q1", HostID: 1, RequestID: "r1"}); err != nil {
			return err
		}
		if err := tx.AppendAudit(ctx, models.AuditLogEntry{ID: "a1", HostID: 1}); err != nil {
			return err
		}
		return errBoom
	})
	if !errors.Is(err, errBoom) {
		t.Fatalf("expected errBoom, got %v", err)
	}

	w, _ := m.GetWallet(ctx, 1)
	if w.CashBalance != 0 {
		t.Fatalf("wallet leaked from rolled back tx: %+v", w)
	}
	if _, err := m.GetQuote(ctx, "q1"); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("quote leaked from rolled back tx: %v", err)
	}
	audit, _ := m.ListAudit(ctx, models.AuditFilter{})
	if len(audit) != 0 {
		t.Fatalf("audit leaked from rolled back tx: %+v", audit)
	}
}

func TestInHostTxRollsBackOnCancel(t *testing.T) {
	m := NewMemory(nil)
	ctx, cancel := context.WithCancel(context.Background())

	err := m.InHostTx(ctx, 1, func(ctx context.Context, tx Tx) error {
		cancel()
		return tx.SaveWallet(ctx, models.Wallet{HostID: 1, PointsBalance: 10})
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	w, _ := m.GetWallet(context.Background(), 1)
	if w.PointsBalance != 0 {
		t.Fatalf("expected no commit after cancel, got %+v", w)
	}
}

func TestInHostTxCommits(t *testing.T) {
	m := NewMemory(nil)
	ctx := context.Background()
	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

	err := m.InHostTx(ctx, 1, func(ctx context.Context, tx Tx) error {
		if err := tx.InsertQuote(ctx, models.Quote{ID: "q1", HostID: 1, RequestID: "r1", Status: models.QuoteSent, IsAutoQuote: true, CreatedAt: now, SentAt: now}); err != nil {
			return err
		}
		room, created, err := tx.GetOrCreateRoom(ctx, models.ChatRoom{ID: "room1", QuoteID: "q1", HostID: 1})
		if err != nil || !created {
			t.Fatalf("expected new room, got created=%v err=%v", created, err)
		}
		return tx.AppendMessage(ctx, models.ChatMessage{ID: "m1", RoomID: room.ID, Kind: models.MessageKindQuoteIntro})
	})
	if err != nil {
		t.Fatalf("commit: %v", err)
	}

	q, found, err := m.FindQuote(ctx, 1, "r1")
	if err != nil || !found || q.ID != "q1" {
		t.Fatalf("expected committed quote, got %+v found=%v err=%v", q, found, err)
	}
	room, err := m.GetRoomByQuote(ctx, "q1")
	if err != nil || room.ID != "room1" {
		t.Fatalf("expected room1, got %+v err=%v", room, err)
	}
	msgs, _ := m.ListMessages(ctx, "room1")
	if len(msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(msgs))
	}
	unread, _ := m.ListUnreadBefore(ctx, now.Add(time.Hour), 10)
	if len(unread) != 1 {
		t.Fatalf("expected 1 unread quote, got %d", len(unread))
	}
}

func TestInsertQuoteDuplicate(t *testing.T) {
	m := NewMemory(nil)
	ctx := context.Background()
	insert := func(id string) error {
		return m.InHostTx(ctx, 1, func(ctx context.Context, tx Tx) error {
			return tx.InsertQuote(ctx, models.Quote{ID: id, HostID: 1, RequestID: "r1"})
		})
	}
	if err := insert("q1"); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	if err := insert("q2"); !errors.Is(err, models.ErrAlreadyQuoted) {
		t.Fatalf("expected ErrAlreadyQuoted, got %v", err)
	}
}

func TestUpdateQuoteChecksStatus(t *testing.T) {
	m := NewMemory(nil)
	ctx := context.Background()
	_ = m.InHostTx(ctx, 1, func(ctx context.Context, tx Tx) error {
		return tx.InsertQuote(ctx, models.Quote{ID: "q1", HostID: 1, RequestID: "r1", Status: models.QuoteSent})
	})

	err := m.InHostTx(ctx, 1, func(ctx context.Context, tx Tx) error {
		q, err := tx.GetQuote(ctx, "q1")
		if err != nil {
			return err
		}
		q.Status = models.QuoteAccepted
		return tx.UpdateQuote(ctx, q, models.QuoteViewed)
	})
	if !errors.Is(err, models.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestTxRejectsForeignHost(t *testing.T) {
	m := NewMemory(nil)
	err := m.InHostTx(context.Background(), 1, func(ctx context.Context, tx Tx) error {
		_, err := tx.Wallet(ctx, 2)
		return err
	})
	if !errors.Is(err, models.ErrInvariantViolation) {
		t.Fatalf("expected ErrInvariantViolation, got %v", err)
	}
}

func TestDeleteUsageBefore(t *testing.T) {
	m := NewMemory(nil)
	ctx := context.Background()
	_ = m.InHostTx(ctx, 1, func(ctx context.Context, tx Tx) error {
		for _, d := range []string{"2026-01-01", "2026-01-02", "2026-01-03"} {
			if err := tx.SaveUsage(ctx, models.DailyUsage{HostID: 1, Day: d, QuotesCount: 1}); err != nil {
				return err
			}
		}
		return nil
	})
	n, err := m.DeleteUsageBefore(ctx, "2026-01-03")
	if err != nil || n != 2 {
		t.Fatalf("expected 2 deleted, got %d err=%v", n, err)
	}
	u, _ := m.GetUsage(ctx, 1, "2026-01-03")
	if u.QuotesCount != 1 {
		t.Fatalf("expected current day kept, got %+v", u)
	}
}

func TestAuditQueries(t *testing.T) {
	m := NewMemory(nil)
	ctx := context.Background()
	base := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	entries := []models.AuditLogEntry{
		{ID: "1", HostID: 1, Outcome: models.OutcomeDispatched, Cost: 100, CreatedAt: base},
		{ID: "2", HostID: 1, Outcome: models.OutcomeSkipped, CreatedAt: base.Add(time.Minute)},
		{ID: "3", HostID: 2, Outcome: models.OutcomeDispatched, Cost: 100, CreatedAt: base.Add(2 * time.Minute)},
		{ID: "4", HostID: 1, Outcome: models.OutcomeDispatched, Cost: 100, CreatedAt: base.Add(3 * time.Minute)},
	}
	for _, e := range entries {
		_ = m.AppendAudit(ctx, e)
	}

	got, _ := m.ListAudit(ctx, models.AuditFilter{HostID: 1, Limit: 2})
	if len(got) != 2 || got[0].ID != "4" || got[1].ID != "2" {
		t.Fatalf("unexpected audit page: %+v", got)
	}

	vel, _ := m.DispatchVelocity(ctx, base.Add(30*time.Second))
	if len(vel) != 2 {
		t.Fatalf("expected 2 hosts, got %+v", vel)
	}
	if vel[0].HostID != 1 || vel[0].Attempts != 2 || vel[0].Dispatched != 1 || vel[0].Spend != 100 {
		t.Fatalf("unexpected velocity for host 1: %+v", vel[0])
	}
}

func TestPendingRequests(t *testing.T) {
	m := NewMemory(nil)
	ctx := context.Background()
	for _, id := range []string{"r1", "r2", "r3"} {
		_ = m.SaveRequest(ctx, models.Request{ID: id})
	}
	if err := m.MarkRequestProcessed(ctx, "r2", time.Now()); err != nil {
		t.Fatalf("mark: %v", err)
	}
	got, _ := m.PendingRequests(ctx, 10)
	if len(got) != 2 || got[0].ID != "r1" || got[1].ID != "r3" {
		t.Fatalf("unexpected pending: %+v", got)
	}
	if err := m.MarkRequestProcessed(ctx, "missing", time.Now()); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
