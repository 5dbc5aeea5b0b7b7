// Package ledger moves funds between a host wallet and the platform. Every
// movement is an append-only entry; wallet balances are their running sum.
package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"spacesBack/internal/autoquote/store"
	"spacesBack/internal/autoquote/timeutil"
	"spacesBack/internal/models"
)

// Ledger writes entries inside host transactions.
type Ledger struct {
	clock timeutil.Clock
	newID func() string
}

func New(clock timeutil.Clock) *Ledger {
	return &Ledger{clock: clock, newID: uuid.NewString}
}

// Debit charges amount, draining points before cash. Nothing is written when
// the combined balance is short. One entry is appended per non-zero portion.
func (l *Ledger) Debit(ctx context.Context, tx store.Tx, hostID int64, amount int64, reason, quoteID string) ([]models.LedgerEntry, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("ledger: debit %d: %w", amount, models.ErrInvalidAmount)
	}
	w, err := tx.Wallet(ctx, hostID)
	if err != nil {
		return nil, fmt.Errorf("ledger: load wallet: %w", err)
	}
	if w.Total() < amount {
		return nil, models.ErrInsufficientFunds
	}

	fromPoints := min(w.PointsBalance, amount)
	fromCash := amount - fromPoints
	now := l.clock.Now()

	var entries []models.LedgerEntry
	if fromPoints > 0 {
		w.PointsBalance -= fromPoints
		entries = append(entries, l.entry(hostID, models.LedgerCharge, models.FundPoints, -fromPoints, w.PointsBalance, reason, quoteID, now))
	}
	if fromCash > 0 {
		w.CashBalance -= fromCash
		entries = append(entries, l.entry(hostID, models.LedgerCharge, models.FundCash, -fromCash, w.CashBalance, reason, quoteID, now))
	}
	if err := l.commit(ctx, tx, w, entries...); err != nil {
		return nil, err
	}
	return entries, nil
}

// Credit adds amount to one fund.
func (l *Ledger) Credit(ctx context.Context, tx store.Tx, hostID int64, amount int64, fund models.FundType, kind models.LedgerKind, reason, quoteID string) (models.LedgerEntry, error) {
	if amount <= 0 {
		return models.LedgerEntry{}, fmt.Errorf("ledger: credit %d: %w", amount, models.ErrInvalidAmount)
	}
	w, err := tx.Wallet(ctx, hostID)
	if err != nil {
		return models.LedgerEntry{}, fmt.Errorf("ledger: load wallet: %w", err)
	}
	var after int64
	switch fund {
	case models.FundPoints:
		w.PointsBalance += amount
		after = w.PointsBalance
	case models.FundCash:
		w.CashBalance += amount
		after = w.CashBalance
	default:
		return models.LedgerEntry{}, fmt.Errorf("ledger: unknown fund type %q", fund)
	}
	e := l.entry(hostID, kind, fund, amount, after, reason, quoteID, l.clock.Now())
	if err := l.commit(ctx, tx, w, e); err != nil {
		return models.LedgerEntry{}, err
	}
	return e, nil
}

// Refund returns the full cost of q to points. A quote is refunded at most once.
func (l *Ledger) Refund(ctx context.Context, tx store.Tx, q models.Quote, reason string) (models.LedgerEntry, error) {
	done, err := tx.HasRefund(ctx, q.ID)
	if err != nil {
		return models.LedgerEntry{}, fmt.Errorf("ledger: check refund: %w", err)
	}
	if done {
		return models.LedgerEntry{}, models.ErrAlreadyRefunded
	}
	return l.Credit(ctx, tx, q.HostID, q.Cost, models.FundPoints, models.LedgerRefund, reason, q.ID)
}

func (l *Ledger) entry(hostID int64, kind models.LedgerKind, fund models.FundType, amount, after int64, reason, quoteID string, now time.Time) models.LedgerEntry {
	return models.LedgerEntry{
		ID:           l.newID(),
		HostID:       hostID,
		Kind:         kind,
		FundType:     fund,
		Amount:       amount,
		BalanceAfter: after,
		Reason:       reason,
		QuoteID:      quoteID,
		CreatedAt:    now,
	}
}

func (l *Ledger) commit(ctx context.Context, tx store.Tx, w models.Wallet, entries ...models.LedgerEntry) error {
	if w.PointsBalance < 0 || w.CashBalance < 0 {
		return fmt.Errorf("ledger: %w: negative balance for host %d", models.ErrInvariantViolation, w.HostID)
	}
	w.UpdatedAt = l.clock.Now()
	if err := tx.SaveWallet(ctx, w); err != nil {
		return fmt.Errorf("ledger: save wallet: %w", err)
	}
	for _, e := range entries {
		if err := tx.AppendLedger(ctx, e); err != nil {
			return fmt.Errorf("ledger: append entry: %w", err)
		}
	}
	return nil
}
