package ledger

import (
	"context"
	"fmt"

	"spacesBack/internal/autoquote/store"
	"spacesBack/internal/models"
)

const maxHistoryPage = 200

// Service exposes wallet operations that run in their own host transaction.
type Service struct {
	Store  store.Store
	Ledger *Ledger
}

// TopUp credits purchased cash.
func (s *Service) TopUp(ctx context.Context, hostID, amount int64, reason string) (models.LedgerEntry, error) {
	return s.credit(ctx, hostID, amount, models.FundCash, models.LedgerTopUp, reason)
}

// Grant credits promotional points.
func (s *Service) Grant(ctx context.Context, hostID, amount int64, reason string) (models.LedgerEntry, error) {
	return s.credit(ctx, hostID, amount, models.FundPoints, models.LedgerGrant, reason)
}

func (s *Service) credit(ctx context.Context, hostID, amount int64, fund models.FundType, kind models.LedgerKind, reason string) (models.LedgerEntry, error) {
	var entry models.LedgerEntry
	err := s.Store.InHostTx(ctx, hostID, func(ctx context.Context, tx store.Tx) error {
		var err error
		entry, err = s.Ledger.Credit(ctx, tx, hostID, amount, fund, kind, reason, "")
		return err
	})
	return entry, err
}

func (s *Service) Balance(ctx context.Context, hostID int64) (models.Wallet, error) {
	return s.Store.GetWallet(ctx, hostID)
}

// History pages entries newest first.
func (s *Service) History(ctx context.Context, hostID int64, limit, offset int) ([]models.LedgerEntry, error) {
	if limit <= 0 || limit > maxHistoryPage {
		limit = maxHistoryPage
	}
	if offset < 0 {
		offset = 0
	}
	return s.Store.ListLedger(ctx, hostID, limit, offset)
}

// Verify checks that the wallet equals the running sum of its entries and
// that every balanceAfter matches the prefix sum of its fund.
func (s *Service) Verify(ctx context.Context, hostID int64) error {
	w, err := s.Store.GetWallet(ctx, hostID)
	if err != nil {
		return err
	}
	entries, err := s.Store.ListLedger(ctx, hostID, 0, 0)
	if err != nil {
		return err
	}
	sums := map[models.FundType]int64{}
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		sums[e.FundType] += e.Amount
		if sums[e.FundType] != e.BalanceAfter {
			return fmt.Errorf("ledger: %w: entry %s balance_after %d, running sum %d", models.ErrInvariantViolation, e.ID, e.BalanceAfter, sums[e.FundType])
		}
	}
	if sums[models.FundPoints] != w.PointsBalance || sums[models.FundCash] != w.CashBalance {
		return fmt.Errorf("ledger: %w: wallet %+v does not match entries %v", models.ErrInvariantViolation, w, sums)
	}
	return nil
}
