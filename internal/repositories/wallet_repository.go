package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"spacesBack/internal/models"
)

func scanWallet(row *sql.Row, hostID int64) (models.Wallet, error) {
	w := models.Wallet{HostID: hostID}
	err := row.Scan(&w.PointsBalance, &w.CashBalance, &w.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Wallet{HostID: hostID}, nil
	}
	return w, err
}

func (s *AutoQuoteStore) GetWallet(ctx context.Context, hostID int64) (models.Wallet, error) {
	return scanWallet(s.DB.QueryRowContext(ctx, `SELECT points_balance, cash_balance, updated_at FROM host_wallets WHERE host_id = ?`, hostID), hostID)
}

// ListLedger returns entries newest first. A non-positive limit returns all.
func (s *AutoQuoteStore) ListLedger(ctx context.Context, hostID int64, limit, offset int) ([]models.LedgerEntry, error) {
	query := `SELECT id, host_id, kind, fund_type, amount, balance_after, reason, quote_id, created_at FROM wallet_ledger WHERE host_id = ? ORDER BY seq DESC`
	args := []interface{}{hostID}
	if limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, limit, offset)
	}
	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.LedgerEntry
	for rows.Next() {
		var (
			e       models.LedgerEntry
			kind    string
			fund    string
			quoteID sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.HostID, &kind, &fund, &e.Amount, &e.BalanceAfter, &e.Reason, &quoteID, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Kind = models.LedgerKind(kind)
		e.FundType = models.FundType(fund)
		e.QuoteID = quoteID.String
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (t *autoQuoteTx) Wallet(ctx context.Context, hostID int64) (models.Wallet, error) {
	if hostID != t.hostID {
		return models.Wallet{}, fmt.Errorf("%w: wallet of host %d read inside transaction of host %d", models.ErrInvariantViolation, hostID, t.hostID)
	}
	return scanWallet(t.tx.QueryRowContext(ctx, `SELECT points_balance, cash_balance, updated_at FROM host_wallets WHERE host_id = ? FOR UPDATE`, hostID), hostID)
}

func (t *autoQuoteTx) SaveWallet(ctx context.Context, w models.Wallet) error {
	if w.PointsBalance < 0 || w.CashBalance < 0 {
		return fmt.Errorf("%w: negative balance for host %d", models.ErrInvariantViolation, w.HostID)
	}
	_, err := t.tx.ExecContext(ctx, `UPDATE host_wallets SET points_balance = ?, cash_balance = ?, updated_at = ? WHERE host_id = ?`,
		w.PointsBalance, w.CashBalance, w.UpdatedAt, w.HostID)
	return err
}

func (t *autoQuoteTx) AppendLedger(ctx context.Context, e models.LedgerEntry) error {
	var quoteID, refundKey interface{}
	if e.QuoteID != "" {
		quoteID = e.QuoteID
		if e.Kind == models.LedgerRefund {
			refundKey = e.QuoteID
		}
	}
	_, err := t.tx.ExecContext(ctx, `INSERT INTO wallet_ledger (id, host_id, kind, fund_type, amount, balance_after, reason, quote_id, refund_key, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.HostID, e.Kind, e.FundType, e.Amount, e.BalanceAfter, e.Reason, quoteID, refundKey, e.CreatedAt)
	if isDuplicateKeyError(err) && refundKey != nil {
		return models.ErrAlreadyRefunded
	}
	return err
}

func (t *autoQuoteTx) HasRefund(ctx context.Context, quoteID string) (bool, error) {
	var n int
	if err := t.tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM wallet_ledger WHERE refund_key = ?`, quoteID).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}
