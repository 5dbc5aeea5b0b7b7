package repositories

import (
	"context"
	"database/sql"
	"errors"

	"spacesBack/internal/models"
)

func (s *AutoQuoteStore) GetUsage(ctx context.Context, hostID int64, day string) (models.DailyUsage, error) {
	u := models.DailyUsage{HostID: hostID, Day: day}
	err := s.DB.QueryRowContext(ctx, `SELECT quotes_count, spend FROM autoquote_daily_usage WHERE host_id = ? AND day = ?`, hostID, day).Scan(&u.QuotesCount, &u.Spend)
	if errors.Is(err, sql.ErrNoRows) {
		return u, nil
	}
	return u, err
}

func (s *AutoQuoteStore) DeleteUsageBefore(ctx context.Context, day string) (int64, error) {
	res, err := s.DB.ExecContext(ctx, `DELETE FROM autoquote_daily_usage WHERE day < ?`, day)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (t *autoQuoteTx) Usage(ctx context.Context, hostID int64, day string) (models.DailyUsage, error) {
	u := models.DailyUsage{HostID: hostID, Day: day}
	err := t.tx.QueryRowContext(ctx, `SELECT quotes_count, spend FROM autoquote_daily_usage WHERE host_id = ? AND day = ? FOR UPDATE`, hostID, day).Scan(&u.QuotesCount, &u.Spend)
	if errors.Is(err, sql.ErrNoRows) {
		return u, nil
	}
	return u, err
}

func (t *autoQuoteTx) SaveUsage(ctx context.Context, u models.DailyUsage) error {
	_, err := t.tx.ExecContext(ctx, `INSERT INTO autoquote_daily_usage (host_id, day, quotes_count, spend) VALUES (?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE quotes_count = VALUES(quotes_count), spend = VALUES(spend)`,
		u.HostID, u.Day, u.QuotesCount, u.Spend)
	return err
}
