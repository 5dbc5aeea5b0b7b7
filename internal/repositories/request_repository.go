package repositories

import (
	"context"
	"time"

	"spacesBack/internal/models"
)

const wallLayout = "2006-01-02 15:04:05.999999"

func (s *AutoQuoteStore) location() *time.Location {
	if s.Loc == nil {
		return time.UTC
	}
	return s.Loc
}

// SaveRequest ignores a request that was already stored. The date is written
// as a string so the driver's loc setting cannot shift its wall time.
func (s *AutoQuoteStore) SaveRequest(ctx context.Context, r models.Request) error {
	date := r.Date.In(s.location()).Format(wallLayout)
	_, err := s.DB.ExecContext(ctx, `INSERT IGNORE INTO service_requests (id, guest_id, region, date, people_count, purpose, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.GuestID, r.Region, date, r.PeopleCount, r.Purpose, r.CreatedAt)
	return err
}

// PendingRequests returns unprocessed requests oldest first.
func (s *AutoQuoteStore) PendingRequests(ctx context.Context, limit int) ([]models.Request, error) {
	rows, err := s.DB.QueryContext(ctx, `SELECT id, guest_id, region, date, people_count, purpose, created_at
		FROM service_requests WHERE processed_at IS NULL ORDER BY created_at, id LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var requests []models.Request
	for rows.Next() {
		var r models.Request
		var date time.Time
		if err := rows.Scan(&r.ID, &r.GuestID, &r.Region, &date, &r.PeopleCount, &r.Purpose, &r.CreatedAt); err != nil {
			return nil, err
		}
		r.Date = time.Date(date.Year(), date.Month(), date.Day(), date.Hour(), date.Minute(), date.Second(), date.Nanosecond(), s.location())
		requests = append(requests, r)
	}
	return requests, rows.Err()
}

func (s *AutoQuoteStore) MarkRequestProcessed(ctx context.Context, id string, at time.Time) error {
	res, err := s.DB.ExecContext(ctx, `UPDATE service_requests SET processed_at = ? WHERE id = ? AND processed_at IS NULL`, at, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		var exists int
		if err := s.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM service_requests WHERE id = ?`, id).Scan(&exists); err != nil {
			return err
		}
		if exists == 0 {
			return models.ErrNotFound
		}
	}
	return nil
}
