package repositories

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"spacesBack/internal/models"
)

func appendAudit(ctx context.Context, db dbtx, e models.AuditLogEntry) error {
	var quoteID interface{}
	if e.QuoteID != "" {
		quoteID = e.QuoteID
	}
	_, err := db.ExecContext(ctx, `INSERT INTO autoquote_audit (id, host_id, request_id, quote_id, outcome, reason_code, cost, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.HostID, e.RequestID, quoteID, e.Outcome, e.ReasonCode, e.Cost, e.CreatedAt)
	return err
}

func (s *AutoQuoteStore) AppendAudit(ctx context.Context, e models.AuditLogEntry) error {
	return appendAudit(ctx, s.DB, e)
}

func (t *autoQuoteTx) AppendAudit(ctx context.Context, e models.AuditLogEntry) error {
	return appendAudit(ctx, t.tx, e)
}

// ListAudit returns entries newest first.
func (s *AutoQuoteStore) ListAudit(ctx context.Context, f models.AuditFilter) ([]models.AuditLogEntry, error) {
	var (
		where []string
		args  []interface{}
	)
	if f.HostID != 0 {
		where = append(where, "host_id = ?")
		args = append(args, f.HostID)
	}
	if !f.Since.IsZero() {
		where = append(where, "created_at >= ?")
		args = append(args, f.Since)
	}
	query := `SELECT id, host_id, request_id, quote_id, outcome, reason_code, cost, created_at FROM autoquote_audit`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY seq DESC"
	if f.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, f.Limit, f.Offset)
	}

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.AuditLogEntry
	for rows.Next() {
		var (
			e       models.AuditLogEntry
			quoteID sql.NullString
			outcome string
			reason  string
		)
		if err := rows.Scan(&e.ID, &e.HostID, &e.RequestID, &quoteID, &outcome, &reason, &e.Cost, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.QuoteID = quoteID.String
		e.Outcome = models.Outcome(outcome)
		e.ReasonCode = models.ReasonCode(reason)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *AutoQuoteStore) DispatchVelocity(ctx context.Context, since time.Time) ([]models.HostVelocity, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT host_id,
		       COUNT(*),
		       COALESCE(SUM(outcome = ?), 0),
		       COALESCE(SUM(CASE WHEN outcome = ? THEN cost ELSE 0 END), 0)
		FROM autoquote_audit
		WHERE created_at >= ?
		GROUP BY host_id
		ORDER BY host_id`, models.OutcomeDispatched, models.OutcomeDispatched, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.HostVelocity
	for rows.Next() {
		var v models.HostVelocity
		if err := rows.Scan(&v.HostID, &v.Attempts, &v.Dispatched, &v.Spend); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
