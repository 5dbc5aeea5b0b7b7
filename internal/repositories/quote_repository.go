package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"spacesBack/internal/models"
)

const quoteColumns = `id, request_id, host_id, guest_id, space_name, price, items, description, cost, is_auto_quote, status, created_at, sent_at, viewed_at, first_viewed_at, modified_at, updated_at`

func scanQuote(scanner interface{ Scan(dest ...any) error }) (models.Quote, error) {
	var (
		q        models.Quote
		items    []byte
		status   string
		viewed   sql.NullTime
		first    sql.NullTime
		modified sql.NullTime
	)
	err := scanner.Scan(&q.ID, &q.RequestID, &q.HostID, &q.GuestID, &q.SpaceName, &q.Price, &items, &q.Description, &q.Cost, &q.IsAutoQuote, &status, &q.CreatedAt, &q.SentAt, &viewed, &first, &modified, &q.UpdatedAt)
	if err != nil {
		return models.Quote{}, err
	}
	if len(items) > 0 {
		if err := json.Unmarshal(items, &q.Items); err != nil {
			return models.Quote{}, fmt.Errorf("decode quote items: %w", err)
		}
	}
	q.Status = models.QuoteStatus(status)
	if viewed.Valid {
		t := viewed.Time
		q.ViewedAt = &t
	}
	if first.Valid {
		t := first.Time
		q.FirstViewedAt = &t
	}
	if modified.Valid {
		t := modified.Time
		q.ModifiedAt = &t
	}
	return q, nil
}

func nullTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return *t
}

func encodeItems(items []models.QuoteItem) ([]byte, error) {
	if items == nil {
		items = []models.QuoteItem{}
	}
	return json.Marshal(items)
}

func getQuote(ctx context.Context, db dbtx, id string, forUpdate bool) (models.Quote, error) {
	query := `SELECT ` + quoteColumns + ` FROM quotes WHERE id = ?`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	q, err := scanQuote(db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Quote{}, models.ErrNotFound
	}
	return q, err
}

func findQuote(ctx context.Context, db dbtx, hostID int64, requestID string) (models.Quote, bool, error) {
	q, err := scanQuote(db.QueryRowContext(ctx, `SELECT `+quoteColumns+` FROM quotes WHERE host_id = ? AND request_id = ?`, hostID, requestID))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Quote{}, false, nil
	}
	if err != nil {
		return models.Quote{}, false, err
	}
	return q, true, nil
}

func (s *AutoQuoteStore) GetQuote(ctx context.Context, id string) (models.Quote, error) {
	return getQuote(ctx, s.DB, id, false)
}

func (s *AutoQuoteStore) FindQuote(ctx context.Context, hostID int64, requestID string) (models.Quote, bool, error) {
	return findQuote(ctx, s.DB, hostID, requestID)
}

func (s *AutoQuoteStore) ListUnreadBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.Quote, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.DB.QueryContext(ctx, `SELECT `+quoteColumns+` FROM quotes
		WHERE status = ? AND is_auto_quote = 1 AND first_viewed_at IS NULL AND sent_at < ?
		ORDER BY sent_at LIMIT ?`, models.QuoteSent, cutoff, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var quotes []models.Quote
	for rows.Next() {
		q, err := scanQuote(rows)
		if err != nil {
			return nil, err
		}
		quotes = append(quotes, q)
	}
	return quotes, rows.Err()
}

func (s *AutoQuoteStore) GetRoomByQuote(ctx context.Context, quoteID string) (models.ChatRoom, error) {
	return getRoomByQuote(ctx, s.DB, quoteID)
}

func getRoomByQuote(ctx context.Context, db dbtx, quoteID string) (models.ChatRoom, error) {
	var room models.ChatRoom
	err := db.QueryRowContext(ctx, `SELECT id, quote_id, guest_id, host_id, created_at FROM quote_chat_rooms WHERE quote_id = ?`, quoteID).
		Scan(&room.ID, &room.QuoteID, &room.GuestID, &room.HostID, &room.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.ChatRoom{}, models.ErrNotFound
	}
	return room, err
}

func (s *AutoQuoteStore) ListMessages(ctx context.Context, roomID string) ([]models.ChatMessage, error) {
	rows, err := s.DB.QueryContext(ctx, `SELECT id, room_id, sender_id, kind, text, created_at FROM quote_chat_messages WHERE room_id = ? ORDER BY created_at`, roomID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []models.ChatMessage
	for rows.Next() {
		var m models.ChatMessage
		if err := rows.Scan(&m.ID, &m.RoomID, &m.SenderID, &m.Kind, &m.Text, &m.CreatedAt); err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

func (t *autoQuoteTx) FindQuote(ctx context.Context, hostID int64, requestID string) (models.Quote, bool, error) {
	return findQuote(ctx, t.tx, hostID, requestID)
}

func (t *autoQuoteTx) GetQuote(ctx context.Context, id string) (models.Quote, error) {
	return getQuote(ctx, t.tx, id, true)
}

func (t *autoQuoteTx) InsertQuote(ctx context.Context, q models.Quote) error {
	items, err := encodeItems(q.Items)
	if err != nil {
		return err
	}
	_, err = t.tx.ExecContext(ctx, `INSERT INTO quotes (`+quoteColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		q.ID, q.RequestID, q.HostID, q.GuestID, q.SpaceName, q.Price, items, q.Description, q.Cost, q.IsAutoQuote, q.Status, q.CreatedAt, q.SentAt, nullTime(q.ViewedAt), nullTime(q.FirstViewedAt), nullTime(q.ModifiedAt), q.UpdatedAt)
	if isDuplicateKeyError(err) {
		return models.ErrAlreadyQuoted
	}
	return err
}

// UpdateQuote checks the locked status explicitly; MySQL reports zero
// affected rows for no-op updates, so RowsAffected cannot tell us.
func (t *autoQuoteTx) UpdateQuote(ctx context.Context, q models.Quote, from models.QuoteStatus) error {
	var current string
	err := t.tx.QueryRowContext(ctx, `SELECT status FROM quotes WHERE id = ? FOR UPDATE`, q.ID).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return models.ErrNotFound
	}
	if err != nil {
		return err
	}
	if models.QuoteStatus(current) != from {
		return fmt.Errorf("%w: quote %s is %s, expected %s", models.ErrInvalidTransition, q.ID, current, from)
	}

	items, err := encodeItems(q.Items)
	if err != nil {
		return err
	}
	_, err = t.tx.ExecContext(ctx, `UPDATE quotes SET space_name = ?, price = ?, items = ?, description = ?, status = ?, sent_at = ?, viewed_at = ?, first_viewed_at = ?, modified_at = ?, updated_at = ? WHERE id = ?`,
		q.SpaceName, q.Price, items, q.Description, q.Status, q.SentAt, nullTime(q.ViewedAt), nullTime(q.FirstViewedAt), nullTime(q.ModifiedAt), q.UpdatedAt, q.ID)
	return err
}

func (t *autoQuoteTx) GetOrCreateRoom(ctx context.Context, room models.ChatRoom) (models.ChatRoom, bool, error) {
	res, err := t.tx.ExecContext(ctx, `INSERT IGNORE INTO quote_chat_rooms (id, quote_id, guest_id, host_id, created_at) VALUES (?, ?, ?, ?, ?)`,
		room.ID, room.QuoteID, room.GuestID, room.HostID, room.CreatedAt)
	if err != nil {
		return models.ChatRoom{}, false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return models.ChatRoom{}, false, err
	}
	if n == 1 {
		return room, true, nil
	}
	existing, err := getRoomByQuote(ctx, t.tx, room.QuoteID)
	return existing, false, err
}

func (t *autoQuoteTx) AppendMessage(ctx context.Context, m models.ChatMessage) error {
	_, err := t.tx.ExecContext(ctx, `INSERT INTO quote_chat_messages (id, room_id, sender_id, kind, text, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		m.ID, m.RoomID, m.SenderID, m.Kind, m.Text, m.CreatedAt)
	return err
}
