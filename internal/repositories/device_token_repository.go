package repositories

import (
	"context"

	"spacesBack/internal/models"
)

func (s *AutoQuoteStore) SaveDeviceToken(ctx context.Context, t models.DeviceToken) error {
	_, err := s.DB.ExecContext(ctx, `INSERT IGNORE INTO device_tokens (user_id, token) VALUES (?, ?)`, t.UserID, t.Token)
	return err
}

func (s *AutoQuoteStore) DeviceTokens(ctx context.Context, userID int64) ([]string, error) {
	rows, err := s.DB.QueryContext(ctx, `SELECT token FROM device_tokens WHERE user_id = ? ORDER BY token`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tokens []string
	for rows.Next() {
		var token string
		if err := rows.Scan(&token); err != nil {
			return nil, err
		}
		tokens = append(tokens, token)
	}
	return tokens, rows.Err()
}
