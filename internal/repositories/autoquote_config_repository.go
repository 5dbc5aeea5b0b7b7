package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"spacesBack/internal/models"
)

const configColumns = `host_id, enabled, template_id, conditions, max_daily_quotes, max_daily_spend, updated_at`

func scanConfig(scanner interface{ Scan(dest ...any) error }) (models.AutoQuoteConfig, error) {
	var (
		cfg        models.AutoQuoteConfig
		conditions []byte
	)
	if err := scanner.Scan(&cfg.HostID, &cfg.Enabled, &cfg.TemplateID, &conditions, &cfg.Limits.MaxDailyQuotes, &cfg.Limits.MaxDailySpend, &cfg.UpdatedAt); err != nil {
		return models.AutoQuoteConfig{}, err
	}
	if len(conditions) > 0 {
		if err := json.Unmarshal(conditions, &cfg.Conditions); err != nil {
			return models.AutoQuoteConfig{}, fmt.Errorf("decode conditions of host %d: %w", cfg.HostID, err)
		}
	}
	return cfg, nil
}

func (s *AutoQuoteStore) GetConfig(ctx context.Context, hostID int64) (models.AutoQuoteConfig, error) {
	cfg, err := scanConfig(s.DB.QueryRowContext(ctx, `SELECT `+configColumns+` FROM autoquote_configs WHERE host_id = ?`, hostID))
	if errors.Is(err, sql.ErrNoRows) {
		return models.AutoQuoteConfig{}, models.ErrNotFound
	}
	return cfg, err
}

func (s *AutoQuoteStore) SaveConfig(ctx context.Context, cfg models.AutoQuoteConfig) error {
	conditions, err := json.Marshal(cfg.Conditions)
	if err != nil {
		return err
	}
	_, err = s.DB.ExecContext(ctx, `INSERT INTO autoquote_configs (`+configColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE enabled = VALUES(enabled), template_id = VALUES(template_id), conditions = VALUES(conditions),
			max_daily_quotes = VALUES(max_daily_quotes), max_daily_spend = VALUES(max_daily_spend), updated_at = VALUES(updated_at)`,
		cfg.HostID, cfg.Enabled, cfg.TemplateID, conditions, cfg.Limits.MaxDailyQuotes, cfg.Limits.MaxDailySpend, cfg.UpdatedAt)
	return err
}

func (s *AutoQuoteStore) ListEnabledConfigs(ctx context.Context) ([]models.AutoQuoteConfig, error) {
	rows, err := s.DB.QueryContext(ctx, `SELECT `+configColumns+` FROM autoquote_configs WHERE enabled = 1 ORDER BY host_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var configs []models.AutoQuoteConfig
	for rows.Next() {
		cfg, err := scanConfig(rows)
		if err != nil {
			return nil, err
		}
		configs = append(configs, cfg)
	}
	return configs, rows.Err()
}

func (s *AutoQuoteStore) GetTemplate(ctx context.Context, hostID int64, templateID string) (models.QuoteTemplate, error) {
	var (
		t     models.QuoteTemplate
		items []byte
	)
	err := s.DB.QueryRowContext(ctx, `SELECT id, host_id, name, price, description, items FROM quote_templates WHERE host_id = ? AND id = ?`, hostID, templateID).
		Scan(&t.ID, &t.HostID, &t.Name, &t.Price, &t.Description, &items)
	if errors.Is(err, sql.ErrNoRows) {
		return models.QuoteTemplate{}, models.ErrTemplateNotFound
	}
	if err != nil {
		return models.QuoteTemplate{}, err
	}
	if len(items) > 0 {
		if err := json.Unmarshal(items, &t.Items); err != nil {
			return models.QuoteTemplate{}, fmt.Errorf("decode template items: %w", err)
		}
	}
	return t, nil
}

func (s *AutoQuoteStore) SaveTemplate(ctx context.Context, t models.QuoteTemplate) error {
	items, err := encodeItems(t.Items)
	if err != nil {
		return err
	}
	_, err = s.DB.ExecContext(ctx, `INSERT INTO quote_templates (id, host_id, name, price, description, items) VALUES (?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE name = VALUES(name), price = VALUES(price), description = VALUES(description), items = VALUES(items)`,
		t.ID, t.HostID, t.Name, t.Price, t.Description, items)
	return err
}
