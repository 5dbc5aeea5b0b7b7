package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"spacesBack/internal/autoquote/quota"
	"spacesBack/internal/autoquote/store"
	"spacesBack/internal/autoquote/timeutil"
	"spacesBack/internal/models"
)

var ErrInvalidInput = errors.New("services: invalid input")

// AutoQuoteService manages the host-facing settings of the engine: rules,
// templates, usage counters, intake of new requests and device tokens.
type AutoQuoteService struct {
	Store store.Store
	Quota *quota.Governor
	Clock timeutil.Clock
}

// GetConfig returns the stored config or the defaults for a host that never
// saved one.
func (s *AutoQuoteService) GetConfig(ctx context.Context, hostID int64) (models.AutoQuoteConfig, error) {
	cfg, err := s.Store.GetConfig(ctx, hostID)
	if errors.Is(err, models.ErrNotFound) {
		return models.DefaultAutoQuoteConfig(hostID), nil
	}
	return cfg, err
}

func (s *AutoQuoteService) SaveConfig(ctx context.Context, cfg models.AutoQuoteConfig) (models.AutoQuoteConfig, error) {
	if cfg.Conditions.PeopleRange == (models.PeopleRange{}) {
		cfg.Conditions.PeopleRange = models.PeopleRange{Min: models.DefaultPeopleMin, Max: models.DefaultPeopleMax}
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return models.AutoQuoteConfig{}, err
	}
	if cfg.Enabled {
		if _, err := s.Store.GetTemplate(ctx, cfg.HostID, cfg.TemplateID); err != nil {
			return models.AutoQuoteConfig{}, err
		}
	}
	cfg.UpdatedAt = s.Clock.Now()
	if err := s.Store.SaveConfig(ctx, cfg); err != nil {
		return models.AutoQuoteConfig{}, err
	}
	return cfg, nil
}

func (s *AutoQuoteService) GetTemplate(ctx context.Context, hostID int64, id string) (models.QuoteTemplate, error) {
	return s.Store.GetTemplate(ctx, hostID, id)
}

func (s *AutoQuoteService) SaveTemplate(ctx context.Context, t models.QuoteTemplate) (models.QuoteTemplate, error) {
	t.ID = strings.TrimSpace(t.ID)
	t.Name = strings.TrimSpace(t.Name)
	if t.ID == "" || t.Name == "" {
		return models.QuoteTemplate{}, fmt.Errorf("%w: template id and name are required", ErrInvalidInput)
	}
	if t.Price < 0 {
		return models.QuoteTemplate{}, fmt.Errorf("%w: price must not be negative", ErrInvalidInput)
	}
	for _, it := range t.Items {
		if it.Price < 0 {
			return models.QuoteTemplate{}, fmt.Errorf("%w: item %q has negative price", ErrInvalidInput, it.Name)
		}
	}
	if err := s.Store.SaveTemplate(ctx, t); err != nil {
		return models.QuoteTemplate{}, err
	}
	return t, nil
}

// Usage returns today's counter in the engine timezone.
func (s *AutoQuoteService) Usage(ctx context.Context, hostID int64) (models.DailyUsage, error) {
	return s.Quota.Usage(ctx, s.Store, hostID)
}

// SubmitRequest queues a guest request for the dispatcher.
func (s *AutoQuoteService) SubmitRequest(ctx context.Context, r models.Request) (models.Request, error) {
	r.Region = strings.TrimSpace(r.Region)
	r.Purpose = strings.TrimSpace(r.Purpose)
	if r.GuestID <= 0 || r.Region == "" || r.Date.IsZero() {
		return models.Request{}, fmt.Errorf("%w: guest, region and date are required", ErrInvalidInput)
	}
	if r.PeopleCount <= 0 {
		return models.Request{}, fmt.Errorf("%w: people count must be positive", ErrInvalidInput)
	}
	now := s.Clock.Now()
	// Weekday and time slot are read from Date, so it must be in engine time.
	r.Date = r.Date.In(now.Location())
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = now
	}
	if err := s.Store.SaveRequest(ctx, r); err != nil {
		return models.Request{}, err
	}
	return r, nil
}

func (s *AutoQuoteService) RegisterDeviceToken(ctx context.Context, userID int64, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return fmt.Errorf("%w: token is required", ErrInvalidInput)
	}
	return s.Store.SaveDeviceToken(ctx, models.DeviceToken{UserID: userID, Token: token})
}
