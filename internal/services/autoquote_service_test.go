package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"spacesBack/internal/autoquote/quota"
	"spacesBack/internal/autoquote/store"
	"spacesBack/internal/autoquote/timeutil"
	"spacesBack/internal/models"
)

func newAutoQuoteService(t *testing.T) (*AutoQuoteService, *store.Memory) {
	t.Helper()
	loc := timeutil.LoadLocation("Asia/Almaty")
	clock := timeutil.NewFixedClock(time.Date(2026, 3, 2, 10, 0, 0, 0, loc))
	st := store.NewMemory(nil)
	return &AutoQuoteService{Store: st, Quota: quota.NewGovernor(clock), Clock: clock}, st
}

func TestGetConfigDefaults(t *testing.T) {
	s, _ := newAutoQuoteService(t)
	cfg, err := s.GetConfig(context.Background(), 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Enabled || cfg.HostID != 5 {
		t.Fatalf("expected disabled default for host 5, got %+v", cfg)
	}
	if cfg.Limits.MaxDailyQuotes != 10 || cfg.Limits.MaxDailySpend != 10000 {
		t.Fatalf("unexpected default limits %+v", cfg.Limits)
	}
}

func TestSaveConfig(t *testing.T) {
	ctx := context.Background()
	s, st := newAutoQuoteService(t)
	if err := st.SaveTemplate(ctx, models.QuoteTemplate{ID: "tpl", HostID: 5, Name: "Loft", Price: 5000}); err != nil {
		t.Fatalf("template: %v", err)
	}

	tests := []struct {
		name    string
		cfg     models.AutoQuoteConfig
		wantErr error
	}{
		{
			name: "enabled with template",
			cfg:  models.AutoQuoteConfig{HostID: 5, Enabled: true, TemplateID: "tpl", Conditions: models.Conditions{Regions: []string{" Almaty ", ""}}},
		},
		{
			name:    "missing template",
			cfg:     models.AutoQuoteConfig{HostID: 5, Enabled: true, TemplateID: "nope"},
			wantErr: models.ErrTemplateNotFound,
		},
		{
			name:    "inverted people range",
			cfg:     models.AutoQuoteConfig{HostID: 5, Conditions: models.Conditions{PeopleRange: models.PeopleRange{Min: 10, Max: 2}}},
			wantErr: models.ErrInvalidConfig,
		},
		{
			name:    "negative limit",
			cfg:     models.AutoQuoteConfig{HostID: 5, Limits: models.Limits{MaxDailyQuotes: -1}},
			wantErr: models.ErrInvalidConfig,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			saved, err := s.SaveConfig(ctx, tt.cfg)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(saved.Conditions.Regions) != 1 || saved.Conditions.Regions[0] != "Almaty" {
				t.Fatalf("regions not normalized: %+v", saved.Conditions.Regions)
			}
			if saved.Conditions.PeopleRange.Min != 1 || saved.Conditions.PeopleRange.Max != 100 {
				t.Fatalf("expected default people range, got %+v", saved.Conditions.PeopleRange)
			}
			got, err := s.GetConfig(ctx, 5)
			if err != nil || !got.Enabled {
				t.Fatalf("expected stored config, got %+v err=%v", got, err)
			}
		})
	}
}

func TestSubmitRequest(t *testing.T) {
	ctx := context.Background()
	s, st := newAutoQuoteService(t)

	if _, err := s.SubmitRequest(ctx, models.Request{GuestID: 1, Region: "Almaty"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput without date, got %v", err)
	}

	req, err := s.SubmitRequest(ctx, models.Request{GuestID: 1, Region: "Almaty", Date: time.Now(), PeopleCount: 4})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.ID == "" || req.CreatedAt.IsZero() {
		t.Fatalf("expected id and timestamp, got %+v", req)
	}
	pending, err := st.PendingRequests(ctx, 10)
	if err != nil || len(pending) != 1 || pending[0].ID != req.ID {
		t.Fatalf("expected queued request, got %+v err=%v", pending, err)
	}
}

func TestSubmitRequestUsesEngineTimezone(t *testing.T) {
	ctx := context.Background()
	s, _ := newAutoQuoteService(t)

	// Sunday 21:00 UTC is Monday 02:00 in Almaty.
	req, err := s.SubmitRequest(ctx, models.Request{GuestID: 1, Region: "Almaty", Date: time.Date(2026, 3, 8, 21, 0, 0, 0, time.UTC), PeopleCount: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.Weekday() != models.Monday || req.TimeSlot() != models.Morning {
		t.Fatalf("expected Mon/Morning, got %s/%s", req.Weekday(), req.TimeSlot())
	}
}

func TestRegisterDeviceToken(t *testing.T) {
	ctx := context.Background()
	s, st := newAutoQuoteService(t)
	if err := s.RegisterDeviceToken(ctx, 3, "  "); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if err := s.RegisterDeviceToken(ctx, 3, "tok"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	tokens, _ := st.DeviceTokens(ctx, 3)
	if len(tokens) != 1 || tokens[0] != "tok" {
		t.Fatalf("unexpected tokens %v", tokens)
	}
}
