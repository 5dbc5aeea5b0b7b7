package match

import (
	"testing"
	"time"

	"spacesBack/internal/models"
)

func baseConfig() models.AutoQuoteConfig {
	cfg := models.DefaultAutoQuoteConfig(1)
	cfg.Enabled = true
	cfg.TemplateID = "tpl"
	return cfg
}

// 2026-03-02 is a Monday.
func request(hour int) models.Request {
	return models.Request{
		ID:          "r1",
		Region:      "Almaty, Bostandyk",
		Date:        time.Date(2026, 3, 2, hour, 0, 0, 0, time.UTC),
		PeopleCount: 10,
		Purpose:     "Corporate workshop",
	}
}

func TestMatch(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*models.AutoQuoteConfig, *models.Request)
		want   Result
	}{
		{"empty conditions match", func(*models.AutoQuoteConfig, *models.Request) {}, Result{IsMatch: true}},
		{"disabled", func(c *models.AutoQuoteConfig, _ *models.Request) { c.Enabled = false }, Result{Reason: models.ReasonDisabled}},
		{"region contained in request", func(c *models.AutoQuoteConfig, _ *models.Request) { c.Conditions.Regions = []string{"almaty"} }, Result{IsMatch: true}},
		{"request contained in region", func(c *models.AutoQuoteConfig, r *models.Request) {
			c.Conditions.Regions = []string{"Almaty City Center"}
			r.Region = "city center"
		}, Result{IsMatch: true}},
		{"region mismatch", func(c *models.AutoQuoteConfig, _ *models.Request) { c.Conditions.Regions = []string{"Astana"} }, Result{Reason: models.ReasonRegionMismatch}},
		{"empty request region", func(c *models.AutoQuoteConfig, r *models.Request) {
			c.Conditions.Regions = []string{"Astana"}
			r.Region = ""
		}, Result{Reason: models.ReasonRegionMismatch}},
		{"weekday match", func(c *models.AutoQuoteConfig, _ *models.Request) { c.Conditions.Weekdays = []models.Weekday{models.Monday} }, Result{IsMatch: true}},
		{"weekday mismatch", func(c *models.AutoQuoteConfig, _ *models.Request) {
			c.Conditions.Weekdays = []models.Weekday{models.Saturday, models.Sunday}
		}, Result{Reason: models.ReasonWeekdayMismatch}},
		{"time slot mismatch", func(c *models.AutoQuoteConfig, _ *models.Request) {
			c.Conditions.TimeSlots = []models.TimeSlot{models.Evening}
		}, Result{Reason: models.ReasonTimeSlotMismatch}},
		{"time slot match", func(c *models.AutoQuoteConfig, r *models.Request) {
			c.Conditions.TimeSlots = []models.TimeSlot{models.Evening}
			r.Date = r.Date.Add(9 * time.Hour)
		}, Result{IsMatch: true}},
		{"people below min", func(c *models.AutoQuoteConfig, r *models.Request) {
			c.Conditions.PeopleRange = models.PeopleRange{Min: 20, Max: 50}
		}, Result{Reason: models.ReasonPeopleMismatch}},
		{"people inclusive max", func(c *models.AutoQuoteConfig, r *models.Request) {
			c.Conditions.PeopleRange = models.PeopleRange{Min: 1, Max: 10}
		}, Result{IsMatch: true}},
		{"purpose token", func(c *models.AutoQuoteConfig, _ *models.Request) { c.Conditions.Purposes = []string{"WORKSHOP"} }, Result{IsMatch: true}},
		{"purpose mismatch", func(c *models.AutoQuoteConfig, _ *models.Request) { c.Conditions.Purposes = []string{"wedding"} }, Result{Reason: models.ReasonPurposeMismatch}},
		{"region checked before people", func(c *models.AutoQuoteConfig, r *models.Request) {
			c.Conditions.Regions = []string{"Astana"}
			r.PeopleCount = 1000
		}, Result{Reason: models.ReasonRegionMismatch}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, req := baseConfig(), request(10)
			tt.mutate(&cfg, &req)
			if got := Match(req, cfg); got != tt.want {
				t.Fatalf("expected %+v, got %+v", tt.want, got)
			}
		})
	}
}

func TestMatchDeterministic(t *testing.T) {
	cfg, req := baseConfig(), request(10)
	cfg.Conditions.Regions = []string{"Almaty"}
	cfg.Conditions.Purposes = []string{"party"}
	first := Match(req, cfg)
	for i := 0; i < 100; i++ {
		if got := Match(req, cfg); got != first {
			t.Fatalf("iteration %d: %+v != %+v", i, got, first)
		}
	}
}
