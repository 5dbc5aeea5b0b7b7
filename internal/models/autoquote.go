package models

import (
	"fmt"
	"strings"
	"time"
)

// Weekday is the short English day name used in host match rules.
type Weekday string

const (
	Monday    Weekday = "Mon"
	Tuesday   Weekday = "Tue"
	Wednesday Weekday = "Wed"
	Thursday  Weekday = "Thu"
	Friday    Weekday = "Fri"
	Saturday  Weekday = "Sat"
	Sunday    Weekday = "Sun"
)

var weekdays = [...]Weekday{Sunday, Monday, Tuesday, Wednesday, Thursday, Friday, Saturday}

// WeekdayOf converts a stdlib weekday.
func WeekdayOf(d time.Weekday) Weekday {
	return weekdays[d]
}

// Valid reports whether w is one of Mon..Sun.
func (w Weekday) Valid() bool {
	for _, d := range weekdays {
		if d == w {
			return true
		}
	}
	return false
}

// TimeSlot buckets the requested time of day.
type TimeSlot string

const (
	Morning   TimeSlot = "Morning"
	Afternoon TimeSlot = "Afternoon"
	Evening   TimeSlot = "Evening"
)

// TimeSlotOf derives the slot from the local hour: before noon is morning,
// noon to 18:00 afternoon, the rest evening.
func TimeSlotOf(t time.Time) TimeSlot {
	switch h := t.Hour(); {
	case h < 12:
		return Morning
	case h < 18:
		return Afternoon
	default:
		return Evening
	}
}

// Valid reports whether s is a known slot.
func (s TimeSlot) Valid() bool {
	return s == Morning || s == Afternoon || s == Evening
}

const (
	DefaultPeopleMin = 1
	DefaultPeopleMax = 100
)

// PeopleRange is an inclusive head-count window.
type PeopleRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// Conditions holds the match dimensions. Empty sets mean "any".
type Conditions struct {
	Regions     []string    `json:"regions"`
	Weekdays    []Weekday   `json:"weekdays"`
	TimeSlots   []TimeSlot  `json:"time_slots"`
	PeopleRange PeopleRange `json:"people_range"`
	Purposes    []string    `json:"purposes"`
}

// Limits caps a host's daily auto-quote activity.
type Limits struct {
	MaxDailyQuotes int   `json:"max_daily_quotes"`
	MaxDailySpend  int64 `json:"max_daily_spend"`
}

// AutoQuoteConfig is the standing auto-quote configuration of one host.
type AutoQuoteConfig struct {
	HostID     int64      `json:"host_id"`
	Enabled    bool       `json:"enabled"`
	TemplateID string     `json:"template_id"`
	Conditions Conditions `json:"conditions"`
	Limits     Limits     `json:"limits"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// DefaultAutoQuoteConfig returns the disabled config a host starts with.
func DefaultAutoQuoteConfig(hostID int64) AutoQuoteConfig {
	return AutoQuoteConfig{
		HostID: hostID,
		Conditions: Conditions{
			PeopleRange: PeopleRange{Min: DefaultPeopleMin, Max: DefaultPeopleMax},
		},
		Limits: Limits{MaxDailyQuotes: 10, MaxDailySpend: 10000},
	}
}

// Normalize trims free-text tokens and drops empty ones.
func (c *AutoQuoteConfig) Normalize() {
	c.Conditions.Regions = trimTokens(c.Conditions.Regions)
	c.Conditions.Purposes = trimTokens(c.Conditions.Purposes)
	c.TemplateID = strings.TrimSpace(c.TemplateID)
}

// Validate checks the config before it is stored.
func (c AutoQuoteConfig) Validate() error {
	pr := c.Conditions.PeopleRange
	if pr.Min < 1 || pr.Max < pr.Min {
		return fmt.Errorf("%w: people range [%d,%d]", ErrInvalidConfig, pr.Min, pr.Max)
	}
	for _, d := range c.Conditions.Weekdays {
		if !d.Valid() {
			return fmt.Errorf("%w: weekday %q", ErrInvalidConfig, d)
		}
	}
	for _, s := range c.Conditions.TimeSlots {
		if !s.Valid() {
			return fmt.Errorf("%w: time slot %q", ErrInvalidConfig, s)
		}
	}
	if c.Limits.MaxDailyQuotes < 0 || c.Limits.MaxDailySpend < 0 {
		return fmt.Errorf("%w: limits must not be negative", ErrInvalidConfig)
	}
	if c.Enabled && c.TemplateID == "" {
		return fmt.Errorf("%w: template is required when enabled", ErrInvalidConfig)
	}
	return nil
}

func trimTokens(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
