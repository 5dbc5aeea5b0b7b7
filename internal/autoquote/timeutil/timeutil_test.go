package timeutil

import (
	"testing"
	"time"
)

func TestDayUsesClockLocation(t *testing.T) {
	loc := time.FixedZone("UTC+5", 5*60*60)
	// 20:30 UTC is already the next day at UTC+5.
	utc := time.Date(2024, 3, 10, 20, 30, 0, 0, time.UTC)
	if got := Day(utc); got != "2024-03-10" {
		t.Fatalf("expected 2024-03-10 got %s", got)
	}
	if got := Day(utc.In(loc)); got != "2024-03-11" {
		t.Fatalf("expected 2024-03-11 got %s", got)
	}
}

func TestLoadLocationFallback(t *testing.T) {
	if loc := LoadLocation("No/Such_Zone"); loc != time.UTC {
		t.Fatalf("expected UTC fallback, got %v", loc)
	}
	if loc := LoadLocation(""); loc == nil {
		t.Fatal("expected default location")
	}
}

func TestFixedClock(t *testing.T) {
	start := time.Date(2024, 1, 1, 23, 59, 0, 0, time.UTC)
	c := NewFixedClock(start)
	c.Advance(2 * time.Minute)
	if got := Day(c.Now()); got != "2024-01-02" {
		t.Fatalf("expected rollover to 2024-01-02, got %s", got)
	}
}
