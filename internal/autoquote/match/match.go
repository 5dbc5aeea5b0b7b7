// Package match decides whether a request satisfies a host's auto-quote rules.
package match

import (
	"strings"

	"spacesBack/internal/models"
)

// Result is the outcome of Match. Reason is empty when IsMatch is true.
type Result struct {
	IsMatch bool
	Reason  models.ReasonCode
}

func miss(reason models.ReasonCode) Result {
	return Result{Reason: reason}
}

// Match checks cfg against req. Dimensions are evaluated in a fixed order and
// the first failing one is reported. Match performs no I/O.
func Match(req models.Request, cfg models.AutoQuoteConfig) Result {
	if !cfg.Enabled {
		return miss(models.ReasonDisabled)
	}
	c := cfg.Conditions

	if len(c.Regions) > 0 && !regionMatches(req.Region, c.Regions) {
		return miss(models.ReasonRegionMismatch)
	}
	if len(c.Weekdays) > 0 && !contains(c.Weekdays, req.Weekday()) {
		return miss(models.ReasonWeekdayMismatch)
	}
	if len(c.TimeSlots) > 0 && !contains(c.TimeSlots, req.TimeSlot()) {
		return miss(models.ReasonTimeSlotMismatch)
	}
	if req.PeopleCount < c.PeopleRange.Min || req.PeopleCount > c.PeopleRange.Max {
		return miss(models.ReasonPeopleMismatch)
	}
	if len(c.Purposes) > 0 && !purposeMatches(req.Purpose, c.Purposes) {
		return miss(models.ReasonPurposeMismatch)
	}
	return Result{IsMatch: true}
}

// regionMatches accepts containment in either direction so "Almaty" matches
// "Almaty, Bostandyk district" and vice versa.
func regionMatches(region string, regions []string) bool {
	r := strings.ToLower(strings.TrimSpace(region))
	if r == "" {
		return false
	}
	for _, want := range regions {
		w := strings.ToLower(strings.TrimSpace(want))
		if w == "" {
			continue
		}
		if strings.Contains(r, w) || strings.Contains(w, r) {
			return true
		}
	}
	return false
}

func purposeMatches(purpose string, tokens []string) bool {
	p := strings.ToLower(purpose)
	for _, tok := range tokens {
		t := strings.ToLower(strings.TrimSpace(tok))
		if t != "" && strings.Contains(p, t) {
			return true
		}
	}
	return false
}

func contains[T comparable](set []T, v T) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}
