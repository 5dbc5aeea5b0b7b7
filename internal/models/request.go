package models

import "time"

// Request is a guest's service request as produced by intake. Date carries
// the requested local date and time.
type Request struct {
	ID          string    `json:"id"`
	GuestID     int64     `json:"guest_id"`
	Region      string    `json:"region"`
	Date        time.Time `json:"date"`
	PeopleCount int       `json:"people_count"`
	Purpose     string    `json:"purpose"`
	CreatedAt   time.Time `json:"created_at"`
}

// Weekday is derived from Date.
func (r Request) Weekday() Weekday {
	return WeekdayOf(r.Date.Weekday())
}

// TimeSlot is derived from the time of day of Date.
func (r Request) TimeSlot() TimeSlot {
	return TimeSlotOf(r.Date)
}
