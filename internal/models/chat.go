package models

import "time"

// ChatRoom is the guest/host conversation attached to a quote.
type ChatRoom struct {
	ID        string    `json:"id"`
	QuoteID   string    `json:"quote_id"`
	GuestID   int64     `json:"guest_id"`
	HostID    int64     `json:"host_id"`
	CreatedAt time.Time `json:"created_at"`
}
