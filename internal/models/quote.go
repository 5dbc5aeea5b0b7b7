package models

import "time"

// QuoteStatus is a state of the quote lifecycle.
type QuoteStatus string

const (
	QuoteSent     QuoteStatus = "Sent"
	QuoteViewed   QuoteStatus = "Viewed"
	QuoteModified QuoteStatus = "Modified"
	QuoteAccepted QuoteStatus = "Accepted"
	QuoteRejected QuoteStatus = "Rejected"
	QuoteExpired  QuoteStatus = "Expired"
)

// QuoteItem is one priced line of a quote.
type QuoteItem struct {
	Name  string `json:"name"`
	Price int64  `json:"price"`
}

// Quote is a host's price offer for a guest request.
type Quote struct {
	ID            string      `json:"id"`
	RequestID     string      `json:"request_id"`
	HostID        int64       `json:"host_id"`
	GuestID       int64       `json:"guest_id"`
	SpaceName     string      `json:"space_name"`
	Price         int64       `json:"price"`
	Items         []QuoteItem `json:"items"`
	Description   string      `json:"description"`
	Cost          int64       `json:"cost"`
	IsAutoQuote   bool        `json:"is_auto_quote"`
	Status        QuoteStatus `json:"status"`
	CreatedAt     time.Time   `json:"created_at"`
	// SentAt is the last time the quote reached the guest, on create or resend.
	SentAt        time.Time   `json:"sent_at"`
	ViewedAt      *time.Time  `json:"viewed_at,omitempty"`
	// FirstViewedAt survives a resend; a quote with one is never refunded.
	FirstViewedAt *time.Time  `json:"first_viewed_at,omitempty"`
	ModifiedAt    *time.Time  `json:"modified_at,omitempty"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

// Clone returns a copy that shares no slices or pointers with q.
func (q Quote) Clone() Quote {
	out := q
	out.Items = append([]QuoteItem(nil), q.Items...)
	out.ViewedAt = cloneTime(q.ViewedAt)
	out.FirstViewedAt = cloneTime(q.FirstViewedAt)
	out.ModifiedAt = cloneTime(q.ModifiedAt)
	return out
}

// MarkViewed stamps a view at now and keeps the first one.
func (q *Quote) MarkViewed(now time.Time) {
	q.ViewedAt = &now
	if q.FirstViewedAt == nil {
		first := now
		q.FirstViewedAt = &first
	}
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

// QuoteChanges is a host edit of a sent quote. Nil fields are left as is.
type QuoteChanges struct {
	SpaceName   *string     `json:"space_name,omitempty"`
	Price       *int64      `json:"price,omitempty"`
	Items       []QuoteItem `json:"items,omitempty"`
	Description *string     `json:"description,omitempty"`
}

// QuoteTemplate is a host-authored quote blueprint used for auto-quotes.
type QuoteTemplate struct {
	ID          string      `json:"id"`
	HostID      int64       `json:"host_id"`
	Name        string      `json:"name"`
	Price       int64       `json:"price"`
	Description string      `json:"description"`
	Items       []QuoteItem `json:"items"`
}
