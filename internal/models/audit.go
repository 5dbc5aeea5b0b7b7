package models

import "time"

// AuditLogEntry records one dispatch attempt.
type AuditLogEntry struct {
	ID         string     `json:"id"`
	HostID     int64      `json:"host_id"`
	RequestID  string     `json:"request_id"`
	QuoteID    string     `json:"quote_id,omitempty"`
	Outcome    Outcome    `json:"outcome"`
	ReasonCode ReasonCode `json:"reason_code"`
	Cost       int64      `json:"cost"`
	CreatedAt  time.Time  `json:"created_at"`
}

// AuditFilter narrows audit queries. Zero values are ignored.
type AuditFilter struct {
	HostID int64
	Since  time.Time
	Limit  int
	Offset int
}

// HostVelocity aggregates audit entries of one host over a window.
type HostVelocity struct {
	HostID     int64 `json:"host_id"`
	Attempts   int   `json:"attempts"`
	Dispatched int   `json:"dispatched"`
	Spend      int64 `json:"spend"`
	Flagged    bool  `json:"flagged"`
}
