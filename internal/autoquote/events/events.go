// Package events carries post-commit notifications out of the engine. The
// engine only emits; delivery belongs to the websocket hub and push sender.
package events

import (
	"context"
	"sync"
	"time"
)

const (
	QuoteSent     = "quote.sent"
	QuoteViewed   = "quote.viewed"
	QuoteModified = "quote.modified"
	QuoteAccepted = "quote.accepted"
	QuoteRejected = "quote.rejected"
	QuoteExpired  = "quote.expired"
	LedgerCharge  = "ledger.charge"
	LedgerRefund  = "ledger.refund"
)

// Event is published after the transaction that caused it has committed.
type Event struct {
	Type       string      `json:"type"`
	HostID     int64       `json:"host_id"`
	QuoteID    string      `json:"quote_id,omitempty"`
	RequestID  string      `json:"request_id,omitempty"`
	Recipients []int64     `json:"-"`
	Payload    interface{} `json:"payload,omitempty"`
	At         time.Time   `json:"at"`
}

// Publisher delivers events. Implementations must not block the caller on
// slow consumers for long and report failures through their own logging.
type Publisher interface {
	Publish(ctx context.Context, e Event)
}

// Multi fans an event out to several publishers.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, e Event) {
	for _, p := range m {
		if p != nil {
			p.Publish(ctx, e)
		}
	}
}

// Nop discards events.
type Nop struct{}

func (Nop) Publish(context.Context, Event) {}

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Publish(_ context.Context, e Event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

// Events returns a copy of everything recorded so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// OfType returns recorded events with the given type.
func (r *Recorder) OfType(typ string) []Event {
	var out []Event
	for _, e := range r.Events() {
		if e.Type == typ {
			out = append(out, e)
		}
	}
	return out
}
