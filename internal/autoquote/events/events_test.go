package events

import (
	"context"
	"testing"
)

func TestMultiFansOut(t *testing.T) {
	var a, b Recorder
	m := Multi{&a, nil, Nop{}, &b}
	m.Publish(context.Background(), Event{Type: QuoteSent, QuoteID: "q1"})
	m.Publish(context.Background(), Event{Type: LedgerCharge})

	if len(a.Events()) != 2 || len(b.Events()) != 2 {
		t.Fatalf("expected both recorders to see 2 events, got %d and %d", len(a.Events()), len(b.Events()))
	}
	if got := a.OfType(QuoteSent); len(got) != 1 || got[0].QuoteID != "q1" {
		t.Fatalf("unexpected quote.sent events: %+v", got)
	}
}
