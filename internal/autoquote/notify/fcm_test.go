package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"firebase.google.com/go/messaging"

	"spacesBack/internal/autoquote/events"
)

type stubSender struct {
	mu    sync.Mutex
	sent  []*messaging.Message
	err   error
	block chan struct{}
}

func (s *stubSender) Send(_ context.Context, m *messaging.Message) (string, error) {
	if s.block != nil {
		<-s.block
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, m)
	return "msg-id", s.err
}

func (s *stubSender) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent)
}

type stubTokens map[int64][]string

func (s stubTokens) DeviceTokens(_ context.Context, userID int64) ([]string, error) {
	return s[userID], nil
}

type stubLogger struct{ errors int }

func (l *stubLogger) Infof(string, ...interface{})  {}
func (l *stubLogger) Errorf(string, ...interface{}) { l.errors++ }

func TestDeliverSendsToEveryToken(t *testing.T) {
	sender := &stubSender{}
	p := NewPublisher(sender, stubTokens{7: {"a", "b"}, 8: {"c"}}, nil)

	p.deliver(context.Background(), events.Event{Type: events.QuoteSent, QuoteID: "q1", Recipients: []int64{7}})

	if len(sender.sent) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(sender.sent))
	}
	if sender.sent[0].Token != "a" || sender.sent[0].Data["quote_id"] != "q1" {
		t.Fatalf("unexpected message %+v", sender.sent[0])
	}
}

func TestPublishSkipsLedgerEvents(t *testing.T) {
	p := NewPublisher(&stubSender{}, stubTokens{7: {"a"}}, nil)
	p.Publish(context.Background(), events.Event{Type: events.LedgerCharge, Recipients: []int64{7}})
	if len(p.queue) != 0 {
		t.Fatalf("expected no push for ledger events, got %d queued", len(p.queue))
	}
}

func TestDeliverLogsSendFailures(t *testing.T) {
	sender := &stubSender{err: errors.New("unregistered")}
	logger := &stubLogger{}
	p := NewPublisher(sender, stubTokens{7: {"a", "b"}}, logger)
	p.deliver(context.Background(), events.Event{Type: events.QuoteAccepted, Recipients: []int64{7}})
	if logger.errors != 2 {
		t.Fatalf("expected 2 logged failures, got %d", logger.errors)
	}
}

func TestPublishDoesNotWaitForSender(t *testing.T) {
	sender := &stubSender{block: make(chan struct{})}
	p := NewPublisher(sender, stubTokens{7: {"a"}}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go p.Run(ctx)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 3; i++ {
			p.Publish(ctx, events.Event{Type: events.QuoteSent, QuoteID: "q1", Recipients: []int64{7}})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a slow sender")
	}

	close(sender.block)
	deadline := time.Now().Add(time.Second)
	for sender.count() != 3 {
		if time.Now().After(deadline) {
			t.Fatalf("expected 3 deliveries, got %d", sender.count())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestPublishDropsWhenQueueFull(t *testing.T) {
	logger := &stubLogger{}
	p := NewPublisher(&stubSender{}, stubTokens{}, logger)
	for i := 0; i < queueSize+1; i++ {
		p.Publish(context.Background(), events.Event{Type: events.QuoteSent, Recipients: []int64{7}})
	}
	if len(p.queue) != queueSize || logger.errors != 1 {
		t.Fatalf("expected full queue and one drop, got %d queued %d errors", len(p.queue), logger.errors)
	}
}
