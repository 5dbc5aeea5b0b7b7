// Package notify delivers auto-quote events as Firebase push notifications.
package notify

import (
	"context"
	"fmt"
	"time"

	firebase "firebase.google.com/go"
	"firebase.google.com/go/messaging"
	"google.golang.org/api/option"

	"spacesBack/internal/autoquote/events"
)

const (
	sendTimeout = 10 * time.Second
	queueSize   = 256
)

// Sender is satisfied by *messaging.Client.
type Sender interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

// TokenSource lists the push tokens registered by a user.
type TokenSource interface {
	DeviceTokens(ctx context.Context, userID int64) ([]string, error)
}

type Logger interface {
	Infof(string, ...interface{})
	Errorf(string, ...interface{})
}

// NewMessagingClient builds an FCM client from a service account file.
func NewMessagingClient(ctx context.Context, credentialsFile string) (*messaging.Client, error) {
	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, fmt.Errorf("notify: init firebase: %w", err)
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("notify: messaging client: %w", err)
	}
	return client, nil
}

// Publisher implements events.Publisher over FCM. Publish only queues the
// event; Run does the sending, so callers never wait on FCM.
type Publisher struct {
	sender Sender
	tokens TokenSource
	logger Logger
	queue  chan events.Event
}

func NewPublisher(sender Sender, tokens TokenSource, logger Logger) *Publisher {
	return &Publisher{sender: sender, tokens: tokens, logger: logger, queue: make(chan events.Event, queueSize)}
}

// Publish queues e for delivery. It drops the event when the queue is full.
func (p *Publisher) Publish(_ context.Context, e events.Event) {
	if _, _, ok := render(e); !ok {
		return
	}
	select {
	case p.queue <- e:
	default:
		p.errorf("notify: queue full, dropping %s for quote %s", e.Type, e.QuoteID)
	}
}

// Run delivers queued events until ctx is done.
func (p *Publisher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			if n := len(p.queue); n > 0 {
				p.errorf("notify: stopping with %d undelivered events", n)
			}
			return
		case e := <-p.queue:
			p.deliver(ctx, e)
		}
	}
}

func (p *Publisher) deliver(ctx context.Context, e events.Event) {
	title, body, ok := render(e)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	for _, userID := range e.Recipients {
		tokens, err := p.tokens.DeviceTokens(ctx, userID)
		if err != nil {
			p.errorf("notify: tokens for user %d: %v", userID, err)
			continue
		}
		for _, token := range tokens {
			if _, err := p.sender.Send(ctx, message(token, title, body, e)); err != nil {
				p.errorf("notify: send %s to user %d: %v", e.Type, userID, err)
			}
		}
	}
}

func message(token, title, body string, e events.Event) *messaging.Message {
	return &messaging.Message{
		Token: token,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data: map[string]string{
			"type":     e.Type,
			"quote_id": e.QuoteID,
		},
		Android: &messaging.AndroidConfig{
			Priority: "high",
			Notification: &messaging.AndroidNotification{
				ChannelID: "high_priority_channel",
			},
		},
		APNS: &messaging.APNSConfig{
			Headers: map[string]string{"apns-priority": "10"},
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{
					Alert: &messaging.ApsAlert{Title: title, Body: body},
					Sound: "default",
				},
			},
		},
	}
}

// render returns the notification text. Ledger events stay in-app only.
func render(e events.Event) (title, body string, ok bool) {
	switch e.Type {
	case events.QuoteSent:
		return "New quote", "A host sent you a quote for your request", true
	case events.QuoteModified:
		return "Quote updated", "A host updated the quote for your request", true
	case events.QuoteViewed:
		return "Quote viewed", "The guest opened your quote", true
	case events.QuoteAccepted:
		return "Quote accepted", "The guest accepted your quote", true
	case events.QuoteRejected:
		return "Quote declined", "The guest declined your quote", true
	case events.QuoteExpired:
		return "Quote expired", "Your quote was not read in time", true
	}
	return "", "", false
}

func (p *Publisher) errorf(format string, args ...interface{}) {
	if p.logger != nil {
		p.logger.Errorf(format, args...)
	}
}
