// Package lifecycle applies host, guest and system actions to quotes.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"spacesBack/internal/autoquote/events"
	"spacesBack/internal/autoquote/fsm"
	"spacesBack/internal/autoquote/ledger"
	"spacesBack/internal/autoquote/metrics"
	"spacesBack/internal/autoquote/store"
	"spacesBack/internal/autoquote/timeutil"
	"spacesBack/internal/models"
)

const sweepBatch = 100

type Logger interface {
	Infof(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// Service encapsulates quote lifecycle operations. Each operation runs in the
// owning host's transaction, so it never interleaves with a dispatch or a
// refund for the same host.
type Service struct {
	store        store.Store
	ledger       *ledger.Ledger
	clock        timeutil.Clock
	events       events.Publisher
	metrics      *metrics.Metrics
	logger       Logger
	refundWindow time.Duration
}

// NewService constructs a Service instance.
func NewService(st store.Store, led *ledger.Ledger, clock timeutil.Clock, pub events.Publisher, m *metrics.Metrics, logger Logger, refundWindow time.Duration) *Service {
	if pub == nil {
		pub = events.Nop{}
	}
	return &Service{store: st, ledger: led, clock: clock, events: pub, metrics: m, logger: logger, refundWindow: refundWindow}
}

type mutation func(ctx context.Context, tx store.Tx, q *models.Quote, now time.Time) error

func authorize(q models.Quote, actor fsm.Actor, actorID int64) error {
	switch actor {
	case fsm.ActorHost:
		if q.HostID != actorID {
			return models.ErrForbidden
		}
	case fsm.ActorGuest:
		if q.GuestID != actorID {
			return models.ErrForbidden
		}
	}
	return nil
}

func step(q *models.Quote, to models.QuoteStatus, actor fsm.Actor) error {
	if err := fsm.Check(q.Status, to, actor); err != nil {
		return err
	}
	q.Status = to
	return nil
}

// apply loads the quote under its host lock, lets fn mutate it and writes it
// back guarded by the status it was loaded with.
func (s *Service) apply(ctx context.Context, quoteID string, actor fsm.Actor, actorID int64, fn mutation) (models.Quote, error) {
	head, err := s.store.GetQuote(ctx, quoteID)
	if err != nil {
		return models.Quote{}, err
	}
	var out models.Quote
	err = s.store.InHostTx(ctx, head.HostID, func(ctx context.Context, tx store.Tx) error {
		cur, err := tx.GetQuote(ctx, quoteID)
		if err != nil {
			return err
		}
		if err := authorize(cur, actor, actorID); err != nil {
			return err
		}
		if fsm.Terminal(cur.Status) {
			return fmt.Errorf("%w: quote %s is %s", models.ErrInvalidTransition, cur.ID, cur.Status)
		}
		now := s.clock.Now()
		next := cur.Clone()
		if err := fn(ctx, tx, &next, now); err != nil {
			return err
		}
		next.UpdatedAt = now
		if err := tx.UpdateQuote(ctx, next, cur.Status); err != nil {
			return err
		}
		out = next
		return nil
	})
	return out, err
}

// Get returns a quote visible to userID. Admins see every quote.
func (s *Service) Get(ctx context.Context, quoteID string, userID int64, admin bool) (models.Quote, error) {
	q, err := s.store.GetQuote(ctx, quoteID)
	if err != nil {
		return models.Quote{}, err
	}
	if !admin && q.HostID != userID && q.GuestID != userID {
		return models.Quote{}, models.ErrForbidden
	}
	return q, nil
}

// MarkViewed records the guest opening a sent quote. Viewing again is a no-op.
func (s *Service) MarkViewed(ctx context.Context, quoteID string, guestID int64) (models.Quote, error) {
	q, err := s.store.GetQuote(ctx, quoteID)
	if err != nil {
		return models.Quote{}, err
	}
	if q.GuestID == guestID && q.Status == models.QuoteViewed {
		return q, nil
	}
	q, err = s.apply(ctx, quoteID, fsm.ActorGuest, guestID, func(_ context.Context, _ store.Tx, q *models.Quote, now time.Time) error {
		if err := step(q, models.QuoteViewed, fsm.ActorGuest); err != nil {
			return err
		}
		q.MarkViewed(now)
		return nil
	})
	if err != nil {
		return models.Quote{}, err
	}
	s.publish(ctx, events.QuoteViewed, q, q.HostID)
	return q, nil
}

// Edit changes a sent or viewed quote and moves it to Modified. A quote that
// is already Modified may be edited again before it is resent.
func (s *Service) Edit(ctx context.Context, quoteID string, hostID int64, ch models.QuoteChanges) (models.Quote, error) {
	if err := validateChanges(ch); err != nil {
		return models.Quote{}, err
	}
	return s.apply(ctx, quoteID, fsm.ActorHost, hostID, func(_ context.Context, _ store.Tx, q *models.Quote, now time.Time) error {
		if q.Status != models.QuoteModified {
			if err := step(q, models.QuoteModified, fsm.ActorHost); err != nil {
				return err
			}
		}
		applyChanges(q, ch)
		q.ModifiedAt = &now
		return nil
	})
}

// Resend sends a modified quote again. The guest has to view it anew; the
// refund window restarts but a quote viewed before stays non-refundable.
func (s *Service) Resend(ctx context.Context, quoteID string, hostID int64) (models.Quote, error) {
	q, err := s.apply(ctx, quoteID, fsm.ActorHost, hostID, func(_ context.Context, _ store.Tx, q *models.Quote, now time.Time) error {
		if err := step(q, models.QuoteSent, fsm.ActorHost); err != nil {
			return err
		}
		q.ViewedAt = nil
		q.SentAt = now
		return nil
	})
	if err != nil {
		return models.Quote{}, err
	}
	s.publish(ctx, events.QuoteModified, q, q.GuestID)
	return q, nil
}

// Accept books the quote. Accepting a quote the guest has not opened yet
// counts as viewing it first.
func (s *Service) Accept(ctx context.Context, quoteID string, guestID int64) (models.Quote, error) {
	q, err := s.apply(ctx, quoteID, fsm.ActorGuest, guestID, func(_ context.Context, _ store.Tx, q *models.Quote, now time.Time) error {
		if q.Status == models.QuoteSent {
			if err := step(q, models.QuoteViewed, fsm.ActorGuest); err != nil {
				return err
			}
			q.MarkViewed(now)
		}
		return step(q, models.QuoteAccepted, fsm.ActorGuest)
	})
	if err != nil {
		return models.Quote{}, err
	}
	s.publish(ctx, events.QuoteAccepted, q, q.HostID, q.GuestID)
	return q, nil
}

// Reject declines a viewed quote.
func (s *Service) Reject(ctx context.Context, quoteID string, guestID int64) (models.Quote, error) {
	q, err := s.apply(ctx, quoteID, fsm.ActorGuest, guestID, func(_ context.Context, _ store.Tx, q *models.Quote, _ time.Time) error {
		return step(q, models.QuoteRejected, fsm.ActorGuest)
	})
	if err != nil {
		return models.Quote{}, err
	}
	s.publish(ctx, events.QuoteRejected, q, q.HostID)
	return q, nil
}

// Expire moves an unread quote to Expired and refunds an auto-quote's cost
// to points in the same transaction. A quote the guest ever viewed expires
// without a refund.
func (s *Service) Expire(ctx context.Context, quoteID string) (models.Quote, *models.LedgerEntry, error) {
	var refund *models.LedgerEntry
	q, err := s.apply(ctx, quoteID, fsm.ActorSystem, 0, func(ctx context.Context, tx store.Tx, q *models.Quote, _ time.Time) error {
		if err := step(q, models.QuoteExpired, fsm.ActorSystem); err != nil {
			return err
		}
		if !q.IsAutoQuote || q.Cost <= 0 || q.FirstViewedAt != nil {
			return nil
		}
		e, err := s.ledger.Refund(ctx, tx, *q, "unread quote "+q.ID)
		if errors.Is(err, models.ErrAlreadyRefunded) {
			return nil
		}
		if err != nil {
			return err
		}
		refund = &e
		return nil
	})
	if err != nil {
		return models.Quote{}, nil, err
	}
	s.publish(ctx, events.QuoteExpired, q, q.HostID)
	if refund != nil {
		s.metrics.IncRefund()
		s.events.Publish(ctx, events.Event{
			Type:       events.LedgerRefund,
			HostID:     q.HostID,
			QuoteID:    q.ID,
			Recipients: []int64{q.HostID},
			Payload:    refund,
			At:         s.clock.Now(),
		})
	}
	return q, refund, nil
}

// ExpireUnread expires never-viewed auto-quotes whose last send is older
// than the refund window. Quotes viewed concurrently are left alone. It
// returns how many expired.
func (s *Service) ExpireUnread(ctx context.Context) (int, error) {
	cutoff := s.clock.Now().Add(-s.refundWindow)
	quotes, err := s.store.ListUnreadBefore(ctx, cutoff, sweepBatch)
	if err != nil {
		return 0, fmt.Errorf("list unread: %w", err)
	}
	expired := 0
	var errs []error
	for _, q := range quotes {
		_, refund, err := s.Expire(ctx, q.ID)
		switch {
		case err == nil:
			expired++
			if refund != nil {
				s.logger.Infof("lifecycle: quote %s expired, refunded %d to host %d", q.ID, refund.Amount, q.HostID)
			}
		case errors.Is(err, models.ErrInvalidTransition):
			continue
		case errors.Is(err, models.ErrInvariantViolation), errors.Is(err, context.Canceled):
			return expired, err
		default:
			errs = append(errs, fmt.Errorf("quote %s: %w", q.ID, err))
		}
	}
	return expired, errors.Join(errs...)
}

func (s *Service) publish(ctx context.Context, typ string, q models.Quote, recipients ...int64) {
	s.events.Publish(ctx, events.Event{
		Type:       typ,
		HostID:     q.HostID,
		QuoteID:    q.ID,
		RequestID:  q.RequestID,
		Recipients: recipients,
		Payload:    q,
		At:         s.clock.Now(),
	})
}

func validateChanges(ch models.QuoteChanges) error {
	if ch.Price != nil && *ch.Price < 0 {
		return fmt.Errorf("%w: price %d", models.ErrInvalidAmount, *ch.Price)
	}
	for _, it := range ch.Items {
		if it.Price < 0 {
			return fmt.Errorf("%w: item %q price %d", models.ErrInvalidAmount, it.Name, it.Price)
		}
	}
	return nil
}

func applyChanges(q *models.Quote, ch models.QuoteChanges) {
	if ch.SpaceName != nil {
		q.SpaceName = *ch.SpaceName
	}
	if ch.Price != nil {
		q.Price = *ch.Price
	}
	if ch.Items != nil {
		q.Items = append([]models.QuoteItem(nil), ch.Items...)
	}
	if ch.Description != nil {
		q.Description = *ch.Description
	}
}
