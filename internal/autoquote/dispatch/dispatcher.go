// Package dispatch turns incoming requests into auto-quotes.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"spacesBack/internal/autoquote/events"
	"spacesBack/internal/autoquote/ledger"
	"spacesBack/internal/autoquote/match"
	"spacesBack/internal/autoquote/metrics"
	"spacesBack/internal/autoquote/quota"
	"spacesBack/internal/autoquote/store"
	"spacesBack/internal/autoquote/timeutil"
	"spacesBack/internal/models"
)

// Logger is a minimal logger interface required by dispatcher.
type Logger interface {
	Infof(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// Result is the outcome of one (request, host) attempt.
type Result struct {
	HostID  int64             `json:"host_id"`
	Outcome models.Outcome    `json:"outcome"`
	Reason  models.ReasonCode `json:"reason_code,omitempty"`
	Quote   *models.Quote     `json:"quote,omitempty"`
}

// rejection aborts the host transaction with a policy or resource outcome.
type rejection struct {
	outcome models.Outcome
	reason  models.ReasonCode
}

func (r rejection) Error() string {
	return fmt.Sprintf("%s: %s", r.outcome, r.reason)
}

type Dispatcher struct {
	store   store.Store
	quota   *quota.Governor
	ledger  *ledger.Ledger
	clock   timeutil.Clock
	events  events.Publisher
	metrics *metrics.Metrics
	logger  Logger
	cfg     Config
	newID   func() string
}

// New creates a dispatcher instance.
func New(st store.Store, gov *quota.Governor, led *ledger.Ledger, clock timeutil.Clock, pub events.Publisher, m *metrics.Metrics, logger Logger, cfg Config) *Dispatcher {
	if pub == nil {
		pub = events.Nop{}
	}
	return &Dispatcher{store: st, quota: gov, ledger: led, clock: clock, events: pub, metrics: m, logger: logger, cfg: cfg, newID: uuid.NewString}
}

// Dispatch decides whether hostID auto-quotes req. Reservation, debit, quote,
// chat room and the Dispatched audit entry commit together or not at all.
// Policy skips and resource failures are results, not errors.
func (d *Dispatcher) Dispatch(ctx context.Context, req models.Request, hostID int64, cfg models.AutoQuoteConfig) (Result, error) {
	start := time.Now()
	res, cost, err := d.dispatch(ctx, req, hostID, cfg)
	if err != nil {
		d.logger.Errorf("dispatch: request %s host %d failed: %v", req.ID, hostID, err)
		return Result{}, err
	}
	d.metrics.ObserveDispatch(string(res.Outcome), string(res.Reason), cost, time.Since(start))
	return res, nil
}

func (d *Dispatcher) dispatch(ctx context.Context, req models.Request, hostID int64, cfg models.AutoQuoteConfig) (Result, int64, error) {
	if _, found, err := d.store.FindQuote(ctx, hostID, req.ID); err != nil {
		return Result{}, 0, fmt.Errorf("find quote: %w", err)
	} else if found {
		return d.reject(ctx, req, hostID, rejection{models.OutcomeSkipped, models.ReasonAlreadyQuoted})
	}

	if m := match.Match(req, cfg); !m.IsMatch {
		return d.reject(ctx, req, hostID, rejection{models.OutcomeSkipped, m.Reason})
	}

	tpl, err := d.store.GetTemplate(ctx, hostID, cfg.TemplateID)
	if errors.Is(err, models.ErrTemplateNotFound) {
		return d.reject(ctx, req, hostID, rejection{models.OutcomeFailed, models.ReasonTemplateNotFound})
	}
	if err != nil {
		return Result{}, 0, fmt.Errorf("load template: %w", err)
	}

	cost := d.cfg.GetFlatCost()
	var (
		quote   models.Quote
		charges []models.LedgerEntry
	)
	err = d.store.InHostTx(ctx, hostID, func(ctx context.Context, tx store.Tx) error {
		if _, found, err := tx.FindQuote(ctx, hostID, req.ID); err != nil {
			return err
		} else if found {
			return rejection{models.OutcomeSkipped, models.ReasonAlreadyQuoted}
		}

		reserved, err := d.quota.TryReserve(ctx, tx, hostID, cfg.Limits, cost)
		if err != nil {
			return err
		}
		if !reserved.OK {
			return rejection{models.OutcomeSkipped, reserved.Reason}
		}

		now := d.clock.Now()
		quote = newQuote(d.newID(), req, hostID, tpl, cost, now)

		if cost > 0 {
			charges, err = d.ledger.Debit(ctx, tx, hostID, cost, "auto-quote for request "+req.ID, quote.ID)
			if errors.Is(err, models.ErrInsufficientFunds) {
				return rejection{models.OutcomeFailed, models.ReasonInsufficientFunds}
			}
			if err != nil {
				return err
			}
		}

		if err := tx.InsertQuote(ctx, quote); err != nil {
			if errors.Is(err, models.ErrAlreadyQuoted) {
				return rejection{models.OutcomeSkipped, models.ReasonAlreadyQuoted}
			}
			return err
		}

		room, created, err := tx.GetOrCreateRoom(ctx, models.ChatRoom{
			ID:        d.newID(),
			QuoteID:   quote.ID,
			GuestID:   req.GuestID,
			HostID:    hostID,
			CreatedAt: now,
		})
		if err != nil {
			return fmt.Errorf("chat room: %w", err)
		}
		if created {
			if err := tx.AppendMessage(ctx, models.ChatMessage{
				ID:        d.newID(),
				RoomID:    room.ID,
				SenderID:  hostID,
				Kind:      models.MessageKindQuoteIntro,
				Text:      introText(tpl),
				CreatedAt: now,
			}); err != nil {
				return fmt.Errorf("intro message: %w", err)
			}
		}

		return tx.AppendAudit(ctx, models.AuditLogEntry{
			ID:         d.newID(),
			HostID:     hostID,
			RequestID:  req.ID,
			QuoteID:    quote.ID,
			Outcome:    models.OutcomeDispatched,
			ReasonCode: models.ReasonNone,
			Cost:       cost,
			CreatedAt:  now,
		})
	})

	var rej rejection
	if errors.As(err, &rej) {
		return d.reject(ctx, req, hostID, rej)
	}
	if err != nil {
		return Result{}, 0, err
	}

	d.logger.Infof("dispatch: request %s host %d dispatched quote %s cost %d", req.ID, hostID, quote.ID, cost)
	d.publish(ctx, quote, charges)
	return Result{HostID: hostID, Outcome: models.OutcomeDispatched, Quote: &quote}, cost, nil
}

// reject audits a non-dispatched attempt. It runs after any host
// transaction has rolled back, so nothing else of the attempt persists.
func (d *Dispatcher) reject(ctx context.Context, req models.Request, hostID int64, rej rejection) (Result, int64, error) {
	entry := models.AuditLogEntry{
		ID:         d.newID(),
		HostID:     hostID,
		RequestID:  req.ID,
		Outcome:    rej.outcome,
		ReasonCode: rej.reason,
		CreatedAt:  d.clock.Now(),
	}
	if err := d.store.AppendAudit(ctx, entry); err != nil {
		return Result{}, 0, fmt.Errorf("audit: %w", err)
	}
	d.logger.Infof("dispatch: request %s host %d %s: %s", req.ID, hostID, rej.outcome, rej.reason)
	return Result{HostID: hostID, Outcome: rej.outcome, Reason: rej.reason}, 0, nil
}

func (d *Dispatcher) publish(ctx context.Context, q models.Quote, charges []models.LedgerEntry) {
	at := d.clock.Now()
	d.events.Publish(ctx, events.Event{
		Type:       events.QuoteSent,
		HostID:     q.HostID,
		QuoteID:    q.ID,
		RequestID:  q.RequestID,
		Recipients: []int64{q.GuestID},
		Payload:    q,
		At:         at,
	})
	if len(charges) > 0 {
		d.events.Publish(ctx, events.Event{
			Type:       events.LedgerCharge,
			HostID:     q.HostID,
			QuoteID:    q.ID,
			Recipients: []int64{q.HostID},
			Payload:    charges,
			At:         at,
		})
	}
}

func newQuote(id string, req models.Request, hostID int64, tpl models.QuoteTemplate, cost int64, now time.Time) models.Quote {
	return models.Quote{
		ID:          id,
		RequestID:   req.ID,
		HostID:      hostID,
		GuestID:     req.GuestID,
		SpaceName:   tpl.Name,
		Price:       tpl.Price,
		Items:       append([]models.QuoteItem(nil), tpl.Items...),
		Description: tpl.Description,
		Cost:        cost,
		IsAutoQuote: true,
		Status:      models.QuoteSent,
		CreatedAt:   now,
		SentAt:      now,
		UpdatedAt:   now,
	}
}

func introText(tpl models.QuoteTemplate) string {
	return fmt.Sprintf("Hello! We have sent you a quote for %s: %d. Ask us anything here.", tpl.Name, tpl.Price)
}

// DispatchRequest offers req to every enabled host, at most
// GetFanoutWorkers hosts at a time. A failure for one host does not stop the
// others; all failures are joined into the returned error.
func (d *Dispatcher) DispatchRequest(ctx context.Context, req models.Request) ([]Result, error) {
	configs, err := d.store.ListEnabledConfigs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list configs: %w", err)
	}

	results := make([]Result, len(configs))
	var (
		g    errgroup.Group
		mu   sync.Mutex
		errs []error
	)
	g.SetLimit(d.cfg.GetFanoutWorkers())
	for i, cfg := range configs {
		g.Go(func() error {
			res, err := d.Dispatch(ctx, req, cfg.HostID, cfg)
			if err != nil {
				mu.Lock()
				errs = append(errs, fmt.Errorf("host %d: %w", cfg.HostID, err))
				mu.Unlock()
				return nil
			}
			results[i] = res
			return nil
		})
	}
	_ = g.Wait()
	return results, errors.Join(errs...)
}

// Run starts the dispatcher loop over pending intake requests.
func (d *Dispatcher) Run(ctx context.Context) {
	ticker := time.NewTicker(d.cfg.GetDispatchTick())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.tick(ctx)
		}
	}
}

func (d *Dispatcher) tick(ctx context.Context) {
	pending, err := d.store.PendingRequests(ctx, d.cfg.GetBatchSize())
	if err != nil {
		d.logger.Errorf("dispatch: list pending failed: %v", err)
		return
	}
	for _, req := range pending {
		if _, err := d.Process(ctx, req); err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			if errors.Is(err, models.ErrInvariantViolation) {
				panic(err)
			}
			d.logger.Errorf("dispatch: process request %s failed: %v", req.ID, err)
		}
	}
}

// Process dispatches a stored request and marks it processed. The request
// stays pending on error; retries are safe because dispatch is idempotent
// per (request, host).
func (d *Dispatcher) Process(ctx context.Context, req models.Request) ([]Result, error) {
	results, err := d.DispatchRequest(ctx, req)
	if err != nil {
		return results, err
	}
	return results, d.store.MarkRequestProcessed(ctx, req.ID, d.clock.Now())
}
