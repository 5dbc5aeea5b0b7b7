package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"spacesBack/internal/autoquote/hostlock"
	"spacesBack/internal/models"
)

// hostState is everything a host transaction may mutate. Committed states
// are never modified in place; a transaction works on a clone and swaps it in.
type hostState struct {
	wallet    models.Wallet
	usage     map[string]models.DailyUsage
	ledger    []models.LedgerEntry
	refunded  map[string]bool
	quotes    map[string]models.Quote
	byRequest map[string]string
	rooms     map[string]models.ChatRoom
	messages  []models.ChatMessage
}

func newHostState(hostID int64) *hostState {
	return &hostState{
		wallet:    models.Wallet{HostID: hostID},
		usage:     make(map[string]models.DailyUsage),
		refunded:  make(map[string]bool),
		quotes:    make(map[string]models.Quote),
		byRequest: make(map[string]string),
		rooms:     make(map[string]models.ChatRoom),
	}
}

func (s *hostState) clone() *hostState {
	out := &hostState{
		wallet:    s.wallet,
		usage:     make(map[string]models.DailyUsage, len(s.usage)),
		ledger:    append([]models.LedgerEntry(nil), s.ledger...),
		refunded:  make(map[string]bool, len(s.refunded)),
		quotes:    make(map[string]models.Quote, len(s.quotes)),
		byRequest: make(map[string]string, len(s.byRequest)),
		rooms:     make(map[string]models.ChatRoom, len(s.rooms)),
		messages:  append([]models.ChatMessage(nil), s.messages...),
	}
	for k, v := range s.usage {
		out.usage[k] = v
	}
	for k, v := range s.refunded {
		out.refunded[k] = v
	}
	for k, v := range s.quotes {
		out.quotes[k] = v.Clone()
	}
	for k, v := range s.byRequest {
		out.byRequest[k] = v
	}
	for k, v := range s.rooms {
		out.rooms[k] = v
	}
	return out
}

type requestRow struct {
	req         models.Request
	processedAt *time.Time
}

// Memory is an in-process Store used by tests and the "memory" driver.
type Memory struct {
	lock hostlock.Locker

	mu        sync.RWMutex
	hosts     map[int64]*hostState
	quoteHost map[string]int64
	configs   map[int64]models.AutoQuoteConfig
	templates map[string]models.QuoteTemplate
	audit     []models.AuditLogEntry
	requests  map[string]*requestRow
	reqOrder  []string
	tokens    map[int64][]string
}

// NewMemory constructs an empty store. A nil locker defaults to hostlock.Local.
func NewMemory(lock hostlock.Locker) *Memory {
	if lock == nil {
		lock = hostlock.NewLocal()
	}
	return &Memory{
		lock:      lock,
		hosts:     make(map[int64]*hostState),
		quoteHost: make(map[string]int64),
		configs:   make(map[int64]models.AutoQuoteConfig),
		templates: make(map[string]models.QuoteTemplate),
		requests:  make(map[string]*requestRow),
		tokens:    make(map[int64][]string),
	}
}

func templateKey(hostID int64, id string) string {
	return fmt.Sprintf("%d/%s", hostID, id)
}

func (m *Memory) InHostTx(ctx context.Context, hostID int64, fn TxFunc) error {
	unlock, err := m.lock.Lock(ctx, hostID)
	if err != nil {
		return err
	}
	defer unlock()

	m.mu.RLock()
	base, ok := m.hosts[hostID]
	m.mu.RUnlock()
	var state *hostState
	if ok {
		state = base.clone()
	} else {
		state = newHostState(hostID)
	}

	tx := &memTx{hostID: hostID, state: state}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	m.hosts[hostID] = tx.state
	for _, id := range tx.newQuotes {
		m.quoteHost[id] = hostID
	}
	m.audit = append(m.audit, tx.audit...)
	m.mu.Unlock()
	return nil
}

func (m *Memory) GetConfig(ctx context.Context, hostID int64) (models.AutoQuoteConfig, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cfg, ok := m.configs[hostID]
	if !ok {
		return models.AutoQuoteConfig{}, models.ErrNotFound
	}
	return cloneConfig(cfg), nil
}

func (m *Memory) SaveConfig(ctx context.Context, cfg models.AutoQuoteConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.configs[cfg.HostID] = cloneConfig(cfg)
	return nil
}

func (m *Memory) ListEnabledConfigs(ctx context.Context) ([]models.AutoQuoteConfig, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.AutoQuoteConfig
	for _, cfg := range m.configs {
		if cfg.Enabled {
			out = append(out, cloneConfig(cfg))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].HostID < out[j].HostID })
	return out, nil
}

func cloneConfig(c models.AutoQuoteConfig) models.AutoQuoteConfig {
	c.Conditions.Regions = append([]string(nil), c.Conditions.Regions...)
	c.Conditions.Weekdays = append([]models.Weekday(nil), c.Conditions.Weekdays...)
	c.Conditions.TimeSlots = append([]models.TimeSlot(nil), c.Conditions.TimeSlots...)
	c.Conditions.Purposes = append([]string(nil), c.Conditions.Purposes...)
	return c
}

func (m *Memory) GetTemplate(ctx context.Context, hostID int64, templateID string) (models.QuoteTemplate, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.templates[templateKey(hostID, templateID)]
	if !ok {
		return models.QuoteTemplate{}, models.ErrTemplateNotFound
	}
	t.Items = append([]models.QuoteItem(nil), t.Items...)
	return t, nil
}

func (m *Memory) SaveTemplate(ctx context.Context, t models.QuoteTemplate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t.Items = append([]models.QuoteItem(nil), t.Items...)
	m.templates[templateKey(t.HostID, t.ID)] = t
	return nil
}

func (m *Memory) GetQuote(ctx context.Context, id string) (models.Quote, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	hostID, ok := m.quoteHost[id]
	if !ok {
		return models.Quote{}, models.ErrNotFound
	}
	return m.hosts[hostID].quotes[id].Clone(), nil
}

func (m *Memory) FindQuote(ctx context.Context, hostID int64, requestID string) (models.Quote, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	st, ok := m.hosts[hostID]
	if !ok {
		return models.Quote{}, false, nil
	}
	id, ok := st.byRequest[requestID]
	if !ok {
		return models.Quote{}, false, nil
	}
	return st.quotes[id].Clone(), true, nil
}

func (m *Memory) ListUnreadBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.Quote, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.Quote
	for _, st := range m.hosts {
		for _, q := range st.quotes {
			if q.IsAutoQuote && q.Status == models.QuoteSent && q.FirstViewedAt == nil && q.SentAt.Before(cutoff) {
				out = append(out, q.Clone())
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SentAt.Before(out[j].SentAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *Memory) GetRoomByQuote(ctx context.Context, quoteID string) (models.ChatRoom, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	hostID, ok := m.quoteHost[quoteID]
	if !ok {
		return models.ChatRoom{}, models.ErrNotFound
	}
	room, ok := m.hosts[hostID].rooms[quoteID]
	if !ok {
		return models.ChatRoom{}, models.ErrNotFound
	}
	return room, nil
}

func (m *Memory) ListMessages(ctx context.Context, roomID string) ([]models.ChatMessage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.ChatMessage
	for _, st := range m.hosts {
		for _, msg := range st.messages {
			if msg.RoomID == roomID {
				out = append(out, msg)
			}
		}
	}
	return out, nil
}

func (m *Memory) GetUsage(ctx context.Context, hostID int64, day string) (models.DailyUsage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if st, ok := m.hosts[hostID]; ok {
		if u, ok := st.usage[day]; ok {
			return u, nil
		}
	}
	return models.DailyUsage{HostID: hostID, Day: day}, nil
}

// DeleteUsageBefore drops counters older than day. Days compare
// lexically since they are formatted as YYYY-MM-DD.
func (m *Memory) DeleteUsageBefore(ctx context.Context, day string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for hostID, st := range m.hosts {
		stale := false
		for d := range st.usage {
			if d < day {
				stale = true
				break
			}
		}
		if !stale {
			continue
		}
		next := st.clone()
		for d := range next.usage {
			if d < day {
				delete(next.usage, d)
				n++
			}
		}
		m.hosts[hostID] = next
	}
	return n, nil
}

func (m *Memory) GetWallet(ctx context.Context, hostID int64) (models.Wallet, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if st, ok := m.hosts[hostID]; ok {
		return st.wallet, nil
	}
	return models.Wallet{HostID: hostID}, nil
}

// ListLedger returns entries newest first.
func (m *Memory) ListLedger(ctx context.Context, hostID int64, limit, offset int) ([]models.LedgerEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	st, ok := m.hosts[hostID]
	if !ok {
		return nil, nil
	}
	out := make([]models.LedgerEntry, 0, len(st.ledger))
	for i := len(st.ledger) - 1; i >= 0; i-- {
		out = append(out, st.ledger[i])
	}
	return page(out, limit, offset), nil
}

func page[T any](in []T, limit, offset int) []T {
	if offset >= len(in) {
		return nil
	}
	in = in[offset:]
	if limit > 0 && len(in) > limit {
		in = in[:limit]
	}
	return in
}

func (m *Memory) AppendAudit(ctx context.Context, e models.AuditLogEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.audit = append(m.audit, e)
	return nil
}

// ListAudit returns entries newest first.
func (m *Memory) ListAudit(ctx context.Context, f models.AuditFilter) ([]models.AuditLogEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.AuditLogEntry
	for i := len(m.audit) - 1; i >= 0; i-- {
		e := m.audit[i]
		if f.HostID != 0 && e.HostID != f.HostID {
			continue
		}
		if !f.Since.IsZero() && e.CreatedAt.Before(f.Since) {
			continue
		}
		out = append(out, e)
	}
	return page(out, f.Limit, f.Offset), nil
}

func (m *Memory) DispatchVelocity(ctx context.Context, since time.Time) ([]models.HostVelocity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	byHost := make(map[int64]*models.HostVelocity)
	for _, e := range m.audit {
		if e.CreatedAt.Before(since) {
			continue
		}
		v, ok := byHost[e.HostID]
		if !ok {
			v = &models.HostVelocity{HostID: e.HostID}
			byHost[e.HostID] = v
		}
		v.Attempts++
		if e.Outcome == models.OutcomeDispatched {
			v.Dispatched++
			v.Spend += e.Cost
		}
	}
	out := make([]models.HostVelocity, 0, len(byHost))
	for _, v := range byHost {
		out = append(out, *v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].HostID < out[j].HostID })
	return out, nil
}

func (m *Memory) SaveRequest(ctx context.Context, r models.Request) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.requests[r.ID]; ok {
		return nil
	}
	m.requests[r.ID] = &requestRow{req: r}
	m.reqOrder = append(m.reqOrder, r.ID)
	return nil
}

func (m *Memory) PendingRequests(ctx context.Context, limit int) ([]models.Request, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.Request
	for _, id := range m.reqOrder {
		row := m.requests[id]
		if row.processedAt != nil {
			continue
		}
		out = append(out, row.req)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *Memory) MarkRequestProcessed(ctx context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.requests[id]
	if !ok {
		return models.ErrNotFound
	}
	row.processedAt = &at
	return nil
}

func (m *Memory) SaveDeviceToken(ctx context.Context, t models.DeviceToken) error {
	token := strings.TrimSpace(t.Token)
	if token == "" {
		return fmt.Errorf("store: empty device token")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.tokens[t.UserID] {
		if existing == token {
			return nil
		}
	}
	m.tokens[t.UserID] = append(m.tokens[t.UserID], token)
	return nil
}

func (m *Memory) DeviceTokens(ctx context.Context, userID int64) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.tokens[userID]...), nil
}

// memTx mutates a private clone of one host's state.
type memTx struct {
	hostID    int64
	state     *hostState
	newQuotes []string
	audit     []models.AuditLogEntry
}

func (t *memTx) checkHost(hostID int64) error {
	if hostID != t.hostID {
		return fmt.Errorf("%w: host %d accessed inside transaction of host %d", models.ErrInvariantViolation, hostID, t.hostID)
	}
	return nil
}

func (t *memTx) Usage(ctx context.Context, hostID int64, day string) (models.DailyUsage, error) {
	if err := t.checkHost(hostID); err != nil {
		return models.DailyUsage{}, err
	}
	if u, ok := t.state.usage[day]; ok {
		return u, nil
	}
	return models.DailyUsage{HostID: hostID, Day: day}, nil
}

func (t *memTx) SaveUsage(ctx context.Context, u models.DailyUsage) error {
	if err := t.checkHost(u.HostID); err != nil {
		return err
	}
	t.state.usage[u.Day] = u
	return nil
}

func (t *memTx) Wallet(ctx context.Context, hostID int64) (models.Wallet, error) {
	if err := t.checkHost(hostID); err != nil {
		return models.Wallet{}, err
	}
	return t.state.wallet, nil
}

func (t *memTx) SaveWallet(ctx context.Context, w models.Wallet) error {
	if err := t.checkHost(w.HostID); err != nil {
		return err
	}
	t.state.wallet = w
	return nil
}

func (t *memTx) AppendLedger(ctx context.Context, e models.LedgerEntry) error {
	if err := t.checkHost(e.HostID); err != nil {
		return err
	}
	t.state.ledger = append(t.state.ledger, e)
	if e.Kind == models.LedgerRefund && e.QuoteID != "" {
		t.state.refunded[e.QuoteID] = true
	}
	return nil
}

func (t *memTx) HasRefund(ctx context.Context, quoteID string) (bool, error) {
	return t.state.refunded[quoteID], nil
}

func (t *memTx) FindQuote(ctx context.Context, hostID int64, requestID string) (models.Quote, bool, error) {
	if err := t.checkHost(hostID); err != nil {
		return models.Quote{}, false, err
	}
	id, ok := t.state.byRequest[requestID]
	if !ok {
		return models.Quote{}, false, nil
	}
	return t.state.quotes[id].Clone(), true, nil
}

func (t *memTx) GetQuote(ctx context.Context, id string) (models.Quote, error) {
	q, ok := t.state.quotes[id]
	if !ok {
		return models.Quote{}, models.ErrNotFound
	}
	return q.Clone(), nil
}

func (t *memTx) InsertQuote(ctx context.Context, q models.Quote) error {
	if err := t.checkHost(q.HostID); err != nil {
		return err
	}
	if _, ok := t.state.byRequest[q.RequestID]; ok {
		return models.ErrAlreadyQuoted
	}
	t.state.quotes[q.ID] = q.Clone()
	t.state.byRequest[q.RequestID] = q.ID
	t.newQuotes = append(t.newQuotes, q.ID)
	return nil
}

func (t *memTx) UpdateQuote(ctx context.Context, q models.Quote, from models.QuoteStatus) error {
	cur, ok := t.state.quotes[q.ID]
	if !ok {
		return models.ErrNotFound
	}
	if cur.Status != from {
		return fmt.Errorf("%w: quote %s is %s, expected %s", models.ErrInvalidTransition, q.ID, cur.Status, from)
	}
	t.state.quotes[q.ID] = q.Clone()
	return nil
}

func (t *memTx) GetOrCreateRoom(ctx context.Context, room models.ChatRoom) (models.ChatRoom, bool, error) {
	if existing, ok := t.state.rooms[room.QuoteID]; ok {
		return existing, false, nil
	}
	t.state.rooms[room.QuoteID] = room
	return room, true, nil
}

func (t *memTx) AppendMessage(ctx context.Context, msg models.ChatMessage) error {
	t.state.messages = append(t.state.messages, msg)
	return nil
}

func (t *memTx) AppendAudit(ctx context.Context, e models.AuditLogEntry) error {
	t.audit = append(t.audit, e)
	return nil
}
