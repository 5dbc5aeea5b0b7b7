package autoquote

import (
	"context"

	"spacesBack/internal/autoquote/abuse"
	"spacesBack/internal/autoquote/dispatch"
	"spacesBack/internal/autoquote/events"
	"spacesBack/internal/autoquote/ledger"
	"spacesBack/internal/autoquote/lifecycle"
	"spacesBack/internal/autoquote/metrics"
	"spacesBack/internal/autoquote/quota"
	"spacesBack/internal/autoquote/store"
	"spacesBack/internal/autoquote/timeutil"
	"spacesBack/internal/autoquote/ws"
)

// Module is the wired auto-quote engine.
type Module struct {
	Config     Config
	Clock      timeutil.Clock
	Store      store.Store
	Quota      *quota.Governor
	Wallet     *ledger.Service
	Dispatcher *dispatch.Dispatcher
	Lifecycle  *lifecycle.Service
	Monitor    *abuse.Monitor
	Hub        *ws.Hub
	Metrics    *metrics.Metrics
	Events     events.Publisher
}

// New wires the engine components around deps.Store.
func New(deps *Deps) (*Module, error) {
	if err := deps.Validate(); err != nil {
		return nil, err
	}
	cfg := deps.Config
	clock := timeutil.NewSystemClock(cfg.Timezone)
	m := metrics.New(deps.Registerer)
	hub := ws.NewHub(deps.Logger)

	var pub events.Publisher = hub
	if deps.Push != nil {
		pub = events.Multi{hub, deps.Push}
	}

	led := ledger.New(clock)
	gov := quota.NewGovernor(clock)
	dispatcher := dispatch.New(deps.Store, gov, led, clock, pub, m, deps.Logger, dispatch.ConfigAdapter{
		FlatCost:      cfg.FlatCost,
		DispatchTick:  cfg.DispatchTick,
		FanoutWorkers: cfg.FanoutWorkers,
		BatchSize:     cfg.DispatchBatch,
	})

	return &Module{
		Config:     cfg,
		Clock:      clock,
		Store:      deps.Store,
		Quota:      gov,
		Wallet:     &ledger.Service{Store: deps.Store, Ledger: led},
		Dispatcher: dispatcher,
		Lifecycle:  lifecycle.NewService(deps.Store, led, clock, pub, m, deps.Logger, cfg.RefundWindow),
		Monitor:    abuse.NewMonitor(deps.Store, clock, m, cfg.AbuseWindow, cfg.AbuseThreshold),
		Hub:        hub,
		Metrics:    m,
		Events:     pub,
	}, nil
}

// StartWorkers launches the intake dispatcher loop.
func (m *Module) StartWorkers(ctx context.Context) {
	go m.Dispatcher.Run(ctx)
}

// UsageCutoff is the oldest day key kept by the usage cleaner.
func (m *Module) UsageCutoff() string {
	return timeutil.Day(m.Clock.Now().AddDate(0, 0, -m.Config.UsageRetentionDays))
}
