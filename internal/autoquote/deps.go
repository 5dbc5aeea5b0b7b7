package autoquote

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"spacesBack/internal/autoquote/events"
	"spacesBack/internal/autoquote/store"
)

// Logger provides minimal logging required by the auto-quote module.
type Logger interface {
	Infof(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// Deps groups external dependencies needed by the auto-quote module.
type Deps struct {
	Store      store.Store
	Logger     Logger
	Config     Config
	Registerer prometheus.Registerer
	// Push receives every event after the websocket hub. Optional.
	Push events.Publisher
}

// Validate ensures required dependencies are provided.
func (d *Deps) Validate() error {
	if d.Store == nil {
		return errors.New("autoquote deps: Store is required")
	}
	if d.Logger == nil {
		return errors.New("autoquote deps: Logger is required")
	}
	if d.Registerer == nil {
		d.Registerer = prometheus.NewRegistry()
	}
	return nil
}
