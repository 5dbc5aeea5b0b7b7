package dispatch

import "time"

// Config holds the dispatcher settings subset.
type Config interface {
	GetFlatCost() int64
	GetDispatchTick() time.Duration
	GetFanoutWorkers() int
	GetBatchSize() int
}

// ConfigAdapter adapts module configuration to the dispatcher interface.
type ConfigAdapter struct {
	FlatCost      int64
	DispatchTick  time.Duration
	FanoutWorkers int
	BatchSize     int
}

func (c ConfigAdapter) GetFlatCost() int64 { return c.FlatCost }

func (c ConfigAdapter) GetDispatchTick() time.Duration {
	if c.DispatchTick <= 0 {
		return 10 * time.Second
	}
	return c.DispatchTick
}

func (c ConfigAdapter) GetFanoutWorkers() int {
	if c.FanoutWorkers <= 0 {
		return 1
	}
	return c.FanoutWorkers
}

func (c ConfigAdapter) GetBatchSize() int {
	if c.BatchSize <= 0 {
		return 50
	}
	return c.BatchSize
}
