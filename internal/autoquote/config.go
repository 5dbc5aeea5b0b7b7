package autoquote

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

const (
	defaultFlatCost        = 1000
	defaultRefundWindow    = 48 * time.Hour
	defaultDispatchTick    = 10 * time.Second
	defaultFanoutWorkers   = 8
	defaultAbuseWindow     = 60 * time.Minute
	defaultAbuseThreshold  = 30
	defaultTimezone        = "Asia/Almaty"
	defaultUsageRetention  = 30
	defaultLockTTL         = 10 * time.Second
	defaultDispatchBatch   = 50
	defaultSweepInterval   = 10 * time.Minute
	defaultCleanerInterval = 24 * time.Hour
)

// Config holds runtime configuration for the auto-quote engine.
type Config struct {
	FlatCost           int64
	RefundWindow       time.Duration
	DispatchTick       time.Duration
	FanoutWorkers      int
	DispatchBatch      int
	AbuseWindow        time.Duration
	AbuseThreshold     int
	Timezone           string
	UsageRetentionDays int
	LockTTL            time.Duration
	SweepInterval      time.Duration
	CleanerInterval    time.Duration
}

// LoadConfig reads AUTOQUOTE_* environment variables and applies defaults.
func LoadConfig() (Config, error) {
	cfg := Config{
		FlatCost:           defaultFlatCost,
		RefundWindow:       defaultRefundWindow,
		DispatchTick:       defaultDispatchTick,
		FanoutWorkers:      defaultFanoutWorkers,
		DispatchBatch:      defaultDispatchBatch,
		AbuseWindow:        defaultAbuseWindow,
		AbuseThreshold:     defaultAbuseThreshold,
		Timezone:           defaultTimezone,
		UsageRetentionDays: defaultUsageRetention,
		LockTTL:            defaultLockTTL,
		SweepInterval:      defaultSweepInterval,
		CleanerInterval:    defaultCleanerInterval,
	}

	if v, err := readIntEnv("AUTOQUOTE_FLAT_COST"); err != nil {
		return Config{}, fmt.Errorf("parse AUTOQUOTE_FLAT_COST: %w", err)
	} else if v != nil {
		cfg.FlatCost = int64(*v)
	}

	if v, err := readIntEnv("AUTOQUOTE_REFUND_WINDOW_HOURS"); err != nil {
		return Config{}, fmt.Errorf("parse AUTOQUOTE_REFUND_WINDOW_HOURS: %w", err)
	} else if v != nil {
		cfg.RefundWindow = time.Duration(*v) * time.Hour
	}

	if v, err := readIntEnv("AUTOQUOTE_DISPATCH_TICK_SECONDS"); err != nil {
		return Config{}, fmt.Errorf("parse AUTOQUOTE_DISPATCH_TICK_SECONDS: %w", err)
	} else if v != nil {
		cfg.DispatchTick = time.Duration(*v) * time.Second
	}

	if v, err := readIntEnv("AUTOQUOTE_FANOUT_WORKERS"); err != nil {
		return Config{}, fmt.Errorf("parse AUTOQUOTE_FANOUT_WORKERS: %w", err)
	} else if v != nil {
		cfg.FanoutWorkers = *v
	}

	if v, err := readIntEnv("AUTOQUOTE_ABUSE_WINDOW_MINUTES"); err != nil {
		return Config{}, fmt.Errorf("parse AUTOQUOTE_ABUSE_WINDOW_MINUTES: %w", err)
	} else if v != nil {
		cfg.AbuseWindow = time.Duration(*v) * time.Minute
	}

	if v, err := readIntEnv("AUTOQUOTE_ABUSE_THRESHOLD"); err != nil {
		return Config{}, fmt.Errorf("parse AUTOQUOTE_ABUSE_THRESHOLD: %w", err)
	} else if v != nil {
		cfg.AbuseThreshold = *v
	}

	if v := os.Getenv("AUTOQUOTE_TIMEZONE"); v != "" {
		if _, err := time.LoadLocation(v); err != nil && v != defaultTimezone {
			return Config{}, fmt.Errorf("parse AUTOQUOTE_TIMEZONE: %w", err)
		}
		cfg.Timezone = v
	}

	if v, err := readIntEnv("AUTOQUOTE_USAGE_RETENTION_DAYS"); err != nil {
		return Config{}, fmt.Errorf("parse AUTOQUOTE_USAGE_RETENTION_DAYS: %w", err)
	} else if v != nil {
		cfg.UsageRetentionDays = *v
	}

	if v, err := readIntEnv("AUTOQUOTE_LOCK_TTL_SECONDS"); err != nil {
		return Config{}, fmt.Errorf("parse AUTOQUOTE_LOCK_TTL_SECONDS: %w", err)
	} else if v != nil {
		cfg.LockTTL = time.Duration(*v) * time.Second
	}

	if cfg.FlatCost < 0 {
		return Config{}, fmt.Errorf("AUTOQUOTE_FLAT_COST must not be negative")
	}
	if cfg.RefundWindow <= 0 || cfg.DispatchTick <= 0 || cfg.AbuseWindow <= 0 || cfg.LockTTL <= 0 {
		return Config{}, fmt.Errorf("auto-quote durations must be positive")
	}
	if cfg.FanoutWorkers <= 0 {
		return Config{}, fmt.Errorf("AUTOQUOTE_FANOUT_WORKERS must be positive")
	}
	if cfg.UsageRetentionDays < 1 {
		return Config{}, fmt.Errorf("AUTOQUOTE_USAGE_RETENTION_DAYS must be at least 1")
	}

	return cfg, nil
}

func readIntEnv(name string) (*int, error) {
	val := os.Getenv(name)
	if val == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(val)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
