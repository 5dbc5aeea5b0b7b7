package main

import (
	"context"
	"log"
	"time"

	"spacesBack/internal/autoquote"
)

const usageCleanerTimeout = 30 * time.Second

// startUsageCleaner drops daily usage counters older than the retention
// period. Counters are keyed by day, so nothing needs resetting at midnight.
func startUsageCleaner(ctx context.Context, m *autoquote.Module, interval time.Duration, infoLog, errorLog *log.Logger) {
	if m == nil {
		return
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		run := func() {
			runCtx, cancel := context.WithTimeout(ctx, usageCleanerTimeout)
			defer cancel()

			cutoff := m.UsageCutoff()
			deleted, err := m.Store.DeleteUsageBefore(runCtx, cutoff)
			if err != nil {
				if errorLog != nil {
					errorLog.Printf("usage cleaner: failed to delete counters before %s: %v", cutoff, err)
				}
				return
			}
			if deleted > 0 && infoLog != nil {
				infoLog.Printf("usage cleaner: deleted %d counters before %s", deleted, cutoff)
			}
		}

		run()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				run()
			}
		}
	}()
}
