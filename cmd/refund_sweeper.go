package main

import (
	"context"
	"errors"
	"log"
	"time"

	"spacesBack/internal/autoquote/lifecycle"
	"spacesBack/internal/models"
)

const refundSweeperTimeout = 1 * time.Minute

// startRefundSweeper expires auto-quotes left unread past the refund window
// and returns their cost to the host's points.
func startRefundSweeper(ctx context.Context, svc *lifecycle.Service, interval time.Duration, infoLog, errorLog *log.Logger) {
	if svc == nil {
		return
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		runOnce := func() {
			runCtx, cancel := context.WithTimeout(ctx, refundSweeperTimeout)
			expired, err := svc.ExpireUnread(runCtx)
			cancel()
			if errors.Is(err, models.ErrInvariantViolation) {
				panic(err)
			}
			if err != nil {
				if errorLog != nil {
					errorLog.Printf("refund sweeper: %v", err)
				}
			}
			if expired > 0 && infoLog != nil {
				infoLog.Printf("refund sweeper: expired %d unread quotes", expired)
			}
		}

		runOnce()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				runOnce()
			}
		}
	}()
}
