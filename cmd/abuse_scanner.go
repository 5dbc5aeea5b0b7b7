package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"spacesBack/internal/autoquote/abuse"
	"spacesBack/utils"
)

const (
	abuseScannerTimeout = 30 * time.Second
	abuseReportFolder   = "autoquote/abuse"
	xlsxContentType     = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// startAbuseScanner logs hosts whose dispatch velocity crosses the threshold
// and archives the report when an uploader is configured. Scan also refreshes
// the flagged-hosts gauge.
func startAbuseScanner(ctx context.Context, monitor *abuse.Monitor, uploader *utils.Uploader, interval time.Duration, infoLog, errorLog *log.Logger) {
	if monitor == nil {
		return
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				runCtx, cancel := context.WithTimeout(ctx, abuseScannerTimeout)
				scanAbuse(runCtx, monitor, uploader, infoLog, errorLog)
				cancel()
			}
		}
	}()
}

func scanAbuse(ctx context.Context, monitor *abuse.Monitor, uploader *utils.Uploader, infoLog, errorLog *log.Logger) {
	report, err := monitor.Scan(ctx)
	if err != nil {
		errorLog.Printf("abuse scanner: %v", err)
		return
	}
	flagged := report.Flagged()
	for _, h := range flagged {
		infoLog.Printf("abuse scanner: host %d dispatched %d quotes (%d attempts, spend %d) since %s",
			h.HostID, h.Dispatched, h.Attempts, h.Spend, report.Since.Format(time.RFC3339))
	}
	if len(flagged) == 0 || uploader == nil {
		return
	}

	data, err := abuse.ExportXLSX(report)
	if err != nil {
		errorLog.Printf("abuse scanner: export: %v", err)
		return
	}
	name := fmt.Sprintf("velocity_%s.xlsx", report.Until.UTC().Format("20060102T150405Z"))
	url, err := uploader.Upload(ctx, data, abuseReportFolder, name, xlsxContentType)
	if err != nil {
		errorLog.Printf("abuse scanner: archive: %v", err)
		return
	}
	infoLog.Printf("abuse scanner: report archived at %s", url)
}
