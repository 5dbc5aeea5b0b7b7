// Package abuse flags hosts whose auto-quote velocity crosses a threshold.
// It only reads the audit log.
package abuse

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
	"golang.org/x/exp/slices"

	"spacesBack/internal/autoquote/metrics"
	"spacesBack/internal/autoquote/timeutil"
	"spacesBack/internal/models"
)

// AuditSource aggregates audit entries per host.
type AuditSource interface {
	DispatchVelocity(ctx context.Context, since time.Time) ([]models.HostVelocity, error)
}

type Monitor struct {
	source    AuditSource
	clock     timeutil.Clock
	metrics   *metrics.Metrics
	window    time.Duration
	threshold int
}

// Report is one scan over [Since, Until].
type Report struct {
	Since time.Time             `json:"since"`
	Until time.Time             `json:"until"`
	Hosts []models.HostVelocity `json:"hosts"`
}

// Flagged returns only the hosts over the threshold.
func (r Report) Flagged() []models.HostVelocity {
	var out []models.HostVelocity
	for _, h := range r.Hosts {
		if h.Flagged {
			out = append(out, h)
		}
	}
	return out
}

func NewMonitor(source AuditSource, clock timeutil.Clock, m *metrics.Metrics, window time.Duration, threshold int) *Monitor {
	return &Monitor{source: source, clock: clock, metrics: m, window: window, threshold: threshold}
}

// Scan aggregates the trailing window ending now. Hosts are ordered by
// dispatched count, highest first.
func (m *Monitor) Scan(ctx context.Context) (Report, error) {
	until := m.clock.Now()
	since := until.Add(-m.window)
	hosts, err := m.source.DispatchVelocity(ctx, since)
	if err != nil {
		return Report{}, fmt.Errorf("abuse: velocity: %w", err)
	}
	flagged := 0
	for i := range hosts {
		hosts[i].Flagged = m.threshold > 0 && hosts[i].Dispatched >= m.threshold
		if hosts[i].Flagged {
			flagged++
		}
	}
	slices.SortStableFunc(hosts, func(a, b models.HostVelocity) int {
		if a.Dispatched != b.Dispatched {
			return b.Dispatched - a.Dispatched
		}
		return int(a.HostID - b.HostID)
	})
	m.metrics.SetFlagged(flagged)
	return Report{Since: since, Until: until, Hosts: hosts}, nil
}

// ExportXLSX renders the report as a single-sheet workbook.
func ExportXLSX(r Report) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	const sheet = "Velocity"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, err
	}
	header := []interface{}{"host_id", "attempts", "dispatched", "spend", "flagged"}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("abuse: header: %w", err)
	}
	for i, h := range r.Hosts {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		row := []interface{}{h.HostID, h.Attempts, h.Dispatched, h.Spend, h.Flagged}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return nil, fmt.Errorf("abuse: row %d: %w", i+2, err)
		}
	}
	footer, err := excelize.CoordinatesToCellName(1, len(r.Hosts)+3)
	if err != nil {
		return nil, err
	}
	window := []interface{}{"window", r.Since.Format(time.RFC3339), r.Until.Format(time.RFC3339)}
	if err := f.SetSheetRow(sheet, footer, &window); err != nil {
		return nil, err
	}

	buf := &bytes.Buffer{}
	if err := f.Write(buf); err != nil {
		return nil, fmt.Errorf("abuse: write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
