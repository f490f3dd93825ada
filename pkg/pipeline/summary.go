// pkg/pipeline/summary.go
package pipeline

import (
	"fmt"
	"time"

	"github.com/olist-analytics/olist-etl/pkg/cleaner"
)

// RunSummary aggregates the per-table reports of one cleaning run
type RunSummary struct {
	RunID     string
	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration

	Reports []*cleaner.TableReport

	TotalRowsIn       int
	TotalRowsOut      int
	TotalRowsDropped  int
	TotalRowsRepaired int
}

// NewRunSummary creates an empty summary with a fresh run ID
func NewRunSummary() *RunSummary {
	return &RunSummary{
		RunID:     newRunID(),
		StartTime: time.Now(),
		Reports:   make([]*cleaner.TableReport, 0),
	}
}

// AddReport folds one table report into the run totals
func (s *RunSummary) AddReport(rep *cleaner.TableReport) {
	s.Reports = append(s.Reports, rep)
	s.TotalRowsIn += rep.RowsIn
	s.TotalRowsOut += rep.RowsOut
	s.TotalRowsDropped += rep.Dropped()
	s.TotalRowsRepaired += rep.TotalRepairs()
}

// Complete marks the run as finished
func (s *RunSummary) Complete() {
	s.EndTime = time.Now()
	s.Duration = s.EndTime.Sub(s.StartTime)
}

// GenerateReport creates a human-readable run report
func (s *RunSummary) GenerateReport() string {
	report := fmt.Sprintf(`
Cleaning Run Report
===================
Run ID:        %s
Duration:      %s
Start Time:    %s
End Time:      %s

Data Summary
------------
Tables Cleaned:   %d
Total Rows In:    %d
Total Rows Out:   %d
Total Dropped:    %d (%.1f%%)
Total Repairs:    %d
`,
		s.RunID,
		formatDuration(s.Duration),
		s.StartTime.Format(time.RFC3339),
		s.EndTime.Format(time.RFC3339),

		len(s.Reports),
		s.TotalRowsIn,
		s.TotalRowsOut,
		s.TotalRowsDropped,
		percentage(s.TotalRowsDropped, s.TotalRowsIn),
		s.TotalRowsRepaired,
	)

	report += "\nTable Details\n-------------\n"
	for _, rep := range s.Reports {
		report += rep.Summary()
	}

	return report
}

func percentage(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return float64(part) / float64(whole) * 100
}

// formatDuration formats a duration to a human-readable string
func formatDuration(d time.Duration) string {
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	if hours > 0 {
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
	} else if minutes > 0 {
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	}
	return fmt.Sprintf("%.2fs", d.Seconds())
}
