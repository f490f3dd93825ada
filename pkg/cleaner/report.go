// pkg/cleaner/report.go
package cleaner

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
)

// DropCause categorizes why a record was removed from a cleaned table.
// Every drop is counted under exactly one cause; silent uncounted loss
// is treated as a defect of the cleaner.
type DropCause int

const (
	// DropEmptyRecord is a record whose every cell is missing
	DropEmptyRecord DropCause = iota
	// DropExactDuplicate is a full-row duplicate of an earlier record
	DropExactDuplicate
	// DropMissingIdentifier is a record lacking a required primary or
	// foreign key value
	DropMissingIdentifier
	// DropOrphanedForeignKey is a referential violation: the foreign key
	// is absent from the cleaned parent table's key set
	DropOrphanedForeignKey
	// DropDuplicateNaturalKey is a later record sharing an earlier
	// record's natural key
	DropDuplicateNaturalKey
	// DropEntityRule is an entity-specific rule (out-of-range review
	// score, priceless order item, coordinate-less geolocation sample,
	// unrecoverable placeholder record)
	DropEntityRule
)

// String returns a string representation of the drop cause
func (c DropCause) String() string {
	switch c {
	case DropEmptyRecord:
		return "empty_record"
	case DropExactDuplicate:
		return "exact_duplicate"
	case DropMissingIdentifier:
		return "missing_identifier"
	case DropOrphanedForeignKey:
		return "orphaned_foreign_key"
	case DropDuplicateNaturalKey:
		return "duplicate_natural_key"
	case DropEntityRule:
		return "entity_rule"
	default:
		return fmt.Sprintf("unknown(%d)", c)
	}
}

// TableReport accumulates the auditable outcome of cleaning one table:
// input/output record counts, per-cause drop counts, per-column orphan
// counts, and per-column field repair counts. The pipeline is a single
// sequential pass per table, so the report needs no locking.
type TableReport struct {
	Table     string
	RowsIn    int
	RowsOut   int
	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration

	drops   map[DropCause]int
	orphans map[string]int
	repairs map[string]int
}

// NewTableReport initializes a report for a table cleaning pass
func NewTableReport(table string, rowsIn int) *TableReport {
	return &TableReport{
		Table:     table,
		RowsIn:    rowsIn,
		StartTime: time.Now(),
		drops:     make(map[DropCause]int),
		orphans:   make(map[string]int),
		repairs:   make(map[string]int),
	}
}

// RecordDrop counts a dropped record under its cause
func (r *TableReport) RecordDrop(cause DropCause) {
	r.drops[cause]++
}

// RecordOrphan counts a referential-violation drop against the foreign
// key column that failed the parent lookup
func (r *TableReport) RecordOrphan(fkColumn string) {
	r.drops[DropOrphanedForeignKey]++
	r.orphans[fkColumn]++
}

// RecordRepair counts a field-level repair (value fixed or downgraded to
// missing) against its column
func (r *TableReport) RecordRepair(column string) {
	r.repairs[column]++
}

// Complete finalizes the report with the output row count
func (r *TableReport) Complete(rowsOut int) {
	r.RowsOut = rowsOut
	r.EndTime = time.Now()
	r.Duration = r.EndTime.Sub(r.StartTime)
}

// Dropped returns the total number of dropped records
func (r *TableReport) Dropped() int {
	total := 0
	for _, n := range r.drops {
		total += n
	}
	return total
}

// DropCount returns the number of records dropped for a cause
func (r *TableReport) DropCount(cause DropCause) int {
	return r.drops[cause]
}

// OrphanCount returns the number of records dropped because the given
// foreign key column failed the parent lookup
func (r *TableReport) OrphanCount(fkColumn string) int {
	return r.orphans[fkColumn]
}

// RepairCount returns the number of field repairs applied to a column
func (r *TableReport) RepairCount(column string) int {
	return r.repairs[column]
}

// TotalRepairs returns the number of field repairs across all columns
func (r *TableReport) TotalRepairs() int {
	total := 0
	for _, n := range r.repairs {
		total += n
	}
	return total
}

// LogFields renders the report as structured log fields
func (r *TableReport) LogFields() []zap.Field {
	fields := []zap.Field{
		zap.String("table", r.Table),
		zap.Int("rowsIn", r.RowsIn),
		zap.Int("rowsOut", r.RowsOut),
		zap.Int("dropped", r.Dropped()),
		zap.Int("fieldRepairs", r.TotalRepairs()),
		zap.Duration("duration", r.Duration),
	}
	for cause, n := range r.drops {
		if n > 0 {
			fields = append(fields, zap.Int("drop_"+cause.String(), n))
		}
	}
	for col, n := range r.orphans {
		if n > 0 {
			fields = append(fields, zap.Int("orphan_"+col, n))
		}
	}
	return fields
}

// Summary renders a one-table text block for the run report
func (r *TableReport) Summary() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s: %d in, %d out, %d dropped, %d field repairs\n",
		r.Table, r.RowsIn, r.RowsOut, r.Dropped(), r.TotalRepairs()))

	causes := make([]string, 0, len(r.drops))
	for cause, n := range r.drops {
		if n > 0 {
			causes = append(causes, fmt.Sprintf("  %s: %d", cause, n))
		}
	}
	sort.Strings(causes)
	for _, line := range causes {
		sb.WriteString(line + "\n")
	}

	orphanCols := make([]string, 0, len(r.orphans))
	for col := range r.orphans {
		orphanCols = append(orphanCols, col)
	}
	sort.Strings(orphanCols)
	for _, col := range orphanCols {
		sb.WriteString(fmt.Sprintf("  orphaned %s: %d\n", col, r.orphans[col]))
	}

	return sb.String()
}
