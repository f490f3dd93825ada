// pkg/cleaner/cleaner.go

// Package cleaner repairs and filters the raw Olist extracts, one cleaner
// per entity. Each cleaner is a pure transformation from an input table
// (plus any parent-table key sets) to a new output table and an auditable
// report; input tables are never mutated.
package cleaner

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/olist-analytics/olist-etl/pkg/dates"
	"github.com/olist-analytics/olist-etl/pkg/model"
	"github.com/olist-analytics/olist-etl/pkg/textnorm"
)

// qualityFlagColumn marks which corruption was synthetically injected
// into a record of the dirty extracts. It is an artifact of the input,
// not real data, and is discarded from every cleaned table.
const qualityFlagColumn = "data_quality_flag"

// Cleaner applies the per-entity cleaning rules
type Cleaner struct {
	logger *zap.Logger
}

// New creates a Cleaner
func New(logger *zap.Logger) (*Cleaner, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	return &Cleaner{logger: logger}, nil
}

// requireColumns verifies the raw table declares every expected column.
// A missing column is a structural defect: the table aborts rather than
// producing partial output.
func requireColumns(t model.Table, required []string) error {
	if missing := t.MissingColumns(required); len(missing) > 0 {
		return fmt.Errorf("table %s is missing required columns: %s",
			t.Name, strings.Join(missing, ", "))
	}
	return nil
}

// dropEmptyAndExactDuplicates removes fully-empty records, then exact
// full-row duplicates, keeping the first occurrence under input order
func dropEmptyAndExactDuplicates(t model.Table, rep *TableReport) model.Table {
	out := model.NewTable(t.Name, t.Columns)
	seen := make(map[string]struct{}, len(t.Rows))

	for _, row := range t.Rows {
		if row.IsEmpty() {
			rep.RecordDrop(DropEmptyRecord)
			continue
		}
		fp := t.Fingerprint(row)
		if _, dup := seen[fp]; dup {
			rep.RecordDrop(DropExactDuplicate)
			continue
		}
		seen[fp] = struct{}{}
		out.Append(row)
	}

	return out
}

// normalizeText runs the string normalizer over the given columns,
// cloning each record so the input table is left untouched. Cells that
// normalize to nothing become explicitly missing.
func normalizeText(t model.Table, cols ...string) model.Table {
	out := model.NewTable(t.Name, t.Columns)
	out.Rows = make([]model.Record, 0, len(t.Rows))

	for _, row := range t.Rows {
		nr := row.Clone()
		for _, col := range cols {
			nr[col] = normalizeCell(nr.Get(col))
		}
		out.Append(nr)
	}

	return out
}

// normalizeCell repairs one text cell via the string normalizer
func normalizeCell(v model.Value) model.Value {
	if v.IsMissing() {
		return v
	}
	s, ok := textnorm.Normalize(v.Text())
	if !ok {
		return model.Missing()
	}
	return model.String(s)
}

// requireIdentifiers drops records missing any of the given identifier
// columns (primary key parts or required foreign keys)
func requireIdentifiers(t model.Table, rep *TableReport, cols ...string) model.Table {
	out := model.NewTable(t.Name, t.Columns)

	for _, row := range t.Rows {
		complete := true
		for _, col := range cols {
			if row.Get(col).IsMissing() {
				complete = false
				break
			}
		}
		if !complete {
			rep.RecordDrop(DropMissingIdentifier)
			continue
		}
		out.Append(row)
	}

	return out
}

// filterOrphans enforces referential integrity: records whose foreign
// key is absent from the cleaned parent table's key set are dropped and
// counted against the foreign key column
func filterOrphans(t model.Table, rep *TableReport, fkCol string, parents model.KeySet) model.Table {
	out := model.NewTable(t.Name, t.Columns)

	for _, row := range t.Rows {
		fk := row.Get(fkCol)
		if !fk.IsMissing() && !parents.Contains(fk.Text()) {
			rep.RecordOrphan(fkCol)
			continue
		}
		out.Append(row)
	}

	return out
}

// dedupeByKey drops later records that repeat an earlier record's
// natural key, keeping the first occurrence under input order. Records
// whose key cannot be formed are left for requireIdentifiers to judge.
func dedupeByKey(t model.Table, rep *TableReport, keyCols ...string) model.Table {
	out := model.NewTable(t.Name, t.Columns)
	seen := make(map[string]struct{}, len(t.Rows))

	for _, row := range t.Rows {
		key, ok := model.CompositeKey(row, keyCols...)
		if ok {
			if _, dup := seen[key]; dup {
				rep.RecordDrop(DropDuplicateNaturalKey)
				continue
			}
			seen[key] = struct{}{}
		}
		out.Append(row)
	}

	return out
}

// boundFloat coerces a cell to a float within [min, max]; out-of-range
// or uncoercible values downgrade to missing and count as a repair
func boundFloat(row model.Record, rep *TableReport, col string, min, max float64) {
	v := row.Get(col)
	if v.IsMissing() {
		return
	}
	f, ok := v.AsFloat()
	if !ok || f < min || f > max {
		row[col] = model.Missing()
		rep.RecordRepair(col)
		return
	}
	row[col] = model.Float(f)
}

// boundPositiveFloat is boundFloat with an exclusive lower bound of
// zero, for fields where a zero amount is as implausible as a negative
// one (prices, payment values)
func boundPositiveFloat(row model.Record, rep *TableReport, col string, max float64) {
	boundFloat(row, rep, col, 0, max)
	if f, ok := row.Get(col).FloatVal(); ok && f == 0 {
		row[col] = model.Missing()
		rep.RecordRepair(col)
	}
}

// boundInt coerces a cell to an integer within [min, max]; out-of-range
// or uncoercible values downgrade to missing and count as a repair
func boundInt(row model.Record, rep *TableReport, col string, min, max int64) {
	v := row.Get(col)
	if v.IsMissing() {
		return
	}
	i, ok := v.AsInt()
	if !ok || i < min || i > max {
		row[col] = model.Missing()
		rep.RecordRepair(col)
		return
	}
	row[col] = model.Int(i)
}

// repairTimestamp runs the date repair engine over a cell and clamps the
// result to the dataset epoch
func repairTimestamp(row model.Record, rep *TableReport, col string) {
	v := row.Get(col)
	if v.IsMissing() {
		return
	}
	repaired := clampedRepair(v.Text())
	if repaired.IsMissing() {
		rep.RecordRepair(col)
	}
	row[col] = repaired
}

// clampedRepair parses a raw date string and forces out-of-epoch results
// back to missing
func clampedRepair(raw string) model.Value {
	return dates.ClampEpoch(dates.Repair(raw))
}
