// pkg/model/table.go
package model

import "strings"

// Record maps column names to typed scalar values
type Record map[string]Value

// Get returns the value for a column, or the explicit missing value
// if the record carries no cell for it
func (r Record) Get(col string) Value {
	if v, ok := r[col]; ok {
		return v
	}
	return Missing()
}

// IsEmpty reports whether every cell in the record is missing
func (r Record) IsEmpty() bool {
	for _, v := range r {
		if !v.IsMissing() {
			return false
		}
	}
	return true
}

// Clone returns a copy of the record that shares no state with the original
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Table is an in-memory tabular extract: an ordered column list plus
// records. Cleaning stages treat tables as immutable inputs and build
// new output tables, so no stage aliases another stage's rows.
type Table struct {
	Name    string
	Columns []string
	Rows    []Record
}

// NewTable creates an empty table with the given column order
func NewTable(name string, columns []string) Table {
	cols := make([]string, len(columns))
	copy(cols, columns)
	return Table{Name: name, Columns: cols, Rows: make([]Record, 0)}
}

// HasColumn reports whether the table declares the column
func (t Table) HasColumn(col string) bool {
	for _, c := range t.Columns {
		if c == col {
			return true
		}
	}
	return false
}

// MissingColumns returns the required columns the table does not declare
func (t Table) MissingColumns(required []string) []string {
	var missing []string
	for _, col := range required {
		if !t.HasColumn(col) {
			missing = append(missing, col)
		}
	}
	return missing
}

// Append adds a record to the table
func (t *Table) Append(r Record) {
	t.Rows = append(t.Rows, r)
}

// Len returns the number of records
func (t Table) Len() int {
	return len(t.Rows)
}

// WithoutColumn returns a new table with the column removed from the
// declared order and from every record. Used to discard the transient
// quality-flag column carried by the corrupted extracts.
func (t Table) WithoutColumn(col string) Table {
	if !t.HasColumn(col) {
		return t
	}

	out := NewTable(t.Name, nil)
	for _, c := range t.Columns {
		if c != col {
			out.Columns = append(out.Columns, c)
		}
	}

	out.Rows = make([]Record, 0, len(t.Rows))
	for _, row := range t.Rows {
		nr := row.Clone()
		delete(nr, col)
		out.Rows = append(out.Rows, nr)
	}

	return out
}

// keySeparator joins key parts without colliding with cell content
const keySeparator = "\x1f"

// CompositeKey builds the natural-key string for a record over the
// given columns. The second return is false when any part is missing.
func CompositeKey(r Record, cols ...string) (string, bool) {
	parts := make([]string, 0, len(cols))
	for _, col := range cols {
		v := r.Get(col)
		if v.IsMissing() {
			return "", false
		}
		parts = append(parts, v.Text())
	}
	return strings.Join(parts, keySeparator), true
}

// Fingerprint renders the full record in column order, used to detect
// exact full-row duplicates
func (t Table) Fingerprint(r Record) string {
	parts := make([]string, 0, len(t.Columns))
	for _, col := range t.Columns {
		parts = append(parts, r.Get(col).Text())
	}
	return strings.Join(parts, keySeparator)
}

// KeySet is a set of validated primary-key values produced by a cleaned
// parent table and consumed by child-table referential filters
type KeySet map[string]struct{}

// NewKeySet collects the non-missing values of a column into a set
func NewKeySet(t Table, col string) KeySet {
	set := make(KeySet, len(t.Rows))
	for _, row := range t.Rows {
		if v := row.Get(col); !v.IsMissing() {
			set[v.Text()] = struct{}{}
		}
	}
	return set
}

// Contains reports membership of a key value
func (s KeySet) Contains(key string) bool {
	_, ok := s[key]
	return ok
}

// Len returns the number of retained keys
func (s KeySet) Len() int {
	return len(s)
}
