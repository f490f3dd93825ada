// pkg/cleaner/customers.go
package cleaner

import (
	"strings"

	"github.com/olist-analytics/olist-etl/pkg/model"
)

var customerColumns = []string{
	"customer_id",
	"customer_unique_id",
	"customer_zip_code_prefix",
	"customer_city",
	"customer_state",
}

// placeholderMarker is the suffix the corrupted extracts append to
// synthetic identifiers. A customer carrying it with neither city nor
// state is unrecoverable and is dropped.
const placeholderMarker = "_dirty"

// CleanCustomers cleans the customer table and returns the retained
// customer_id key set consumed by the orders cleaner.
func (c *Cleaner) CleanCustomers(raw model.Table) (model.Table, model.KeySet, *TableReport, error) {
	rep := NewTableReport(raw.Name, raw.Len())

	if err := requireColumns(raw, customerColumns); err != nil {
		return model.Table{}, nil, nil, err
	}

	t := dropEmptyAndExactDuplicates(raw, rep)
	t = normalizeText(t, "customer_id", "customer_unique_id")
	t = requireIdentifiers(t, rep, "customer_id")
	t = dedupeByKey(t, rep, "customer_id")
	t = repairCityStateZip(t, rep, "customer_city", "customer_state", "customer_zip_code_prefix")
	t = dropUnrecoverablePlaceholders(t, rep)
	t = t.WithoutColumn(qualityFlagColumn)

	rep.Complete(t.Len())
	return t, model.NewKeySet(t, "customer_id"), rep, nil
}

// dropUnrecoverablePlaceholders removes customers whose identifier
// carries the synthetic placeholder marker and whose city and state are
// both missing: no geographic repair can recover them
func dropUnrecoverablePlaceholders(t model.Table, rep *TableReport) model.Table {
	out := model.NewTable(t.Name, t.Columns)

	for _, row := range t.Rows {
		id, _ := row.Get("customer_id").Str()
		if strings.HasSuffix(strings.ToLower(id), placeholderMarker) &&
			row.Get("customer_city").IsMissing() &&
			row.Get("customer_state").IsMissing() {
			rep.RecordDrop(DropEntityRule)
			continue
		}
		out.Append(row)
	}

	return out
}
