// pkg/cleaner/sellers.go
package cleaner

import "github.com/olist-analytics/olist-etl/pkg/model"

var sellerColumns = []string{
	"seller_id",
	"seller_zip_code_prefix",
	"seller_city",
	"seller_state",
}

// CleanSellers cleans the seller table and returns the retained
// seller_id key set consumed by the order-items cleaner. Sellers share
// the customer table's geographic invariants.
func (c *Cleaner) CleanSellers(raw model.Table) (model.Table, model.KeySet, *TableReport, error) {
	rep := NewTableReport(raw.Name, raw.Len())

	if err := requireColumns(raw, sellerColumns); err != nil {
		return model.Table{}, nil, nil, err
	}

	t := dropEmptyAndExactDuplicates(raw, rep)
	t = normalizeText(t, "seller_id")
	t = requireIdentifiers(t, rep, "seller_id")
	t = dedupeByKey(t, rep, "seller_id")
	t = repairCityStateZip(t, rep, "seller_city", "seller_state", "seller_zip_code_prefix")
	t = t.WithoutColumn(qualityFlagColumn)

	rep.Complete(t.Len())
	return t, model.NewKeySet(t, "seller_id"), rep, nil
}
