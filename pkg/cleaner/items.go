// pkg/cleaner/items.go
package cleaner

import "github.com/olist-analytics/olist-etl/pkg/model"

var orderItemColumns = []string{
	"order_id",
	"order_item_id",
	"product_id",
	"seller_id",
	"shipping_limit_date",
	"price",
	"freight_value",
}

// Dataset-plausible ceilings for item monetary fields. The most expensive
// item ever observed is four figures; anything past these bounds is a
// corrupted cell, not a price.
const (
	maxItemPrice    = 50000.0
	maxFreightValue = 10000.0
)

// CleanOrderItems cleans the order-item fact rows, filtering against the
// cleaned order, product and seller key sets. Records without a valid
// price are dropped: price is load-bearing for downstream revenue
// aggregation, so a priceless item carries no analytical value.
func (c *Cleaner) CleanOrderItems(raw model.Table, orders, products, sellers model.KeySet) (model.Table, *TableReport, error) {
	rep := NewTableReport(raw.Name, raw.Len())

	if err := requireColumns(raw, orderItemColumns); err != nil {
		return model.Table{}, nil, err
	}

	t := dropEmptyAndExactDuplicates(raw, rep)
	t = normalizeText(t, "order_id", "product_id", "seller_id")
	t = coerceItemSequence(t, rep)
	t = requireIdentifiers(t, rep, "order_id", "order_item_id", "product_id", "seller_id")
	t = filterOrphans(t, rep, "order_id", orders)
	t = filterOrphans(t, rep, "product_id", products)
	t = filterOrphans(t, rep, "seller_id", sellers)
	t = dedupeByKey(t, rep, "order_id", "order_item_id")
	t = repairItemFields(t, rep)
	t = t.WithoutColumn(qualityFlagColumn)

	rep.Complete(t.Len())
	return t, rep, nil
}

// coerceItemSequence parses order_item_id into a positive integer; a
// cell that cannot be a sequence number leaves the identifier missing
// for requireIdentifiers to drop
func coerceItemSequence(t model.Table, rep *TableReport) model.Table {
	out := model.NewTable(t.Name, t.Columns)
	out.Rows = make([]model.Record, 0, len(t.Rows))

	for _, row := range t.Rows {
		nr := row.Clone()
		if v := nr.Get("order_item_id"); !v.IsMissing() {
			if seq, ok := v.AsInt(); ok && seq >= 1 {
				nr["order_item_id"] = model.Int(seq)
			} else {
				nr["order_item_id"] = model.Missing()
				rep.RecordRepair("order_item_id")
			}
		}
		out.Append(nr)
	}

	return out
}

func repairItemFields(t model.Table, rep *TableReport) model.Table {
	out := model.NewTable(t.Name, t.Columns)

	for _, row := range t.Rows {
		nr := row.Clone()

		repairTimestamp(nr, rep, "shipping_limit_date")
		boundPositiveFloat(nr, rep, "price", maxItemPrice)
		boundFloat(nr, rep, "freight_value", 0, maxFreightValue)

		if nr.Get("price").IsMissing() {
			rep.RecordDrop(DropEntityRule)
			continue
		}

		out.Append(nr)
	}

	return out
}
