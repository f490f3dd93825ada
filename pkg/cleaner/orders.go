// pkg/cleaner/orders.go
package cleaner

import "github.com/olist-analytics/olist-etl/pkg/model"

var orderColumns = []string{
	"order_id",
	"customer_id",
	"order_status",
	"order_purchase_timestamp",
	"order_approved_at",
	"order_delivered_carrier_date",
	"order_delivered_customer_date",
	"order_estimated_delivery_date",
}

var orderTimestampColumns = []string{
	"order_purchase_timestamp",
	"order_approved_at",
	"order_delivered_carrier_date",
	"order_delivered_customer_date",
	"order_estimated_delivery_date",
}

// CleanOrders cleans the order table, filtering against the cleaned
// customer key set, and returns the retained order_id key set consumed
// by the order-items, payments and reviews cleaners.
//
// Lifecycle monotonicity policy: an approved-at timestamp earlier than
// the purchase timestamp is clamped to the purchase timestamp (the order
// stays usable for revenue analysis); a carrier hand-off earlier than
// approval, or a customer delivery earlier than the carrier hand-off, is
// unknowable and downgrades to missing.
func (c *Cleaner) CleanOrders(raw model.Table, customers model.KeySet) (model.Table, model.KeySet, *TableReport, error) {
	rep := NewTableReport(raw.Name, raw.Len())

	if err := requireColumns(raw, orderColumns); err != nil {
		return model.Table{}, nil, nil, err
	}

	t := dropEmptyAndExactDuplicates(raw, rep)
	t = normalizeText(t, "order_id", "customer_id")
	t = requireIdentifiers(t, rep, "order_id", "customer_id")
	t = filterOrphans(t, rep, "customer_id", customers)
	t = dedupeByKey(t, rep, "order_id")
	t = repairOrderFields(t, rep)
	t = t.WithoutColumn(qualityFlagColumn)

	rep.Complete(t.Len())
	return t, model.NewKeySet(t, "order_id"), rep, nil
}

func repairOrderFields(t model.Table, rep *TableReport) model.Table {
	out := model.NewTable(t.Name, t.Columns)
	out.Rows = make([]model.Record, 0, len(t.Rows))

	for _, row := range t.Rows {
		nr := row.Clone()

		nr["order_status"] = lowerCell(nr.Get("order_status"))

		for _, col := range orderTimestampColumns {
			repairTimestamp(nr, rep, col)
		}

		enforceOrderChronology(nr, rep)
		out.Append(nr)
	}

	return out
}

// enforceOrderChronology repairs pairwise violations of the lifecycle
// order purchase <= approved <= carrier <= customer
func enforceOrderChronology(row model.Record, rep *TableReport) {
	purchase, hasPurchase := row.Get("order_purchase_timestamp").TimeVal()
	approved, hasApproved := row.Get("order_approved_at").TimeVal()

	if hasPurchase && hasApproved && approved.Before(purchase) {
		row["order_approved_at"] = model.Time(purchase)
		approved = purchase
		rep.RecordRepair("order_approved_at")
	}

	carrier, hasCarrier := row.Get("order_delivered_carrier_date").TimeVal()
	if hasApproved && hasCarrier && carrier.Before(approved) {
		row["order_delivered_carrier_date"] = model.Missing()
		hasCarrier = false
		rep.RecordRepair("order_delivered_carrier_date")
	}

	if delivered, ok := row.Get("order_delivered_customer_date").TimeVal(); ok {
		if hasCarrier && delivered.Before(carrier) {
			row["order_delivered_customer_date"] = model.Missing()
			rep.RecordRepair("order_delivered_customer_date")
		}
	}
}
