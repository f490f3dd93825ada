// pkg/cleaner/payments.go
package cleaner

import "github.com/olist-analytics/olist-etl/pkg/model"

var paymentColumns = []string{
	"order_id",
	"payment_sequential",
	"payment_type",
	"payment_installments",
	"payment_value",
}

// Plausible ranges for payment fields. A single order never splits into
// more than a few dozen payments, installment plans cap at four years,
// and the largest real payment is five figures.
const (
	maxPaymentSequential   = 100
	maxPaymentInstallments = 48
	maxPaymentValue        = 100000.0
)

// CleanPayments cleans the payment table, filtering against the cleaned
// order key set. Records without a valid payment value are dropped.
func (c *Cleaner) CleanPayments(raw model.Table, orders model.KeySet) (model.Table, *TableReport, error) {
	rep := NewTableReport(raw.Name, raw.Len())

	if err := requireColumns(raw, paymentColumns); err != nil {
		return model.Table{}, nil, err
	}

	t := dropEmptyAndExactDuplicates(raw, rep)
	t = normalizeText(t, "order_id")
	t = coercePaymentSequence(t, rep)
	t = requireIdentifiers(t, rep, "order_id", "payment_sequential")
	t = filterOrphans(t, rep, "order_id", orders)
	t = dedupeByKey(t, rep, "order_id", "payment_sequential")
	t = repairPaymentFields(t, rep)
	t = t.WithoutColumn(qualityFlagColumn)

	rep.Complete(t.Len())
	return t, rep, nil
}

// coercePaymentSequence parses payment_sequential into the key range;
// a cell outside it leaves the identifier missing for
// requireIdentifiers to drop
func coercePaymentSequence(t model.Table, rep *TableReport) model.Table {
	out := model.NewTable(t.Name, t.Columns)
	out.Rows = make([]model.Record, 0, len(t.Rows))

	for _, row := range t.Rows {
		nr := row.Clone()
		if v := nr.Get("payment_sequential"); !v.IsMissing() {
			if seq, ok := v.AsInt(); ok && seq >= 1 && seq <= maxPaymentSequential {
				nr["payment_sequential"] = model.Int(seq)
			} else {
				nr["payment_sequential"] = model.Missing()
				rep.RecordRepair("payment_sequential")
			}
		}
		out.Append(nr)
	}

	return out
}

func repairPaymentFields(t model.Table, rep *TableReport) model.Table {
	out := model.NewTable(t.Name, t.Columns)

	for _, row := range t.Rows {
		nr := row.Clone()

		nr["payment_type"] = lowerCell(nr.Get("payment_type"))
		boundInt(nr, rep, "payment_installments", 1, maxPaymentInstallments)
		boundPositiveFloat(nr, rep, "payment_value", maxPaymentValue)

		if nr.Get("payment_value").IsMissing() {
			rep.RecordDrop(DropEntityRule)
			continue
		}

		out.Append(nr)
	}

	return out
}
