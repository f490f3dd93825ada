// pkg/cleaner/products.go
package cleaner

import "github.com/olist-analytics/olist-etl/pkg/model"

var productColumns = []string{
	"product_id",
	"product_category_name",
	"product_name_lenght",
	"product_description_lenght",
	"product_photos_qty",
	"product_weight_g",
	"product_length_cm",
	"product_height_cm",
	"product_width_cm",
}

// Physical ceilings: the marketplace ships parcels, not freight pallets
const (
	maxProductWeightG     = 60000
	maxProductDimensionCm = 300
)

// categoryCorrections maps the known misspelled or duplicated raw
// category names to their canonical spellings
var categoryCorrections = map[string]string{
	"eletrodomesticos_2": "eletrodomesticos",
	"casa_conforto_2":    "casa_conforto",
}

// CleanProducts cleans the product table and returns the retained
// product_id key set consumed by the order-items cleaner
func (c *Cleaner) CleanProducts(raw model.Table) (model.Table, model.KeySet, *TableReport, error) {
	rep := NewTableReport(raw.Name, raw.Len())

	if err := requireColumns(raw, productColumns); err != nil {
		return model.Table{}, nil, nil, err
	}

	t := dropEmptyAndExactDuplicates(raw, rep)
	t = normalizeText(t, "product_id")
	t = requireIdentifiers(t, rep, "product_id")
	t = dedupeByKey(t, rep, "product_id")
	t = repairProductFields(t, rep)
	t = t.WithoutColumn(qualityFlagColumn)

	rep.Complete(t.Len())
	return t, model.NewKeySet(t, "product_id"), rep, nil
}

func repairProductFields(t model.Table, rep *TableReport) model.Table {
	out := model.NewTable(t.Name, t.Columns)
	out.Rows = make([]model.Record, 0, len(t.Rows))

	for _, row := range t.Rows {
		nr := row.Clone()

		category := lowerCell(nr.Get("product_category_name"))
		if s, ok := category.Str(); ok {
			if canonical, found := categoryCorrections[s]; found {
				category = model.String(canonical)
				rep.RecordRepair("product_category_name")
			}
		}
		nr["product_category_name"] = category

		boundInt(nr, rep, "product_name_lenght", 1, 1000)
		boundInt(nr, rep, "product_description_lenght", 1, 100000)
		boundInt(nr, rep, "product_photos_qty", 1, 100)
		boundInt(nr, rep, "product_weight_g", 1, maxProductWeightG)
		boundInt(nr, rep, "product_length_cm", 1, maxProductDimensionCm)
		boundInt(nr, rep, "product_height_cm", 1, maxProductDimensionCm)
		boundInt(nr, rep, "product_width_cm", 1, maxProductDimensionCm)

		out.Append(nr)
	}

	return out
}
