// pkg/cleaner/categories.go
package cleaner

import "github.com/olist-analytics/olist-etl/pkg/model"

var categoryColumns = []string{
	"product_category_name",
	"product_category_name_english",
}

// unknownTranslation is the sentinel for categories with no known
// English name
const unknownTranslation = "unknown"

// englishCorrections maps known typos and duplicate spellings on the
// English side to their canonical form
var englishCorrections = map[string]string{
	"home_confort":      "home_comfort",
	"home_comfort_2":    "home_comfort",
	"home_appliances_2": "home_appliances",
}

// supplementaryTranslations are published category mappings absent from
// the raw translation extract; they fill a missing English name before
// the unknown sentinel applies
var supplementaryTranslations = map[string]string{
	"pc_gamer": "pc_gamer",
	"portateis_cozinha_e_preparadores_de_alimentos": "kitchen_portables_and_food_preparators",
}

// CleanCategoryTranslation cleans the category translation lookup. Both
// name columns are normalized and lowercased; fixed correction tables
// resolve known typos on each side independently; a missing English
// translation is filled from the supplementary lookup or, failing that,
// the "unknown" sentinel, so no cleaned row carries a blank translation.
func (c *Cleaner) CleanCategoryTranslation(raw model.Table) (model.Table, *TableReport, error) {
	rep := NewTableReport(raw.Name, raw.Len())

	if err := requireColumns(raw, categoryColumns); err != nil {
		return model.Table{}, nil, err
	}

	t := dropEmptyAndExactDuplicates(raw, rep)
	t = repairCategoryFields(t, rep)
	t = requireIdentifiers(t, rep, "product_category_name")
	t = dedupeByKey(t, rep, "product_category_name")
	t = t.WithoutColumn(qualityFlagColumn)

	rep.Complete(t.Len())
	return t, rep, nil
}

func repairCategoryFields(t model.Table, rep *TableReport) model.Table {
	out := model.NewTable(t.Name, t.Columns)
	out.Rows = make([]model.Record, 0, len(t.Rows))

	for _, row := range t.Rows {
		nr := row.Clone()

		name := lowerCell(nr.Get("product_category_name"))
		if s, ok := name.Str(); ok {
			if canonical, found := categoryCorrections[s]; found {
				name = model.String(canonical)
				rep.RecordRepair("product_category_name")
			}
		}
		nr["product_category_name"] = name

		english := lowerCell(nr.Get("product_category_name_english"))
		if s, ok := english.Str(); ok {
			if canonical, found := englishCorrections[s]; found {
				english = model.String(canonical)
				rep.RecordRepair("product_category_name_english")
			}
		}

		if english.IsMissing() {
			if s, ok := name.Str(); ok {
				if known, found := supplementaryTranslations[s]; found {
					english = model.String(known)
				}
			}
			if english.IsMissing() {
				english = model.String(unknownTranslation)
			}
			rep.RecordRepair("product_category_name_english")
		}
		nr["product_category_name_english"] = english

		out.Append(nr)
	}

	return out
}
