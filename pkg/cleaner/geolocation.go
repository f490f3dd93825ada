// pkg/cleaner/geolocation.go
package cleaner

import (
	"github.com/olist-analytics/olist-etl/pkg/impute"
	"github.com/olist-analytics/olist-etl/pkg/model"
)

var geolocationColumns = []string{
	"geolocation_zip_code_prefix",
	"geolocation_lat",
	"geolocation_lng",
	"geolocation_city",
	"geolocation_state",
}

// CleanGeolocation cleans the geolocation samples. The table has no
// natural key (each row is one location sample), so only exact
// duplicates are removed. A sample lacking any of zip prefix, latitude
// or longitude after repair carries no information and is dropped.
func (c *Cleaner) CleanGeolocation(raw model.Table) (model.Table, *TableReport, error) {
	rep := NewTableReport(raw.Name, raw.Len())

	if err := requireColumns(raw, geolocationColumns); err != nil {
		return model.Table{}, nil, err
	}

	t := dropEmptyAndExactDuplicates(raw, rep)
	t = repairGeolocationFields(t, rep)
	t = t.WithoutColumn(qualityFlagColumn)

	rep.Complete(t.Len())
	return t, rep, nil
}

func repairGeolocationFields(t model.Table, rep *TableReport) model.Table {
	out := model.NewTable(t.Name, t.Columns)

	for _, row := range t.Rows {
		nr := row.Clone()

		nr["geolocation_city"] = lowerCell(nr.Get("geolocation_city"))
		nr["geolocation_state"] = upperCell(nr.Get("geolocation_state"))

		boundFloat(nr, rep, "geolocation_lat", minLatitude, maxLatitude)
		boundFloat(nr, rep, "geolocation_lng", minLongitude, maxLongitude)

		if v := nr.Get("geolocation_zip_code_prefix"); !v.IsMissing() {
			if code, ok := impute.ValidZip(v); ok {
				nr["geolocation_zip_code_prefix"] = model.Int(code)
			} else {
				nr["geolocation_zip_code_prefix"] = model.Missing()
				rep.RecordRepair("geolocation_zip_code_prefix")
			}
		}

		if nr.Get("geolocation_zip_code_prefix").IsMissing() ||
			nr.Get("geolocation_lat").IsMissing() ||
			nr.Get("geolocation_lng").IsMissing() {
			rep.RecordDrop(DropEntityRule)
			continue
		}

		out.Append(nr)
	}

	return out
}
