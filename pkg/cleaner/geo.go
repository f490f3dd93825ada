// pkg/cleaner/geo.go
package cleaner

import (
	"github.com/olist-analytics/olist-etl/pkg/impute"
	"github.com/olist-analytics/olist-etl/pkg/model"
	"github.com/olist-analytics/olist-etl/pkg/textnorm"
)

// brazilStates enumerates the 26 state codes plus the federal district
var brazilStates = map[string]struct{}{
	"AC": {}, "AL": {}, "AP": {}, "AM": {}, "BA": {}, "CE": {}, "DF": {},
	"ES": {}, "GO": {}, "MA": {}, "MT": {}, "MS": {}, "MG": {}, "PA": {},
	"PB": {}, "PR": {}, "PE": {}, "PI": {}, "RJ": {}, "RN": {}, "RS": {},
	"RO": {}, "RR": {}, "SC": {}, "SP": {}, "SE": {}, "TO": {},
}

// Continental bounding box for Brazil. Coordinates outside it are not
// plausible samples and downgrade to missing.
const (
	minLatitude  = -33.75
	maxLatitude  = 5.27
	minLongitude = -73.99
	maxLongitude = -28.84
)

func validState(code string) bool {
	_, ok := brazilStates[code]
	return ok
}

// repairCityStateZip applies the shared geographic repairs used by the
// customer and seller cleaners: city normalized and lowercased, state
// normalized, uppercased and validated against the state-code set, zip
// prefix bounded then imputed from the table's own valid rows, and
// finally city title-cased for output. The imputer is built after
// normalization so grouping keys are consistent, and before title-casing
// so lookups stay case-stable.
func repairCityStateZip(t model.Table, rep *TableReport, cityCol, stateCol, zipCol string) model.Table {
	out := model.NewTable(t.Name, t.Columns)
	out.Rows = make([]model.Record, 0, len(t.Rows))

	for _, row := range t.Rows {
		nr := row.Clone()

		nr[cityCol] = lowerCell(nr.Get(cityCol))

		state := upperCell(nr.Get(stateCol))
		if s, ok := state.Str(); ok && !validState(s) {
			state = model.Missing()
			rep.RecordRepair(stateCol)
		}
		nr[stateCol] = state

		if v := nr.Get(zipCol); !v.IsMissing() {
			if code, ok := impute.ValidZip(v); ok {
				nr[zipCol] = model.Int(code)
			} else {
				nr[zipCol] = model.Missing()
				rep.RecordRepair(zipCol)
			}
		}

		out.Append(nr)
	}

	imputer := impute.NewZipImputer(out, cityCol, stateCol, zipCol)
	for _, row := range out.Rows {
		if row.Get(zipCol).IsMissing() {
			if code, ok := imputer.Impute(row.Get(cityCol), row.Get(stateCol)); ok {
				row[zipCol] = model.Int(code)
				rep.RecordRepair(zipCol)
			}
		}

		if city, ok := row.Get(cityCol).Str(); ok {
			row[cityCol] = model.String(textnorm.TitleCase(city))
		}
	}

	return out
}

// lowerCell normalizes a text cell and lowercases it
func lowerCell(v model.Value) model.Value {
	if v.IsMissing() {
		return v
	}
	s, ok := textnorm.NormalizeLower(v.Text())
	if !ok {
		return model.Missing()
	}
	return model.String(s)
}

// upperCell normalizes a text cell and uppercases it
func upperCell(v model.Value) model.Value {
	if v.IsMissing() {
		return v
	}
	s, ok := textnorm.NormalizeUpper(v.Text())
	if !ok {
		return model.Missing()
	}
	return model.String(s)
}
