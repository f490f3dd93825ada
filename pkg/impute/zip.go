// pkg/impute/zip.go

// Package impute fills invalid postal-code prefixes using the
// statistical mode of codes observed for the same geographic grouping.
// It never fabricates a code unseen in the valid subset of the table.
package impute

import (
	"strings"

	"github.com/olist-analytics/olist-etl/pkg/model"
)

// Zip prefixes are valid in [MinZipPrefix, MaxZipPrefix]
const (
	MinZipPrefix = 1
	MaxZipPrefix = 99999
)

// ValidZip coerces a value to an integer zip prefix and reports whether
// it lies within the valid range
func ValidZip(v model.Value) (int64, bool) {
	code, ok := v.AsInt()
	if !ok {
		return 0, false
	}
	if code < MinZipPrefix || code > MaxZipPrefix {
		return 0, false
	}
	return code, true
}

// ZipImputer holds two lookups built from rows that already carry a valid
// code: (city, state) to the most frequent code among rows sharing that
// pair, and state alone as the fallback tier. Ties between equally
// frequent codes break to the smallest numeric code, so a fixed input
// produces identical output regardless of map iteration order.
type ZipImputer struct {
	byCityState map[string]int64
	byState     map[string]int64
}

// NewZipImputer builds the lookups from the table's valid rows. City and
// state cells are matched case-insensitively; rows missing the grouping
// key contribute only to the tiers their keys support.
func NewZipImputer(t model.Table, cityCol, stateCol, zipCol string) *ZipImputer {
	cityStateCounts := make(map[string]map[int64]int)
	stateCounts := make(map[string]map[int64]int)

	for _, row := range t.Rows {
		code, ok := ValidZip(row.Get(zipCol))
		if !ok {
			continue
		}

		city, cityOK := groupKey(row.Get(cityCol))
		state, stateOK := groupKey(row.Get(stateCol))

		if cityOK && stateOK {
			tally(cityStateCounts, city+"\x1f"+state, code)
		}
		if stateOK {
			tally(stateCounts, state, code)
		}
	}

	return &ZipImputer{
		byCityState: reduceToMode(cityStateCounts),
		byState:     reduceToMode(stateCounts),
	}
}

// Impute resolves a plausible zip prefix for the given city and state:
// first the (city, state) mode, then the state-only mode. The second
// return is false when both tiers miss, in which case the caller leaves
// the value missing.
func (z *ZipImputer) Impute(city, state model.Value) (int64, bool) {
	cityKey, cityOK := groupKey(city)
	stateKey, stateOK := groupKey(state)

	if cityOK && stateOK {
		if code, ok := z.byCityState[cityKey+"\x1f"+stateKey]; ok {
			return code, true
		}
	}
	if stateOK {
		if code, ok := z.byState[stateKey]; ok {
			return code, true
		}
	}
	return 0, false
}

func groupKey(v model.Value) (string, bool) {
	s, ok := v.Str()
	if !ok {
		return "", false
	}
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return "", false
	}
	return s, true
}

func tally(counts map[string]map[int64]int, key string, code int64) {
	group, ok := counts[key]
	if !ok {
		group = make(map[int64]int)
		counts[key] = group
	}
	group[code]++
}

// reduceToMode picks each group's most frequent code; ties break to the
// smallest code
func reduceToMode(counts map[string]map[int64]int) map[string]int64 {
	modes := make(map[string]int64, len(counts))
	for key, group := range counts {
		var best int64
		bestCount := 0
		for code, count := range group {
			if count > bestCount || (count == bestCount && code < best) {
				best = code
				bestCount = count
			}
		}
		modes[key] = best
	}
	return modes
}
