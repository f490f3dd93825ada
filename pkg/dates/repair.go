// pkg/dates/repair.go

// Package dates repairs raw date/time strings from the extracts. Parsing
// never fails a row: every input resolves to a valid timestamp or to the
// explicit missing value.
package dates

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/olist-analytics/olist-etl/pkg/model"
	"github.com/olist-analytics/olist-etl/pkg/textnorm"
)

// Epoch bounds of the dataset. Timestamps resolved outside this window
// are not trusted and are forced back to missing by ClampEpoch.
var (
	EpochMin = time.Date(2016, time.January, 1, 0, 0, 0, 0, time.UTC)
	EpochMax = time.Date(2018, time.December, 31, 23, 59, 59, 0, time.UTC)
)

// standardLayouts cover ISO-8601 and the other unambiguous formats seen
// in the raw extracts
var standardLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006/01/02 15:04:05",
	"2006/01/02",
}

// dayFirstLayouts retry unresolved values under day/month/year ordering
var dayFirstLayouts = []string{
	"02/01/2006 15:04:05",
	"02/01/2006",
	"02-01-2006 15:04:05",
	"02-01-2006",
}

// Repair parses one raw date/time string through three escalating passes:
// standard formats, day-first formats, then a strict manual slash parse
// that validates month, epoch year, and calendar day length. Anything
// still unresolved is missing, never an error.
func Repair(raw string) model.Value {
	s := strings.TrimSpace(raw)
	if textnorm.IsNullToken(s) {
		return model.Missing()
	}

	for _, layout := range standardLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return model.Time(t)
		}
	}

	for _, layout := range dayFirstLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return model.Time(t)
		}
	}

	if strings.Contains(s, "/") {
		if t, ok := parseSlashDayFirst(s); ok {
			return model.Time(t)
		}
	}

	return model.Missing()
}

// RepairAll repairs a sequence of raw values into a parallel sequence of
// timestamps or explicit missing
func RepairAll(raws []string) []model.Value {
	out := make([]model.Value, len(raws))
	for i, raw := range raws {
		out[i] = Repair(raw)
	}
	return out
}

// ClampEpoch forces a resolved timestamp outside the dataset epoch back
// to missing. Missing and non-time values pass through unchanged.
func ClampEpoch(v model.Value) model.Value {
	t, ok := v.TimeVal()
	if !ok {
		return v
	}
	if t.Before(EpochMin) || t.After(EpochMax) {
		return model.Missing()
	}
	return v
}

// parseSlashDayFirst is the strict manual pass for day/month/year strings
// the layout parsers rejected. The date part splits on slash into integer
// day, month, year; an optional trailing time-of-day defaults to midnight.
// Out-of-range components reject the value rather than clamping it:
// month outside [1,12], year outside the dataset epoch, or day exceeding
// the calendar length of the (year, month) pair, leap years included.
func parseSlashDayFirst(s string) (time.Time, bool) {
	datePart := s
	timePart := "00:00:00"

	if idx := strings.IndexByte(s, ' '); idx >= 0 {
		datePart = s[:idx]
		timePart = strings.TrimSpace(s[idx+1:])
	}

	fields := strings.Split(datePart, "/")
	if len(fields) != 3 {
		return time.Time{}, false
	}

	day, err1 := strconv.Atoi(strings.TrimSpace(fields[0]))
	month, err2 := strconv.Atoi(strings.TrimSpace(fields[1]))
	year, err3 := strconv.Atoi(strings.TrimSpace(fields[2]))
	if err1 != nil || err2 != nil || err3 != nil {
		return time.Time{}, false
	}

	if month < 1 || month > 12 {
		return time.Time{}, false
	}
	if year < EpochMin.Year() || year > EpochMax.Year() {
		return time.Time{}, false
	}
	if day < 1 || day > daysInMonth(year, month) {
		return time.Time{}, false
	}

	canonical := fmt.Sprintf("%04d-%02d-%02d %s", year, month, day, timePart)
	t, err := time.Parse(model.TimeLayout, canonical)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// daysInMonth returns the calendar length of a month, leap-aware.
// Day zero of the next month normalizes to the last day of this one.
func daysInMonth(year, month int) int {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
