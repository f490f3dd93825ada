// pkg/dates/repair_test.go
package dates

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olist-analytics/olist-etl/pkg/model"
)

func mustTime(t *testing.T, v model.Value) time.Time {
	t.Helper()
	ts, ok := v.TimeVal()
	require.True(t, ok, "expected a resolved timestamp, got %s", v.Kind())
	return ts
}

func TestRepairStandardFormats(t *testing.T) {
	want := time.Date(2017, time.May, 3, 14, 30, 0, 0, time.UTC)

	for _, raw := range []string{
		"2017-05-03 14:30:00",
		"2017-05-03T14:30:00",
		"2017/05/03 14:30:00",
	} {
		got := mustTime(t, Repair(raw))
		assert.True(t, want.Equal(got), "parsing %q got %v", raw, got)
	}
}

func TestRepairDateOnly(t *testing.T) {
	got := mustTime(t, Repair("2017-05-03"))
	assert.True(t, time.Date(2017, time.May, 3, 0, 0, 0, 0, time.UTC).Equal(got))
}

func TestRepairDayFirst(t *testing.T) {
	// 31/05/2017 can only be day-first
	got := mustTime(t, Repair("31/05/2017"))
	assert.True(t, time.Date(2017, time.May, 31, 0, 0, 0, 0, time.UTC).Equal(got))

	got = mustTime(t, Repair("31/05/2017 08:15:00"))
	assert.True(t, time.Date(2017, time.May, 31, 8, 15, 0, 0, time.UTC).Equal(got))
}

func TestRepairRejectsImpossibleDates(t *testing.T) {
	// April has 30 days
	assert.True(t, Repair("31/04/2017").IsMissing())

	// No thirteenth month
	assert.True(t, Repair("15/13/2017").IsMissing())

	// 2017 is not a leap year
	assert.True(t, Repair("29/02/2017").IsMissing())
}

func TestRepairAcceptsLeapDay(t *testing.T) {
	got := mustTime(t, Repair("29/02/2016"))
	assert.True(t, time.Date(2016, time.February, 29, 0, 0, 0, 0, time.UTC).Equal(got))
}

func TestRepairMissingInputs(t *testing.T) {
	for _, raw := range []string{"", "  ", "nan", "NaT", "null", "not a date"} {
		assert.True(t, Repair(raw).IsMissing(), "expected %q to resolve to missing", raw)
	}
}

func TestRepairNeverPanics(t *testing.T) {
	inputs := []string{"//", "1/2", "a/b/c", "99/99/9999", "2017-99-99", "///  "}
	for _, raw := range inputs {
		assert.NotPanics(t, func() { Repair(raw) })
	}
}

func TestRepairAll(t *testing.T) {
	out := RepairAll([]string{"2017-05-03", "garbage", ""})
	require.Len(t, out, 3)
	assert.False(t, out[0].IsMissing())
	assert.True(t, out[1].IsMissing())
	assert.True(t, out[2].IsMissing())
}

func TestClampEpoch(t *testing.T) {
	inside := model.Time(time.Date(2017, time.June, 1, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, inside, ClampEpoch(inside))

	before := model.Time(time.Date(2015, time.December, 31, 23, 59, 59, 0, time.UTC))
	assert.True(t, ClampEpoch(before).IsMissing())

	after := model.Time(time.Date(2019, time.January, 1, 0, 0, 0, 0, time.UTC))
	assert.True(t, ClampEpoch(after).IsMissing())

	// Non-time values pass through
	assert.True(t, ClampEpoch(model.Missing()).IsMissing())
	s := model.String("x")
	assert.Equal(t, s, ClampEpoch(s))
}

func TestRepairThenClampOutsideEpoch(t *testing.T) {
	// The layout pass resolves the date; the epoch clamp rejects it
	v := Repair("31/01/2015")
	require.False(t, v.IsMissing())
	assert.True(t, ClampEpoch(v).IsMissing())
}
