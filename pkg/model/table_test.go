// pkg/model/table_test.go
package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompositeKey(t *testing.T) {
	r := Record{"a": String("x"), "b": Int(2)}

	key, ok := CompositeKey(r, "a", "b")
	require.True(t, ok)
	assert.Equal(t, "x\x1f2", key)

	_, ok = CompositeKey(r, "a", "missing_col")
	assert.False(t, ok)
}

func TestWithoutColumn(t *testing.T) {
	table := NewTable("t", []string{"a", "flag"})
	table.Append(Record{"a": String("1"), "flag": String("dup")})

	out := table.WithoutColumn("flag")
	assert.Equal(t, []string{"a"}, out.Columns)
	_, exists := out.Rows[0]["flag"]
	assert.False(t, exists)

	// Input table is untouched
	assert.Equal(t, []string{"a", "flag"}, table.Columns)
	_, exists = table.Rows[0]["flag"]
	assert.True(t, exists)
}

func TestNewKeySet(t *testing.T) {
	table := NewTable("t", []string{"id"})
	table.Append(Record{"id": String("a")})
	table.Append(Record{"id": Missing()})
	table.Append(Record{"id": String("b")})

	set := NewKeySet(table, "id")
	assert.Equal(t, 2, set.Len())
	assert.True(t, set.Contains("a"))
	assert.False(t, set.Contains("c"))
}

func TestRecordIsEmpty(t *testing.T) {
	assert.True(t, Record{"a": Missing()}.IsEmpty())
	assert.False(t, Record{"a": String("x")}.IsEmpty())
}

func TestFingerprintDetectsExactDuplicates(t *testing.T) {
	table := NewTable("t", []string{"a", "b"})
	r1 := Record{"a": String("1"), "b": String("2")}
	r2 := Record{"a": String("1"), "b": String("2")}
	r3 := Record{"a": String("1"), "b": String("3")}

	assert.Equal(t, table.Fingerprint(r1), table.Fingerprint(r2))
	assert.NotEqual(t, table.Fingerprint(r1), table.Fingerprint(r3))
}
