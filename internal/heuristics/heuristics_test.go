package heuristics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/peekknuf/dqfix/internal/dataset"
)

func s(v string) dataset.Value { return dataset.String(v) }

func TestParseNumber(t *testing.T) {
	for _, in := range []string{"1", "-2.5", " 3 ", "1e3", "+4"} {
		_, ok := ParseNumber(in)
		assert.True(t, ok, in)
	}
	for _, in := range []string{"", "abc", "NaN", "Inf", "0x10", "1_000", "1,5"} {
		_, ok := ParseNumber(in)
		assert.False(t, ok, in)
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"2024-01-05", "2024-01-05"},
		{"01/06/2024", "2024-01-06"},
		{"13/06/2024", "2024-06-13"},
		{"2024/3/7", "2024-03-07"},
		{"7 Mar 2024", "2024-03-07"},
		{"March 7, 2024", "2024-03-07"},
		{"05.02.2024", "2024-02-05"},
	}
	for _, tt := range tests {
		got, _, ok := ParseDate(tt.in)
		if assert.True(t, ok, tt.in) {
			assert.Equal(t, tt.want, got.Format(ISOLayout), tt.in)
		}
	}

	for _, in := range []string{"invalid-date-text", "2024", "12345", "2024-13-45"} {
		_, _, ok := ParseDate(in)
		assert.False(t, ok, in)
	}
}

func TestDateValueNeverParsesNumbers(t *testing.T) {
	_, _, ok := DateValue(dataset.Number(20240105))
	assert.False(t, ok)
	_, _, ok = DateValue(s("20240105"))
	assert.False(t, ok)

	assert.True(t, IsISODate(s("2024-01-05")))
	assert.False(t, IsISODate(s("01/05/2024")))
	assert.False(t, IsISODate(s(" 2024-01-05")))
}

func TestSensitiveKind(t *testing.T) {
	tests := []struct {
		in   dataset.Value
		want string
	}{
		{s("jane.doe@example.com"), "email"},
		{s("123-45-6789"), "ssn"},
		{s("(555) 123-4567"), "phone"},
		{s("555-123-4567"), "phone"},
		{s("+1 415-555-0123"), "phone"},
		{s("+14155550123"), ""},
		{s("2024-01-05"), ""},
		{s("5551234567"), ""},
		{s(MaskToken), ""},
		{s("hello"), ""},
		{dataset.Number(5551234567), ""},
		{dataset.Missing(), ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SensitiveKind(tt.in), tt.in.GoString())
	}
}

func TestIsUnsafe(t *testing.T) {
	unsafe := []string{"=SUM(A1:A2)", "@cmd", "+cmd|' /C calc'!A0", "-foo", "\tbar"}
	for _, in := range unsafe {
		assert.True(t, IsUnsafe(s(in)), in)
	}
	safe := []string{"-5", "+3.2", "- item", "--", "=", "plain", "'=SUM(A1)", "\t5", "-2024-01-05"}
	for _, in := range safe {
		assert.False(t, IsUnsafe(s(in)), in)
	}
	assert.False(t, IsUnsafe(dataset.Number(-1)))
}

func TestProfileColumn(t *testing.T) {
	cells := []dataset.Value{
		s("2024-01-05"), s("01/06/2024"), s("nope"), dataset.Missing(), dataset.Number(3), s(MaskToken),
	}
	p := ProfileColumn("created_at", cells, false)

	assert.Equal(t, 6, p.Rows)
	assert.Equal(t, 1, p.Missing)
	assert.Equal(t, 5, p.NonMissing)
	assert.Equal(t, 1, p.Numeric)
	assert.Equal(t, 2, p.DateLike)
	assert.Equal(t, 1, p.Masked)
	assert.False(t, p.MostlyDateLike())
	assert.True(t, p.IsDateDesignated(), "named like a date column")

	layout, n := p.DominantLayout()
	assert.Equal(t, 0, layout, "ties go to ISO")
	assert.Equal(t, 1, n)
}

func TestNumericProfile(t *testing.T) {
	p := ProfileColumn("age", []dataset.Value{s("34"), dataset.Number(40), dataset.Missing()}, false)
	assert.True(t, p.IsNumeric())
	assert.True(t, p.MostlyNumeric())
	assert.False(t, p.MostlyDateLike())
	assert.True(t, p.IsAgeLike())
	assert.True(t, p.InDomain(120))
	assert.False(t, p.InDomain(-1))
	assert.False(t, p.InDomain(150))

	other := ProfileColumn("amount", []dataset.Value{dataset.Number(-10)}, false)
	assert.True(t, other.InDomain(-10))
}

func TestHasDateName(t *testing.T) {
	for _, n := range []string{"order_date", "created_at", "Event Time", "timestamp", "DOB"} {
		assert.True(t, HasDateName(n), n)
	}
	for _, n := range []string{"at", "name", "update", "category"} {
		assert.False(t, HasDateName(n), n)
	}
}

func TestInferKeyColumns(t *testing.T) {
	names := []string{"id", "customer_id", "uuid", "idea", "name"}

	keys := InferKeyColumns(names, nil)
	assert.Equal(t, map[string]bool{"id": true, "customer_id": true, "uuid": true}, keys)

	keys = InferKeyColumns(names, []string{"name", "absent"})
	assert.Equal(t, map[string]bool{"name": true}, keys)

	keys = InferKeyColumns(names, []string{"absent"})
	assert.Empty(t, keys, "a configured list is authoritative")
}

func TestDateLayoutsParseToMidnightUTC(t *testing.T) {
	got, _, ok := ParseDate("2024-02-29")
	assert.True(t, ok)
	assert.Equal(t, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), got)
}

func TestCanonical(t *testing.T) {
	assert.Equal(t, Canonical(s("1")), Canonical(dataset.Number(1)))
	assert.Equal(t, Canonical(s("1.0")), Canonical(s("1")))
	assert.Equal(t, Canonical(s("2024-01-05")), Canonical(s("01/05/2024")))
	assert.NotEqual(t, Canonical(s("a")), Canonical(s("A")))
}
