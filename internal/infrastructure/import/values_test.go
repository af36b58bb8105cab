package csvimport

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		raw  string
		want time.Time
	}{
		{"2024-01-05", time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)},
		{"2024/01/05", time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)},
		{"25/12/2024", time.Date(2024, 12, 25, 0, 0, 0, 0, time.UTC)},
		{"12/25/2024", time.Date(2024, 12, 25, 0, 0, 0, 0, time.UTC)},
		{"05/01/2024", time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)},
		{"20240105", time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)},
		{"5/1/2024", time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)},
		{"2024/1/5", time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)},
		{"2024-1-5", time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)},
		{"1/12/2024", time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC)},
		{"12/25/2024", time.Date(2024, 12, 25, 0, 0, 0, 0, time.UTC)},
		{"3/25/2024", time.Date(2024, 3, 25, 0, 0, 0, 0, time.UTC)},
		{"２０２４－０１－０５", time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)},
		{"2024-01-05 00:00:00", time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)},
		{" 2024-01-05 ", time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseDate(tt.raw)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %s", got)
		})
	}

	for _, raw := range []string{"", "yesterday", "2024-13-45", "32/13/2024"} {
		_, err := ParseDate(raw)
		assert.Error(t, err, raw)
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		raw  string
		want int64
	}{
		{"1200", 1200},
		{"1,200", 1200},
		{"¥1,200", 1200},
		{"￥１，２００", 1200},
		{"$ 50", 50},
		{"(300)", 300},
		{"-75", 75},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseAmount(tt.raw)
			require.NoError(t, err)
			assert.True(t, decimal.NewFromInt(tt.want).Equal(got), "got %s", got)
		})
	}

	got, err := ParseAmount("12.50")
	require.NoError(t, err)
	assert.Equal(t, "12.5", got.String())

	for _, raw := range []string{"", "abc", "()", "1.2.3"} {
		_, err := ParseAmount(raw)
		assert.Error(t, err, raw)
	}

	zero, err := ParseOptionalAmount(" ")
	require.NoError(t, err)
	assert.True(t, zero.IsZero())
}

func TestColumn(t *testing.T) {
	fields := []string{"a", "b", "c"}

	v, ok := Column(fields, 0)
	assert.True(t, ok)
	assert.Equal(t, "a", v)

	v, ok = Column(fields, -1)
	assert.True(t, ok)
	assert.Equal(t, "c", v)

	_, ok = Column(fields, 3)
	assert.False(t, ok)
	_, ok = Column(fields, -4)
	assert.False(t, ok)
}
