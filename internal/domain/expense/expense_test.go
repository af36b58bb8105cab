package expense

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewExpense(t *testing.T) {
	tenantID := uuid.New()
	at := time.Date(2024, 2, 10, 22, 30, 0, 0, time.UTC)

	e, err := NewExpense(tenantID, Input{Title: " Highway ", Amount: decimal.NewFromInt(1320), Date: at})
	require.NoError(t, err)
	assert.Equal(t, "Highway", e.Title)
	assert.Equal(t, time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC), e.Date)

	tests := []struct {
		name string
		in   Input
	}{
		{"missing title", Input{Amount: decimal.NewFromInt(1), Date: at}},
		{"negative amount", Input{Title: "x", Amount: decimal.NewFromInt(-1), Date: at}},
		{"missing date", Input{Title: "x", Amount: decimal.NewFromInt(1)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewExpense(tenantID, tt.in)
			assert.Error(t, err)
		})
	}
}

func TestCategory_Update(t *testing.T) {
	c, err := NewCategory(uuid.New(), "Fuel", "")
	require.NoError(t, err)
	require.NoError(t, c.Update("Highway", "tolls"))
	assert.Equal(t, "Highway", c.Name)
	assert.Error(t, c.Update("", ""))
}
