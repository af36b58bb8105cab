package persistence

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateSortOrder(t *testing.T) {
	tests := []struct {
		input, want string
	}{
		{"asc", "ASC"},
		{" ASC ", "ASC"},
		{"desc", "DESC"},
		{"", "DESC"},
		{"asc; DROP TABLE orders", "DESC"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidateSortOrder(tt.input))
		})
	}
}

func TestValidateSortField(t *testing.T) {
	assert.Equal(t, "total_amount", ValidateSortField("total_amount", OrderSortFields, "created_at"))
	assert.Equal(t, "created_at", ValidateSortField("password", OrderSortFields, "created_at"))
	assert.Equal(t, "date", ValidateSortField("", LedgerTransactionSortFields, "date"))
}
