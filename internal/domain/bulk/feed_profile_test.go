package bulk

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/huzaifanasir-fabtechsol/backend/internal/domain/shared"
)

func TestBuiltInProfiles(t *testing.T) {
	sheet := ExpenseSheetProfile()
	assert.NoError(t, sheet.Validate())
	assert.True(t, sheet.CreatesExpenses())
	assert.True(t, sheet.MatchExternalID)
	assert.Equal(t, 3, sheet.RequiredColumns())

	feed := BankFeedProfile()
	assert.NoError(t, feed.Validate())
	assert.False(t, feed.CreatesExpenses())
	assert.False(t, feed.MatchExternalID)
	assert.Equal(t, 5, feed.RequiredColumns())
}

func TestFeedProfile_Validate(t *testing.T) {
	tests := []struct {
		name    string
		profile FeedProfile
	}{
		{"missing name", FeedProfile{Columns: ColumnMap{Amount: Col(1)}}},
		{"no money column", FeedProfile{Name: "x"}},
		{"amount mixed with deposit", FeedProfile{Name: "x", Columns: ColumnMap{Amount: Col(1), Deposit: Col(2)}}},
		{"matching without id column", FeedProfile{Name: "x", MatchExternalID: true, Columns: ColumnMap{Amount: Col(1)}}},
		{"negative min columns", FeedProfile{Name: "x", MinColumns: -1, Columns: ColumnMap{Amount: Col(1)}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.profile.Validate()
			assert.ErrorIs(t, err, shared.ErrValidation)
		})
	}
}

func TestFeedProfile_RequiredColumns(t *testing.T) {
	p := FeedProfile{Name: "x", Columns: ColumnMap{Date: 0, Withdraw: Col(6), ExternalID: Col(-9)}}
	assert.Equal(t, 9, p.RequiredColumns())

	p.MinColumns = 12
	assert.Equal(t, 12, p.RequiredColumns())
}
