package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/huzaifanasir-fabtechsol/backend/internal/application/importapp"
	"github.com/huzaifanasir-fabtechsol/backend/internal/domain/bulk"
	"github.com/huzaifanasir-fabtechsol/backend/internal/infrastructure/config"
)

func TestFeedProfiles(t *testing.T) {
	cfgs := []config.FeedProfileConfig{{
		Name:            "Card-Export",
		HasHeader:       true,
		DateColumn:      0,
		DepositColumn:   bulk.Col(2),
		WithdrawColumn:  bulk.Col(3),
		ExternalIDCol:   bulk.Col(-1),
		MatchExternalID: true,
		Delimiter:       ";",
	}}

	profiles := feedProfiles(cfgs)
	require.Len(t, profiles, 1)
	p := profiles[0]
	assert.Equal(t, ';', p.Delimiter)
	assert.Equal(t, 2, *p.Columns.Deposit)
	assert.Equal(t, -1, *p.Columns.ExternalID)
	assert.Nil(t, p.Columns.Amount)
	assert.True(t, p.MatchExternalID)

	registry, err := importapp.NewProfileRegistry(profiles...)
	require.NoError(t, err)
	got, err := registry.Get("card-export")
	require.NoError(t, err)
	assert.Equal(t, ';', got.Delimiter)
}

func TestDelimiter(t *testing.T) {
	tests := []struct {
		in   string
		want rune
	}{
		{"", 0},
		{",", ','},
		{"|", '|'},
		{"tab", '\t'},
		{"TAB", '\t'},
		{`\t`, '\t'},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, delimiter(tt.in), tt.in)
	}
}

func TestFeedProfiles_InvalidLayoutRejected(t *testing.T) {
	profiles := feedProfiles([]config.FeedProfileConfig{{
		Name:          "broken",
		AmountColumn:  bulk.Col(1),
		DepositColumn: bulk.Col(2),
	}})
	_, err := importapp.NewProfileRegistry(profiles...)
	assert.Error(t, err)
}
