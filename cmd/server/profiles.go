package main

import (
	"strings"
	"unicode/utf8"

	"github.com/huzaifanasir-fabtechsol/backend/internal/domain/bulk"
	"github.com/huzaifanasir-fabtechsol/backend/internal/infrastructure/config"
)

// feedProfiles converts the configured column layouts. A "\t" or "tab"
// delimiter selects tab separated feeds; empty keeps the comma default.
func feedProfiles(cfgs []config.FeedProfileConfig) []bulk.FeedProfile {
	profiles := make([]bulk.FeedProfile, 0, len(cfgs))
	for _, c := range cfgs {
		profiles = append(profiles, bulk.FeedProfile{
			Name:       c.Name,
			HasHeader:  c.HasHeader,
			Delimiter:  delimiter(c.Delimiter),
			MinColumns: c.MinColumns,
			Columns: bulk.ColumnMap{
				Date:        c.DateColumn,
				Amount:      c.AmountColumn,
				Deposit:     c.DepositColumn,
				Withdraw:    c.WithdrawColumn,
				Balance:     c.BalanceColumn,
				Account:     c.AccountColumn,
				Description: c.DescriptionCol,
				ExternalID:  c.ExternalIDCol,
			},
			MatchExternalID: c.MatchExternalID,
			ExpenseTitle:    c.ExpenseTitle,
			ExpenseCategory: c.ExpenseCategory,
		})
	}
	return profiles
}

func delimiter(s string) rune {
	switch strings.ToLower(s) {
	case "":
		return 0
	case `\t`, "tab":
		return '\t'
	}
	r, _ := utf8.DecodeRuneInString(s)
	return r
}
