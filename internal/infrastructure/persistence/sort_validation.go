package persistence

import (
	"strings"
)

// ValidateSortOrder validates and normalizes the sort order to ASC or DESC.
// Returns "DESC" as the default if the input is invalid or empty.
func ValidateSortOrder(orderDir string) string {
	if strings.ToUpper(strings.TrimSpace(orderDir)) == "ASC" {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField returns sortField when whitelisted, otherwise defaultField
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if trimmed != "" && allowedFields[trimmed] {
		return trimmed
	}
	return defaultField
}

// BankAccountSortFields contains allowed sort fields for bank accounts
var BankAccountSortFields = map[string]bool{
	"created_at":     true,
	"bank_name":      true,
	"account_number": true,
}

// LedgerTransactionSortFields contains allowed sort fields for ledger listings.
// Every sort adds sequence as a tie-break so chain order is stable.
var LedgerTransactionSortFields = map[string]bool{
	"date":       true,
	"created_at": true,
	"withdraw":   true,
	"deposit":    true,
	"balance":    true,
}

// OrderSortFields contains allowed sort fields for orders
var OrderSortFields = map[string]bool{
	"created_at":       true,
	"transaction_date": true,
	"order_number":     true,
	"total_amount":     true,
	"payment_status":   true,
}

// ExpenseSortFields contains allowed sort fields for expenses
var ExpenseSortFields = map[string]bool{
	"created_at": true,
	"date":       true,
	"amount":     true,
	"title":      true,
}

// ExpenseCategorySortFields contains allowed sort fields for expense categories
var ExpenseCategorySortFields = map[string]bool{
	"created_at": true,
	"name":       true,
}
