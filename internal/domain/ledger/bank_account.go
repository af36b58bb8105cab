package ledger

import (
	"strings"

	"github.com/google/uuid"

	"github.com/huzaifanasir-fabtechsol/backend/internal/domain/shared"
)

// BankAccount is a company bank account that ledger transactions post against.
// LastSequence is the per-account insertion counter used to order same-date
// transactions; it only moves forward.
type BankAccount struct {
	shared.TenantAggregateRoot
	BankName      string
	AccountNumber string
	BranchCode    string
	AccountHolder string
	SwiftCode     string
	LastSequence  int64
}

// AccountDetails holds the descriptive (freely editable) fields of an account
type AccountDetails struct {
	BankName      string
	AccountNumber string
	BranchCode    string
	AccountHolder string
	SwiftCode     string
}

// NewBankAccount creates a new bank account for the tenant
func NewBankAccount(tenantID uuid.UUID, details AccountDetails) (*BankAccount, error) {
	if tenantID == uuid.Nil {
		return nil, shared.NewValidationError("tenant is required")
	}
	a := &BankAccount{TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID)}
	if err := a.UpdateDetails(details); err != nil {
		return nil, err
	}
	return a, nil
}

// UpdateDetails replaces descriptive fields. Postings are never affected.
func (a *BankAccount) UpdateDetails(details AccountDetails) error {
	bankName := strings.TrimSpace(details.BankName)
	if bankName == "" {
		return shared.NewValidationError("bank name is required")
	}
	if len(bankName) > 100 {
		return shared.NewValidationError("bank name cannot exceed 100 characters")
	}
	accountNumber := strings.TrimSpace(details.AccountNumber)
	if len(accountNumber) > 100 {
		return shared.NewValidationError("account number cannot exceed 100 characters")
	}
	a.BankName = bankName
	a.AccountNumber = accountNumber
	a.BranchCode = strings.TrimSpace(details.BranchCode)
	a.AccountHolder = strings.TrimSpace(details.AccountHolder)
	a.SwiftCode = strings.ToUpper(strings.TrimSpace(details.SwiftCode))
	a.Touch()
	return nil
}

// ReserveSequences hands out n consecutive insertion sequence numbers and
// returns the first. The caller must hold the account row lock.
func (a *BankAccount) ReserveSequences(n int) int64 {
	if n < 1 {
		n = 1
	}
	first := a.LastSequence + 1
	a.LastSequence += int64(n)
	return first
}

// DisplayName renders "Bank (number)" for statements and invoices
func (a *BankAccount) DisplayName() string {
	if a.AccountNumber == "" {
		return a.BankName
	}
	return a.BankName + " (" + a.AccountNumber + ")"
}
