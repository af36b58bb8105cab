package ledger

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/huzaifanasir-fabtechsol/backend/internal/domain/shared"
)

// MaxExternalIDLength bounds the stored external transaction id
const MaxExternalIDLength = 500

// LedgerTransaction is one dated cash movement on a bank account.
// Balance is derived state owned by the balance maintainer; callers never set it.
type LedgerTransaction struct {
	shared.TenantAggregateRoot
	BankAccountID uuid.UUID
	Date          time.Time
	Sequence      int64
	ExternalID    string
	Withdraw      decimal.Decimal
	Deposit       decimal.Decimal
	Balance       decimal.Decimal
	Description   string
	Notes         string
	ImportBatchID *uuid.UUID
}

// PostingInput describes a new transaction
type PostingInput struct {
	BankAccountID uuid.UUID
	Date          time.Time
	Withdraw      decimal.Decimal
	Deposit       decimal.Decimal
	ExternalID    string
	Description   string
	Notes         string
}

// NewLedgerTransaction validates the input and builds an unsequenced transaction
func NewLedgerTransaction(tenantID uuid.UUID, in PostingInput) (*LedgerTransaction, error) {
	if tenantID == uuid.Nil {
		return nil, shared.NewValidationError("tenant is required")
	}
	if in.BankAccountID == uuid.Nil {
		return nil, shared.NewValidationError("bank account is required")
	}
	if in.Date.IsZero() {
		return nil, shared.NewValidationError("date is required")
	}
	if err := validateAmounts(in.Withdraw, in.Deposit); err != nil {
		return nil, err
	}
	return &LedgerTransaction{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		BankAccountID:       in.BankAccountID,
		Date:                NormalizeDate(in.Date),
		ExternalID:          TruncateExternalID(in.ExternalID),
		Withdraw:            in.Withdraw,
		Deposit:             in.Deposit,
		Balance:             decimal.Zero,
		Description:         strings.TrimSpace(in.Description),
		Notes:               in.Notes,
	}, nil
}

func validateAmounts(withdraw, deposit decimal.Decimal) error {
	if withdraw.IsNegative() {
		return shared.NewValidationError("withdraw cannot be negative")
	}
	if deposit.IsNegative() {
		return shared.NewValidationError("deposit cannot be negative")
	}
	return nil
}

// Delta is the signed effect of the transaction on the running balance
func (t *LedgerTransaction) Delta() decimal.Decimal {
	return t.Deposit.Sub(t.Withdraw)
}

// Position is where the transaction sits in its account's chain
func (t *LedgerTransaction) Position() Position {
	return Position{Date: t.Date, Sequence: t.Sequence}
}

// TransactionPatch is a partial update; nil fields are left untouched
type TransactionPatch struct {
	Date        *time.Time
	Withdraw    *decimal.Decimal
	Deposit     *decimal.Decimal
	ExternalID  *string
	Description *string
	Notes       *string
}

// Apply merges the patch and reports whether the running balance chain is affected
func (t *LedgerTransaction) Apply(p TransactionPatch) (bool, error) {
	withdraw, deposit := t.Withdraw, t.Deposit
	if p.Withdraw != nil {
		withdraw = *p.Withdraw
	}
	if p.Deposit != nil {
		deposit = *p.Deposit
	}
	if err := validateAmounts(withdraw, deposit); err != nil {
		return false, err
	}

	affects := !withdraw.Equal(t.Withdraw) || !deposit.Equal(t.Deposit)
	if p.Date != nil {
		if p.Date.IsZero() {
			return false, shared.NewValidationError("date is required")
		}
		d := NormalizeDate(*p.Date)
		if !d.Equal(t.Date) {
			affects = true
		}
		t.Date = d
	}
	t.Withdraw, t.Deposit = withdraw, deposit
	if p.ExternalID != nil {
		t.ExternalID = TruncateExternalID(*p.ExternalID)
	}
	if p.Description != nil {
		t.Description = strings.TrimSpace(*p.Description)
	}
	if p.Notes != nil {
		t.Notes = *p.Notes
	}
	t.Touch()
	return affects, nil
}

// NormalizeDate drops the time of day, keeping the calendar date as UTC midnight
func NormalizeDate(d time.Time) time.Time {
	y, m, day := d.Date()
	return time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
}

// TruncateExternalID trims and caps an external id at MaxExternalIDLength runes
func TruncateExternalID(s string) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= MaxExternalIDLength {
		return s
	}
	return string([]rune(s)[:MaxExternalIDLength])
}
