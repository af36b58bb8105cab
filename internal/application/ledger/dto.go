package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/huzaifanasir-fabtechsol/backend/internal/domain/ledger"
	"github.com/huzaifanasir-fabtechsol/backend/internal/domain/shared"
)

// ==================== Bank Account DTOs ====================

// CreateBankAccountRequest represents a request to create a company bank account
type CreateBankAccountRequest struct {
	BankName      string `json:"bank_name" binding:"required,max=100"`
	AccountNumber string `json:"account_number" binding:"max=100"`
	BranchCode    string `json:"branch_code" binding:"max=50"`
	AccountHolder string `json:"account_holder" binding:"max=255"`
	SwiftCode     string `json:"swift_code" binding:"max=20"`
}

// UpdateBankAccountRequest replaces the descriptive fields of an account
type UpdateBankAccountRequest = CreateBankAccountRequest

// BankAccountListFilter defines filtering options for account list queries
type BankAccountListFilter struct {
	Search   string `form:"search"`
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
	OrderBy  string `form:"order_by"`
	OrderDir string `form:"order_dir"`
}

// BankAccountResponse represents a bank account in API responses
type BankAccountResponse struct {
	ID            uuid.UUID `json:"id"`
	BankName      string    `json:"bank_name"`
	AccountNumber string    `json:"account_number"`
	BranchCode    string    `json:"branch_code"`
	AccountHolder string    `json:"account_holder"`
	SwiftCode     string    `json:"swift_code"`
	DisplayName   string    `json:"display_name"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// ToBankAccountResponse converts a domain account to its response
func ToBankAccountResponse(a *ledger.BankAccount) BankAccountResponse {
	return BankAccountResponse{
		ID:            a.ID,
		BankName:      a.BankName,
		AccountNumber: a.AccountNumber,
		BranchCode:    a.BranchCode,
		AccountHolder: a.AccountHolder,
		SwiftCode:     a.SwiftCode,
		DisplayName:   a.DisplayName(),
		CreatedAt:     a.CreatedAt,
		UpdatedAt:     a.UpdatedAt,
	}
}

// ==================== Ledger Transaction DTOs ====================

// CreateTransactionRequest represents a request to post a transaction.
// There is no balance field: balances are always computed.
type CreateTransactionRequest struct {
	BankAccountID uuid.UUID       `json:"bank_account_id"`
	Date          shared.Date     `json:"date"`
	ExternalID    string          `json:"transaction_id"`
	Withdraw      decimal.Decimal `json:"withdraw"`
	Deposit       decimal.Decimal `json:"deposit"`
	Description   string          `json:"description"`
	Notes         string          `json:"notes"`
}

// UpdateTransactionRequest is a partial update; omitted fields stay as they are
type UpdateTransactionRequest struct {
	BankAccountID *uuid.UUID       `json:"bank_account_id"`
	Date          *shared.Date     `json:"date"`
	ExternalID    *string          `json:"transaction_id"`
	Withdraw      *decimal.Decimal `json:"withdraw"`
	Deposit       *decimal.Decimal `json:"deposit"`
	Description   *string          `json:"description"`
	Notes         *string          `json:"notes"`
}

func (r UpdateTransactionRequest) patch() ledger.TransactionPatch {
	p := ledger.TransactionPatch{
		Withdraw:    r.Withdraw,
		Deposit:     r.Deposit,
		ExternalID:  r.ExternalID,
		Description: r.Description,
		Notes:       r.Notes,
	}
	if r.Date != nil {
		d := r.Date.Time
		p.Date = &d
	}
	return p
}

// TransactionListFilter defines filtering options for transaction list queries
type TransactionListFilter struct {
	Search        string     `form:"search"`
	BankAccountID *uuid.UUID `form:"bank_account"`
	Date          *time.Time `form:"date" time_format:"2006-01-02"`
	FromDate      *time.Time `form:"from_date" time_format:"2006-01-02"`
	ToDate        *time.Time `form:"to_date" time_format:"2006-01-02"`
	Page          int        `form:"page"`
	PageSize      int        `form:"page_size"`
	OrderBy       string     `form:"order_by"`
	OrderDir      string     `form:"order_dir"`
}

func (f TransactionListFilter) toDomain() ledger.TransactionFilter {
	filter := ledger.TransactionFilter{
		Filter: shared.Filter{
			Page:     f.Page,
			PageSize: f.PageSize,
			OrderBy:  f.OrderBy,
			OrderDir: f.OrderDir,
			Search:   f.Search,
		},
		BankAccountID: f.BankAccountID,
		Date:          f.Date,
		From:          f.FromDate,
		To:            f.ToDate,
	}
	if filter.OrderBy == "" {
		filter.OrderBy = "date"
	}
	if filter.OrderDir == "" {
		filter.OrderDir = "desc"
	}
	return filter
}

// TransactionResponse represents a ledger transaction in API responses
type TransactionResponse struct {
	ID            uuid.UUID       `json:"id"`
	BankAccountID uuid.UUID       `json:"bank_account_id"`
	Date          shared.Date     `json:"date"`
	Sequence      int64           `json:"sequence"`
	ExternalID    string          `json:"transaction_id"`
	Withdraw      decimal.Decimal `json:"withdraw"`
	Deposit       decimal.Decimal `json:"deposit"`
	Balance       decimal.Decimal `json:"balance"`
	Description   string          `json:"description"`
	Notes         string          `json:"notes"`
	ImportBatchID *uuid.UUID      `json:"import_batch_id,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// ToTransactionResponse converts a domain transaction to its response
func ToTransactionResponse(t *ledger.LedgerTransaction) TransactionResponse {
	return TransactionResponse{
		ID:            t.ID,
		BankAccountID: t.BankAccountID,
		Date:          shared.NewDate(t.Date),
		Sequence:      t.Sequence,
		ExternalID:    t.ExternalID,
		Withdraw:      t.Withdraw,
		Deposit:       t.Deposit,
		Balance:       t.Balance,
		Description:   t.Description,
		Notes:         t.Notes,
		ImportBatchID: t.ImportBatchID,
		CreatedAt:     t.CreatedAt,
		UpdatedAt:     t.UpdatedAt,
	}
}

// ==================== Statement DTOs ====================

// StatementResponse is an account statement ready for a renderer: the
// balance before the period, every row in the period with its running
// balance, and period totals
type StatementResponse struct {
	Account        BankAccountResponse   `json:"account"`
	From           *shared.Date          `json:"from,omitempty"`
	To             *shared.Date          `json:"to,omitempty"`
	OpeningBalance decimal.Decimal       `json:"opening_balance"`
	ClosingBalance decimal.Decimal       `json:"closing_balance"`
	TotalDeposit   decimal.Decimal       `json:"total_deposit"`
	TotalWithdraw  decimal.Decimal       `json:"total_withdraw"`
	Rows           []TransactionResponse `json:"rows"`
}

// ChainReport is the outcome of a successful chain verification
type ChainReport struct {
	BankAccountID  uuid.UUID       `json:"bank_account_id"`
	Transactions   int             `json:"transactions"`
	ClosingBalance decimal.Decimal `json:"closing_balance"`
	Valid          bool            `json:"valid"`
}
