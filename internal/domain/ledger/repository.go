package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/huzaifanasir-fabtechsol/backend/internal/domain/shared"
)

// BankAccountRepository persists bank accounts
type BankAccountRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*BankAccount, error)
	// FindByIDForUpdate loads the account and holds its row lock until the
	// surrounding transaction ends. All balance walks go through this lock.
	FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*BankAccount, error)
	// FindFirstForTenant returns the oldest account of the tenant
	FindFirstForTenant(ctx context.Context, tenantID uuid.UUID) (*BankAccount, error)
	// FindByAccountNumber returns the oldest tenant account carrying the number
	FindByAccountNumber(ctx context.Context, tenantID uuid.UUID, number string) (*BankAccount, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]BankAccount, error)
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error)
	Save(ctx context.Context, account *BankAccount) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
}

// TransactionFilter narrows transaction listings
type TransactionFilter struct {
	shared.Filter
	BankAccountID *uuid.UUID
	Date          *time.Time
	From          *time.Time
	To            *time.Time
}

// LedgerTransactionRepository persists ledger transactions
type LedgerTransactionRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*LedgerTransaction, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter TransactionFilter) ([]LedgerTransaction, error)
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter TransactionFilter) (int64, error)
	// FindFirstByExternalID returns the earliest-inserted transaction of the
	// tenant carrying externalID, or ErrNotFound
	FindFirstByExternalID(ctx context.Context, tenantID uuid.UUID, externalID string) (*LedgerTransaction, error)

	// FindLatestBefore returns the last transaction strictly before pos on the
	// account, skipping excludeID. Returns nil, nil when there is none.
	FindLatestBefore(ctx context.Context, accountID uuid.UUID, pos Position, excludeID uuid.UUID) (*LedgerTransaction, error)
	// FindFrom returns all transactions at or after pos in chain order
	FindFrom(ctx context.Context, accountID uuid.UUID, pos Position) ([]*LedgerTransaction, error)
	// FindChain returns the whole chain of an account in chain order
	FindChain(ctx context.Context, accountID uuid.UUID) ([]*LedgerTransaction, error)
	CountByAccount(ctx context.Context, accountID uuid.UUID) (int64, error)

	Create(ctx context.Context, tx *LedgerTransaction) error
	CreateBatch(ctx context.Context, txs []*LedgerTransaction) error
	Save(ctx context.Context, tx *LedgerTransaction) error
	// UpdateBalances persists only the balance column of each transaction
	UpdateBalances(ctx context.Context, txs []*LedgerTransaction) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
}
