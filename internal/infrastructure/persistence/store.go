package persistence

import (
	"context"

	"gorm.io/gorm"

	"github.com/huzaifanasir-fabtechsol/backend/internal/application/scope"
	"github.com/huzaifanasir-fabtechsol/backend/internal/domain/bulk"
	"github.com/huzaifanasir-fabtechsol/backend/internal/domain/expense"
	"github.com/huzaifanasir-fabtechsol/backend/internal/domain/ledger"
	"github.com/huzaifanasir-fabtechsol/backend/internal/domain/revenue"
)

// GormStore implements scope.Store. Outside Execute its repositories use the
// pooled connection; inside, every repository is bound to the open transaction.
type GormStore struct {
	gormRepositories
}

// NewGormStore creates a new GormStore
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{gormRepositories{db: db}}
}

// Execute runs fn within a database transaction.
// If fn returns an error, the transaction is rolled back; otherwise it commits.
func (s *GormStore) Execute(ctx context.Context, fn func(repos scope.Repositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormRepositories{db: tx})
	})
}

// gormRepositories hands out repositories bound to one *gorm.DB
type gormRepositories struct {
	db *gorm.DB
}

func (r *gormRepositories) BankAccounts() ledger.BankAccountRepository {
	return NewGormBankAccountRepository(r.db)
}

func (r *gormRepositories) LedgerTransactions() ledger.LedgerTransactionRepository {
	return NewGormLedgerTransactionRepository(r.db)
}

func (r *gormRepositories) CarCategories() revenue.CarCategoryRepository {
	return NewGormCarCategoryRepository(r.db)
}

func (r *gormRepositories) Cars() revenue.CarRepository {
	return NewGormCarRepository(r.db)
}

func (r *gormRepositories) Counterparties() revenue.CounterpartyRepository {
	return NewGormCounterpartyRepository(r.db)
}

func (r *gormRepositories) Auctions() revenue.AuctionRepository {
	return NewGormAuctionRepository(r.db)
}

func (r *gormRepositories) Orders() revenue.OrderRepository {
	return NewGormOrderRepository(r.db)
}

func (r *gormRepositories) OrderNumbers() revenue.OrderNumberAllocator {
	return NewGormOrderNumberAllocator(r.db)
}

func (r *gormRepositories) Expenses() expense.ExpenseRepository {
	return NewGormExpenseRepository(r.db)
}

func (r *gormRepositories) ExpenseCategories() expense.CategoryRepository {
	return NewGormExpenseCategoryRepository(r.db)
}

func (r *gormRepositories) Imports() bulk.ImportHistoryRepository {
	return NewGormImportHistoryRepository(r.db)
}

// Savepoint nests a transaction. Inside an open transaction GORM issues
// SAVEPOINT / ROLLBACK TO SAVEPOINT, so a failed fn leaves the outer one usable.
func (r *gormRepositories) Savepoint(ctx context.Context, fn func(repos scope.Repositories) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormRepositories{db: tx})
	})
}

// Ensure GormStore implements scope.Store
var _ scope.Store = (*GormStore)(nil)

// Ensure gormRepositories implements scope.Repositories
var _ scope.Repositories = (*gormRepositories)(nil)
