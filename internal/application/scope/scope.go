// Package scope defines the unit of work the application services run their
// multi-step mutations in.
package scope

import (
	"context"

	"github.com/huzaifanasir-fabtechsol/backend/internal/domain/bulk"
	"github.com/huzaifanasir-fabtechsol/backend/internal/domain/expense"
	"github.com/huzaifanasir-fabtechsol/backend/internal/domain/ledger"
	"github.com/huzaifanasir-fabtechsol/backend/internal/domain/revenue"
)

// Repositories gives access to every repository bound to one connection or
// one open storage transaction.
type Repositories interface {
	BankAccounts() ledger.BankAccountRepository
	LedgerTransactions() ledger.LedgerTransactionRepository

	CarCategories() revenue.CarCategoryRepository
	Cars() revenue.CarRepository
	Counterparties() revenue.CounterpartyRepository
	Auctions() revenue.AuctionRepository
	Orders() revenue.OrderRepository
	OrderNumbers() revenue.OrderNumberAllocator

	Expenses() expense.ExpenseRepository
	ExpenseCategories() expense.CategoryRepository

	Imports() bulk.ImportHistoryRepository

	// Savepoint runs fn in a nested transaction. When fn fails only its own
	// writes are rolled back and the outer transaction stays usable.
	Savepoint(ctx context.Context, fn func(repos Repositories) error) error
}

// TransactionScope runs fn inside one storage transaction: all of fn's writes
// commit together or none do.
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos Repositories) error) error
}

// Store is a Repositories view outside any transaction that can also open one
type Store interface {
	Repositories
	TransactionScope
}
