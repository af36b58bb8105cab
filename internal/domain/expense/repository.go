package expense

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/huzaifanasir-fabtechsol/backend/internal/domain/shared"
)

// Filter narrows expense listings
type Filter struct {
	shared.Filter
	CategoryID *uuid.UUID
	From       *time.Time
	To         *time.Time
}

// ExpenseRepository persists expenses
type ExpenseRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Expense, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter Filter) ([]Expense, error)
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter Filter) (int64, error)
	// SumForTenant totals amounts in [from, to]; nil bounds are open
	SumForTenant(ctx context.Context, tenantID uuid.UUID, from, to *time.Time) (decimal.Decimal, error)
	Create(ctx context.Context, e *Expense) error
	CreateBatch(ctx context.Context, expenses []*Expense) error
	Save(ctx context.Context, e *Expense) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
	// UnlinkTransaction clears the ledger link of every expense pointing at txID
	UnlinkTransaction(ctx context.Context, tenantID, txID uuid.UUID) error
}

// CategoryRepository persists expense categories
type CategoryRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Category, error)
	// FindByName matches case-insensitively
	FindByName(ctx context.Context, tenantID uuid.UUID, name string) (*Category, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]Category, error)
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error)
	// Create returns ErrAlreadyExists when the name is taken
	Create(ctx context.Context, c *Category) error
	Save(ctx context.Context, c *Category) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
}
