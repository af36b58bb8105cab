package expense

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/huzaifanasir-fabtechsol/backend/internal/domain/shared"
)

// Category groups expenses (fuel, highway tolls, repairs...). Name is unique per tenant.
type Category struct {
	shared.TenantAggregateRoot
	Name        string
	Description string
}

// NewCategory creates an expense category
func NewCategory(tenantID uuid.UUID, name, description string) (*Category, error) {
	c := &Category{TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID)}
	if err := c.Update(name, description); err != nil {
		return nil, err
	}
	return c, nil
}

// Update renames the category
func (c *Category) Update(name, description string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewValidationError("category name is required")
	}
	if len(name) > 100 {
		return shared.NewValidationError("category name cannot exceed 100 characters")
	}
	c.Name = name
	c.Description = strings.TrimSpace(description)
	c.Touch()
	return nil
}

// Expense is a cost record, optionally settled by a ledger transaction
type Expense struct {
	shared.TenantAggregateRoot
	Title               string
	Amount              decimal.Decimal
	Date                time.Time
	Description         string
	CategoryID          *uuid.UUID
	LedgerTransactionID *uuid.UUID
	ImportBatchID       *uuid.UUID
}

// Input carries the fields of a new or edited expense
type Input struct {
	Title               string
	Amount              decimal.Decimal
	Date                time.Time
	Description         string
	CategoryID          *uuid.UUID
	LedgerTransactionID *uuid.UUID
}

// NewExpense validates input and creates an expense
func NewExpense(tenantID uuid.UUID, in Input) (*Expense, error) {
	e := &Expense{TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID)}
	if err := e.Update(in); err != nil {
		return nil, err
	}
	return e, nil
}

// Update replaces all editable fields
func (e *Expense) Update(in Input) error {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return shared.NewValidationError("title is required")
	}
	if len(title) > 255 {
		return shared.NewValidationError("title cannot exceed 255 characters")
	}
	if in.Amount.IsNegative() {
		return shared.NewValidationError("amount cannot be negative")
	}
	if in.Date.IsZero() {
		return shared.NewValidationError("date is required")
	}
	y, m, d := in.Date.Date()
	e.Title = title
	e.Amount = in.Amount
	e.Date = time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	e.Description = strings.TrimSpace(in.Description)
	e.CategoryID = in.CategoryID
	e.LedgerTransactionID = in.LedgerTransactionID
	e.Touch()
	return nil
}
