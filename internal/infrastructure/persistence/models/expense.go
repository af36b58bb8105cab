package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/huzaifanasir-fabtechsol/backend/internal/domain/expense"
)

// ExpenseCategoryModel is the persistence model for expense categories
type ExpenseCategoryModel struct {
	BaseModel
	Version     int        `gorm:"not null;default:1"`
	TenantID    uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_expense_category_tenant_name,priority:1"`
	CreatedBy   *uuid.UUID `gorm:"type:uuid"`
	Name        string     `gorm:"type:varchar(100);not null;uniqueIndex:idx_expense_category_tenant_name,priority:2"`
	Description string     `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (ExpenseCategoryModel) TableName() string {
	return "expense_categories"
}

// ToDomain converts the model to a domain expense Category
func (m *ExpenseCategoryModel) ToDomain() *expense.Category {
	root := TenantAggregateModel{BaseModel: m.BaseModel, Version: m.Version, TenantID: m.TenantID, CreatedBy: m.CreatedBy}
	return &expense.Category{
		TenantAggregateRoot: root.ToTenantAggregateRoot(),
		Name:                m.Name,
		Description:         m.Description,
	}
}

// ExpenseCategoryModelFromDomain builds the model from a domain expense Category
func ExpenseCategoryModelFromDomain(c *expense.Category) *ExpenseCategoryModel {
	m := &ExpenseCategoryModel{
		Version:     c.Version,
		TenantID:    c.TenantID,
		CreatedBy:   c.CreatedBy,
		Name:        c.Name,
		Description: c.Description,
	}
	m.FromDomainBaseEntity(c.BaseEntity)
	return m
}

// ExpenseModel is the persistence model for Expense
type ExpenseModel struct {
	TenantAggregateModel
	Title               string          `gorm:"type:varchar(255);not null"`
	Amount              decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	Date                time.Time       `gorm:"type:date;not null;index"`
	Description         string          `gorm:"type:text"`
	CategoryID          *uuid.UUID      `gorm:"type:uuid;index"`
	LedgerTransactionID *uuid.UUID      `gorm:"type:uuid;index"`
	ImportBatchID       *uuid.UUID      `gorm:"type:uuid;index"`
}

// TableName returns the table name for GORM
func (ExpenseModel) TableName() string {
	return "expenses"
}

// ToDomain converts the model to a domain Expense
func (m *ExpenseModel) ToDomain() *expense.Expense {
	y, mo, d := m.Date.Date()
	return &expense.Expense{
		TenantAggregateRoot: m.ToTenantAggregateRoot(),
		Title:               m.Title,
		Amount:              m.Amount,
		Date:                time.Date(y, mo, d, 0, 0, 0, 0, time.UTC),
		Description:         m.Description,
		CategoryID:          m.CategoryID,
		LedgerTransactionID: m.LedgerTransactionID,
		ImportBatchID:       m.ImportBatchID,
	}
}

// ExpenseModelFromDomain builds the model from a domain Expense
func ExpenseModelFromDomain(e *expense.Expense) *ExpenseModel {
	m := &ExpenseModel{
		Title:               e.Title,
		Amount:              e.Amount,
		Date:                e.Date,
		Description:         e.Description,
		CategoryID:          e.CategoryID,
		LedgerTransactionID: e.LedgerTransactionID,
		ImportBatchID:       e.ImportBatchID,
	}
	m.FromDomainTenantAggregateRoot(e.TenantAggregateRoot)
	return m
}
