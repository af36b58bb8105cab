package expense

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/huzaifanasir-fabtechsol/backend/internal/domain/expense"
	"github.com/huzaifanasir-fabtechsol/backend/internal/domain/shared"
)

// ==================== Category DTOs ====================

// CategoryRequest creates or renames an expense category
type CategoryRequest struct {
	Name        string `json:"name" binding:"required,max=100"`
	Description string `json:"description"`
}

// CategoryListFilter defines filtering options for category list queries
type CategoryListFilter struct {
	Search   string `form:"search"`
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
	OrderBy  string `form:"order_by"`
	OrderDir string `form:"order_dir"`
}

// CategoryResponse represents an expense category in API responses
type CategoryResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ToCategoryResponse converts a domain category to its response
func ToCategoryResponse(c *expense.Category) CategoryResponse {
	return CategoryResponse{
		ID:          c.ID,
		Name:        c.Name,
		Description: c.Description,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

// ==================== Expense DTOs ====================

// ExpenseRequest creates or replaces an expense
type ExpenseRequest struct {
	Title               string          `json:"title" binding:"required,max=255"`
	Amount              decimal.Decimal `json:"amount"`
	Date                shared.Date     `json:"date"`
	Description         string          `json:"description"`
	CategoryID          *uuid.UUID      `json:"category"`
	LedgerTransactionID *uuid.UUID      `json:"transaction"`
}

func (r ExpenseRequest) input() expense.Input {
	return expense.Input{
		Title:               r.Title,
		Amount:              r.Amount,
		Date:                r.Date.Time,
		Description:         r.Description,
		CategoryID:          nonNil(r.CategoryID),
		LedgerTransactionID: nonNil(r.LedgerTransactionID),
	}
}

func nonNil(id *uuid.UUID) *uuid.UUID {
	if id == nil || *id == uuid.Nil {
		return nil
	}
	return id
}

// ExpenseListFilter defines filtering options for expense list queries
type ExpenseListFilter struct {
	Search     string     `form:"search"`
	CategoryID *uuid.UUID `form:"category"`
	FromDate   *time.Time `form:"from_date" time_format:"2006-01-02"`
	ToDate     *time.Time `form:"to_date" time_format:"2006-01-02"`
	Page       int        `form:"page"`
	PageSize   int        `form:"page_size"`
	OrderBy    string     `form:"order_by"`
	OrderDir   string     `form:"order_dir"`
}

func (f ExpenseListFilter) toDomain() expense.Filter {
	filter := expense.Filter{
		Filter: shared.Filter{
			Page:     f.Page,
			PageSize: f.PageSize,
			OrderBy:  f.OrderBy,
			OrderDir: f.OrderDir,
			Search:   f.Search,
		},
		CategoryID: nonNil(f.CategoryID),
		From:       f.FromDate,
		To:         f.ToDate,
	}
	if filter.OrderBy == "" {
		filter.OrderBy = "date"
	}
	if filter.OrderDir == "" {
		filter.OrderDir = "desc"
	}
	return filter
}

// ExpenseResponse represents an expense in API responses
type ExpenseResponse struct {
	ID                  uuid.UUID       `json:"id"`
	Title               string          `json:"title"`
	Amount              decimal.Decimal `json:"amount"`
	Date                shared.Date     `json:"date"`
	Description         string          `json:"description"`
	CategoryID          *uuid.UUID      `json:"category,omitempty"`
	CategoryName        string          `json:"category_name,omitempty"`
	LedgerTransactionID *uuid.UUID      `json:"transaction,omitempty"`
	ImportBatchID       *uuid.UUID      `json:"import_batch,omitempty"`
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`
}

// ToExpenseResponse converts a domain expense; categoryName may be empty
func ToExpenseResponse(e *expense.Expense, categoryName string) ExpenseResponse {
	return ExpenseResponse{
		ID:                  e.ID,
		Title:               e.Title,
		Amount:              e.Amount,
		Date:                shared.NewDate(e.Date),
		Description:         e.Description,
		CategoryID:          e.CategoryID,
		CategoryName:        categoryName,
		LedgerTransactionID: e.LedgerTransactionID,
		ImportBatchID:       e.ImportBatchID,
		CreatedAt:           e.CreatedAt,
		UpdatedAt:           e.UpdatedAt,
	}
}
