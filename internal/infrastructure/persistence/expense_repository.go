package persistence

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/huzaifanasir-fabtechsol/backend/internal/domain/expense"
	"github.com/huzaifanasir-fabtechsol/backend/internal/domain/shared"
	"github.com/huzaifanasir-fabtechsol/backend/internal/infrastructure/persistence/models"
)

// GormExpenseRepository implements expense.ExpenseRepository using GORM
type GormExpenseRepository struct {
	db *gorm.DB
}

// NewGormExpenseRepository creates a new GormExpenseRepository
func NewGormExpenseRepository(db *gorm.DB) *GormExpenseRepository {
	return &GormExpenseRepository{db: db}
}

// FindByIDForTenant finds an expense by ID for a specific tenant
func (r *GormExpenseRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*expense.Expense, error) {
	var model models.ExpenseModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindAllForTenant finds all expenses for a tenant with filtering
func (r *GormExpenseRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter expense.Filter) ([]expense.Expense, error) {
	var expenseModels []models.ExpenseModel
	page := filter.Filter.Normalize()
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.ExpenseModel{}).Where("tenant_id = ?", tenantID), filter)

	orderBy := ValidateSortField(page.OrderBy, ExpenseSortFields, "date")
	query = query.Order(fmt.Sprintf("%s %s, created_at DESC", orderBy, ValidateSortOrder(page.OrderDir))).
		Offset(page.Offset()).
		Limit(page.PageSize)

	if err := query.Find(&expenseModels).Error; err != nil {
		return nil, err
	}
	expenses := make([]expense.Expense, len(expenseModels))
	for i := range expenseModels {
		expenses[i] = *expenseModels[i].ToDomain()
	}
	return expenses, nil
}

// CountForTenant counts expenses matching the filter
func (r *GormExpenseRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter expense.Filter) (int64, error) {
	var count int64
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.ExpenseModel{}).Where("tenant_id = ?", tenantID), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *GormExpenseRepository) applyFilter(query *gorm.DB, filter expense.Filter) *gorm.DB {
	if filter.CategoryID != nil {
		query = query.Where("category_id = ?", *filter.CategoryID)
	}
	query = expenseRange(query, filter.From, filter.To)
	if filter.Search != "" {
		pattern := searchPattern(filter.Search)
		query = query.Where("LOWER(title) LIKE ? OR LOWER(description) LIKE ?", pattern, pattern)
	}
	return query
}

func expenseRange(query *gorm.DB, from, to *time.Time) *gorm.DB {
	if from != nil {
		query = query.Where("date >= ?", dateOnly(*from))
	}
	if to != nil {
		query = query.Where("date <= ?", dateOnly(*to))
	}
	return query
}

// SumForTenant totals expense amounts in the range
func (r *GormExpenseRepository) SumForTenant(ctx context.Context, tenantID uuid.UUID, from, to *time.Time) (decimal.Decimal, error) {
	var result struct {
		Total decimal.Decimal
	}
	query := expenseRange(r.db.WithContext(ctx).Model(&models.ExpenseModel{}).Where("tenant_id = ?", tenantID), from, to)
	if err := query.Select("COALESCE(SUM(amount), 0) AS total").Scan(&result).Error; err != nil {
		return decimal.Zero, err
	}
	return result.Total, nil
}

// Create inserts an expense
func (r *GormExpenseRepository) Create(ctx context.Context, e *expense.Expense) error {
	return translateError(r.db.WithContext(ctx).Create(models.ExpenseModelFromDomain(e)).Error)
}

// CreateBatch inserts expenses in chunks
func (r *GormExpenseRepository) CreateBatch(ctx context.Context, expenses []*expense.Expense) error {
	if len(expenses) == 0 {
		return nil
	}
	expenseModels := make([]*models.ExpenseModel, len(expenses))
	for i, e := range expenses {
		expenseModels[i] = models.ExpenseModelFromDomain(e)
	}
	return translateError(r.db.WithContext(ctx).CreateInBatches(expenseModels, 200).Error)
}

// Save updates an expense
func (r *GormExpenseRepository) Save(ctx context.Context, e *expense.Expense) error {
	return translateError(r.db.WithContext(ctx).Save(models.ExpenseModelFromDomain(e)).Error)
}

// Delete removes an expense of the tenant
func (r *GormExpenseRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		Delete(&models.ExpenseModel{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// UnlinkTransaction clears ledger_transaction_id on expenses settled by txID
func (r *GormExpenseRepository) UnlinkTransaction(ctx context.Context, tenantID, txID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.ExpenseModel{}).
		Where("tenant_id = ? AND ledger_transaction_id = ?", tenantID, txID).
		Update("ledger_transaction_id", nil).Error
}

// GormExpenseCategoryRepository implements expense.CategoryRepository using GORM
type GormExpenseCategoryRepository struct {
	db *gorm.DB
}

// NewGormExpenseCategoryRepository creates a new GormExpenseCategoryRepository
func NewGormExpenseCategoryRepository(db *gorm.DB) *GormExpenseCategoryRepository {
	return &GormExpenseCategoryRepository{db: db}
}

// FindByIDForTenant finds a category by ID for a specific tenant
func (r *GormExpenseCategoryRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*expense.Category, error) {
	var model models.ExpenseCategoryModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindByName matches the category name case-insensitively
func (r *GormExpenseCategoryRepository) FindByName(ctx context.Context, tenantID uuid.UUID, name string) (*expense.Category, error) {
	var model models.ExpenseCategoryModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND LOWER(name) = ?", tenantID, strings.ToLower(strings.TrimSpace(name))).
		First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindAllForTenant lists the tenant's categories
func (r *GormExpenseCategoryRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]expense.Category, error) {
	var categoryModels []models.ExpenseCategoryModel
	filter = filter.Normalize()
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.ExpenseCategoryModel{}).Where("tenant_id = ?", tenantID), filter)

	orderBy := ValidateSortField(filter.OrderBy, ExpenseCategorySortFields, "name")
	query = query.Order(fmt.Sprintf("%s %s", orderBy, ValidateSortOrder(filter.OrderDir))).
		Offset(filter.Offset()).
		Limit(filter.PageSize)

	if err := query.Find(&categoryModels).Error; err != nil {
		return nil, err
	}
	categories := make([]expense.Category, len(categoryModels))
	for i := range categoryModels {
		categories[i] = *categoryModels[i].ToDomain()
	}
	return categories, nil
}

// CountForTenant counts the tenant's categories
func (r *GormExpenseCategoryRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.ExpenseCategoryModel{}).Where("tenant_id = ?", tenantID), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *GormExpenseCategoryRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		query = query.Where("LOWER(name) LIKE ?", searchPattern(filter.Search))
	}
	return query
}

// Create inserts a category; a taken name surfaces as ErrAlreadyExists
func (r *GormExpenseCategoryRepository) Create(ctx context.Context, c *expense.Category) error {
	return translateError(r.db.WithContext(ctx).Create(models.ExpenseCategoryModelFromDomain(c)).Error)
}

// Save updates a category
func (r *GormExpenseCategoryRepository) Save(ctx context.Context, c *expense.Category) error {
	return translateError(r.db.WithContext(ctx).Save(models.ExpenseCategoryModelFromDomain(c)).Error)
}

// Delete removes a category; expenses keep their rows with the link cleared
func (r *GormExpenseCategoryRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	db := r.db.WithContext(ctx)
	result := db.Where("tenant_id = ? AND id = ?", tenantID, id).Delete(&models.ExpenseCategoryModel{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return db.Model(&models.ExpenseModel{}).
		Where("tenant_id = ? AND category_id = ?", tenantID, id).
		Update("category_id", nil).Error
}

var (
	_ expense.ExpenseRepository  = (*GormExpenseRepository)(nil)
	_ expense.CategoryRepository = (*GormExpenseCategoryRepository)(nil)
)
