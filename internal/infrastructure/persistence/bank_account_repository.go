package persistence

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/huzaifanasir-fabtechsol/backend/internal/domain/ledger"
	"github.com/huzaifanasir-fabtechsol/backend/internal/domain/shared"
	"github.com/huzaifanasir-fabtechsol/backend/internal/infrastructure/persistence/models"
)

// GormBankAccountRepository implements ledger.BankAccountRepository using GORM
type GormBankAccountRepository struct {
	db *gorm.DB
}

// NewGormBankAccountRepository creates a new GormBankAccountRepository
func NewGormBankAccountRepository(db *gorm.DB) *GormBankAccountRepository {
	return &GormBankAccountRepository{db: db}
}

// FindByIDForTenant finds a bank account by ID for a specific tenant
func (r *GormBankAccountRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*ledger.BankAccount, error) {
	var model models.BankAccountModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindByIDForUpdate loads the account with SELECT ... FOR UPDATE.
// sqlite has no row locks; there the surrounding write transaction serializes instead.
func (r *GormBankAccountRepository) FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*ledger.BankAccount, error) {
	var model models.BankAccountModel
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindFirstForTenant returns the oldest account of the tenant
func (r *GormBankAccountRepository) FindFirstForTenant(ctx context.Context, tenantID uuid.UUID) (*ledger.BankAccount, error) {
	var model models.BankAccountModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("created_at ASC, id ASC").
		First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindByAccountNumber matches the account number exactly within the tenant
func (r *GormBankAccountRepository) FindByAccountNumber(ctx context.Context, tenantID uuid.UUID, number string) (*ledger.BankAccount, error) {
	var model models.BankAccountModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND account_number = ?", tenantID, number).
		Order("created_at ASC, id ASC").
		First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindAllForTenant lists the tenant's accounts
func (r *GormBankAccountRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]ledger.BankAccount, error) {
	var accountModels []models.BankAccountModel
	filter = filter.Normalize()
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.BankAccountModel{}).Where("tenant_id = ?", tenantID), filter)

	orderBy := ValidateSortField(filter.OrderBy, BankAccountSortFields, "created_at")
	query = query.Order(fmt.Sprintf("%s %s", orderBy, ValidateSortOrder(filter.OrderDir))).
		Offset(filter.Offset()).
		Limit(filter.PageSize)

	if err := query.Find(&accountModels).Error; err != nil {
		return nil, err
	}
	accounts := make([]ledger.BankAccount, len(accountModels))
	for i := range accountModels {
		accounts[i] = *accountModels[i].ToDomain()
	}
	return accounts, nil
}

// CountForTenant counts the tenant's accounts matching the filter
func (r *GormBankAccountRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.BankAccountModel{}).Where("tenant_id = ?", tenantID), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *GormBankAccountRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		pattern := searchPattern(filter.Search)
		query = query.Where("LOWER(bank_name) LIKE ? OR LOWER(account_number) LIKE ? OR LOWER(account_holder) LIKE ?",
			pattern, pattern, pattern)
	}
	return query
}

// Save creates or updates a bank account
func (r *GormBankAccountRepository) Save(ctx context.Context, account *ledger.BankAccount) error {
	model := models.BankAccountModelFromDomain(account)
	return translateError(r.db.WithContext(ctx).Save(model).Error)
}

// Delete removes an account. Callers check for referencing transactions first.
func (r *GormBankAccountRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		Delete(&models.BankAccountModel{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Ensure GormBankAccountRepository implements ledger.BankAccountRepository
var _ ledger.BankAccountRepository = (*GormBankAccountRepository)(nil)
