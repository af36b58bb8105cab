package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/huzaifanasir-fabtechsol/backend/internal/domain/ledger"
	"github.com/huzaifanasir-fabtechsol/backend/internal/domain/shared"
	"github.com/huzaifanasir-fabtechsol/backend/internal/infrastructure/persistence/models"
)

const chainOrder = "date ASC, sequence ASC"

// GormLedgerTransactionRepository implements ledger.LedgerTransactionRepository using GORM
type GormLedgerTransactionRepository struct {
	db *gorm.DB
}

// NewGormLedgerTransactionRepository creates a new GormLedgerTransactionRepository
func NewGormLedgerTransactionRepository(db *gorm.DB) *GormLedgerTransactionRepository {
	return &GormLedgerTransactionRepository{db: db}
}

// FindByIDForTenant finds a transaction by ID for a specific tenant
func (r *GormLedgerTransactionRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*ledger.LedgerTransaction, error) {
	var model models.LedgerTransactionModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindAllForTenant lists transactions, newest first unless the filter says otherwise
func (r *GormLedgerTransactionRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter ledger.TransactionFilter) ([]ledger.LedgerTransaction, error) {
	var txModels []models.LedgerTransactionModel
	page := filter.Filter.Normalize()
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.LedgerTransactionModel{}).Where("tenant_id = ?", tenantID), filter)

	orderBy := ValidateSortField(page.OrderBy, LedgerTransactionSortFields, "date")
	dir := ValidateSortOrder(page.OrderDir)
	query = query.Order(fmt.Sprintf("%s %s, sequence %s", orderBy, dir, dir)).
		Offset(page.Offset()).
		Limit(page.PageSize)

	if err := query.Find(&txModels).Error; err != nil {
		return nil, err
	}
	txs := make([]ledger.LedgerTransaction, len(txModels))
	for i := range txModels {
		txs[i] = *txModels[i].ToDomain()
	}
	return txs, nil
}

// CountForTenant counts transactions matching the filter
func (r *GormLedgerTransactionRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter ledger.TransactionFilter) (int64, error) {
	var count int64
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.LedgerTransactionModel{}).Where("tenant_id = ?", tenantID), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *GormLedgerTransactionRepository) applyFilter(query *gorm.DB, filter ledger.TransactionFilter) *gorm.DB {
	if filter.BankAccountID != nil {
		query = query.Where("bank_account_id = ?", *filter.BankAccountID)
	}
	if filter.Date != nil {
		query = query.Where("date = ?", ledger.NormalizeDate(*filter.Date))
	}
	if filter.From != nil {
		query = query.Where("date >= ?", ledger.NormalizeDate(*filter.From))
	}
	if filter.To != nil {
		query = query.Where("date <= ?", ledger.NormalizeDate(*filter.To))
	}
	if filter.Search != "" {
		pattern := searchPattern(filter.Search)
		query = query.Where("LOWER(description) LIKE ? OR LOWER(notes) LIKE ? OR LOWER(external_id) LIKE ?",
			pattern, pattern, pattern)
	}
	return query
}

// FindFirstByExternalID returns the earliest-inserted transaction carrying externalID
func (r *GormLedgerTransactionRepository) FindFirstByExternalID(ctx context.Context, tenantID uuid.UUID, externalID string) (*ledger.LedgerTransaction, error) {
	var model models.LedgerTransactionModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND external_id = ?", tenantID, externalID).
		Order("created_at ASC, sequence ASC").
		First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindLatestBefore returns the last transaction strictly before pos, or nil
func (r *GormLedgerTransactionRepository) FindLatestBefore(ctx context.Context, accountID uuid.UUID, pos ledger.Position, excludeID uuid.UUID) (*ledger.LedgerTransaction, error) {
	var txModels []models.LedgerTransactionModel
	date := ledger.NormalizeDate(pos.Date)
	if err := r.db.WithContext(ctx).
		Where("bank_account_id = ? AND id <> ?", accountID, excludeID).
		Where("date < ? OR (date = ? AND sequence < ?)", date, date, pos.Sequence).
		Order("date DESC, sequence DESC").
		Limit(1).
		Find(&txModels).Error; err != nil {
		return nil, err
	}
	if len(txModels) == 0 {
		return nil, nil
	}
	return txModels[0].ToDomain(), nil
}

// FindFrom returns every transaction at or after pos in chain order
func (r *GormLedgerTransactionRepository) FindFrom(ctx context.Context, accountID uuid.UUID, pos ledger.Position) ([]*ledger.LedgerTransaction, error) {
	date := ledger.NormalizeDate(pos.Date)
	return r.findChain(r.db.WithContext(ctx).
		Where("bank_account_id = ?", accountID).
		Where("date > ? OR (date = ? AND sequence >= ?)", date, date, pos.Sequence))
}

// FindChain returns the whole chain of an account
func (r *GormLedgerTransactionRepository) FindChain(ctx context.Context, accountID uuid.UUID) ([]*ledger.LedgerTransaction, error) {
	return r.findChain(r.db.WithContext(ctx).Where("bank_account_id = ?", accountID))
}

func (r *GormLedgerTransactionRepository) findChain(query *gorm.DB) ([]*ledger.LedgerTransaction, error) {
	var txModels []models.LedgerTransactionModel
	if err := query.Order(chainOrder).Find(&txModels).Error; err != nil {
		return nil, err
	}
	txs := make([]*ledger.LedgerTransaction, len(txModels))
	for i := range txModels {
		txs[i] = txModels[i].ToDomain()
	}
	return txs, nil
}

// CountByAccount counts transactions posted against an account
func (r *GormLedgerTransactionRepository) CountByAccount(ctx context.Context, accountID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.LedgerTransactionModel{}).
		Where("bank_account_id = ?", accountID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Create inserts one transaction
func (r *GormLedgerTransactionRepository) Create(ctx context.Context, tx *ledger.LedgerTransaction) error {
	model := models.LedgerTransactionModelFromDomain(tx)
	return translateError(r.db.WithContext(ctx).Create(model).Error)
}

// CreateBatch inserts transactions in chunks
func (r *GormLedgerTransactionRepository) CreateBatch(ctx context.Context, txs []*ledger.LedgerTransaction) error {
	if len(txs) == 0 {
		return nil
	}
	txModels := make([]*models.LedgerTransactionModel, len(txs))
	for i, tx := range txs {
		txModels[i] = models.LedgerTransactionModelFromDomain(tx)
	}
	return translateError(r.db.WithContext(ctx).CreateInBatches(txModels, 200).Error)
}

// Save updates every column of an existing transaction
func (r *GormLedgerTransactionRepository) Save(ctx context.Context, tx *ledger.LedgerTransaction) error {
	model := models.LedgerTransactionModelFromDomain(tx)
	return translateError(r.db.WithContext(ctx).Save(model).Error)
}

// UpdateBalances writes only the balance column of each transaction
func (r *GormLedgerTransactionRepository) UpdateBalances(ctx context.Context, txs []*ledger.LedgerTransaction) error {
	now := time.Now().UTC()
	for _, tx := range txs {
		if err := r.db.WithContext(ctx).
			Model(&models.LedgerTransactionModel{}).
			Where("id = ?", tx.ID).
			Updates(map[string]any{
				"balance":    tx.Balance,
				"updated_at": now,
			}).Error; err != nil {
			return fmt.Errorf("update balance of %s: %w", tx.ID, err)
		}
	}
	return nil
}

// Delete removes a transaction of the tenant
func (r *GormLedgerTransactionRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		Delete(&models.LedgerTransactionModel{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Ensure GormLedgerTransactionRepository implements ledger.LedgerTransactionRepository
var _ ledger.LedgerTransactionRepository = (*GormLedgerTransactionRepository)(nil)
