package persistence

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/huzaifanasir-fabtechsol/backend/internal/domain/bulk"
	"github.com/huzaifanasir-fabtechsol/backend/internal/domain/shared"
	"github.com/huzaifanasir-fabtechsol/backend/internal/infrastructure/persistence/models"
)

// ImportHistorySortFields contains allowed sort fields for import histories
var ImportHistorySortFields = map[string]bool{
	"created_at":   true,
	"file_name":    true,
	"status":       true,
	"total_rows":   true,
	"started_at":   true,
	"completed_at": true,
}

// GormImportHistoryRepository implements ImportHistoryRepository using GORM
type GormImportHistoryRepository struct {
	db *gorm.DB
}

// NewGormImportHistoryRepository creates a new GormImportHistoryRepository
func NewGormImportHistoryRepository(db *gorm.DB) *GormImportHistoryRepository {
	return &GormImportHistoryRepository{db: db}
}

// FindByIDForTenant finds an import run by ID
func (r *GormImportHistoryRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*bulk.ImportHistory, error) {
	var model models.ImportHistoryModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindAllForTenant lists import runs, most recent first by default
func (r *GormImportHistoryRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]bulk.ImportHistory, error) {
	var historyModels []models.ImportHistoryModel
	filter = filter.Normalize()
	query := r.db.WithContext(ctx).Model(&models.ImportHistoryModel{}).Where("tenant_id = ?", tenantID)
	if filter.Search != "" {
		query = query.Where("LOWER(file_name) LIKE ?", searchPattern(filter.Search))
	}

	orderBy := ValidateSortField(filter.OrderBy, ImportHistorySortFields, "created_at")
	query = query.Order(fmt.Sprintf("%s %s", orderBy, ValidateSortOrder(filter.OrderDir))).
		Offset(filter.Offset()).
		Limit(filter.PageSize)

	if err := query.Find(&historyModels).Error; err != nil {
		return nil, err
	}
	histories := make([]bulk.ImportHistory, len(historyModels))
	for i := range historyModels {
		histories[i] = *historyModels[i].ToDomain()
	}
	return histories, nil
}

// CountForTenant counts the tenant's import runs
func (r *GormImportHistoryRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.ImportHistoryModel{}).
		Where("tenant_id = ?", tenantID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Save creates or updates an import run
func (r *GormImportHistoryRepository) Save(ctx context.Context, h *bulk.ImportHistory) error {
	return translateError(r.db.WithContext(ctx).Save(models.ImportHistoryModelFromDomain(h)).Error)
}

// Ensure GormImportHistoryRepository implements bulk.ImportHistoryRepository
var _ bulk.ImportHistoryRepository = (*GormImportHistoryRepository)(nil)
