package persistence

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/huzaifanasir-fabtechsol/backend/internal/domain/revenue"
	"github.com/huzaifanasir-fabtechsol/backend/internal/infrastructure/persistence/models"
)

// GormCarCategoryRepository implements revenue.CarCategoryRepository using GORM
type GormCarCategoryRepository struct {
	db *gorm.DB
}

// NewGormCarCategoryRepository creates a new GormCarCategoryRepository
func NewGormCarCategoryRepository(db *gorm.DB) *GormCarCategoryRepository {
	return &GormCarCategoryRepository{db: db}
}

// FindByIDForTenant finds a category of the tenant, or a shared one, by ID
func (r *GormCarCategoryRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*revenue.CarCategory, error) {
	var model models.CarCategoryModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? OR tenant_id IS NULL", tenantID).
		Where("id = ?", id).
		First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindByNameOrCompany matches name or company case-insensitively, oldest first
func (r *GormCarCategoryRepository) FindByNameOrCompany(ctx context.Context, tenantID uuid.UUID, term string) (*revenue.CarCategory, error) {
	var model models.CarCategoryModel
	needle := strings.ToLower(strings.TrimSpace(term))
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Where("LOWER(name) = ? OR LOWER(company) = ?", needle, needle).
		Order("created_at ASC, id ASC").
		First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindSharedByPair matches (name, company) exactly among rows without a tenant
func (r *GormCarCategoryRepository) FindSharedByPair(ctx context.Context, name, company string) (*revenue.CarCategory, error) {
	var model models.CarCategoryModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id IS NULL").
		Where("name = ? AND company = ?", strings.TrimSpace(name), strings.TrimSpace(company)).
		Order("created_at ASC, id ASC").
		First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindByIDs loads the tenant's and the shared categories with the given ids
func (r *GormCarCategoryRepository) FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]revenue.CarCategory, error) {
	if len(ids) == 0 {
		return []revenue.CarCategory{}, nil
	}
	var categoryModels []models.CarCategoryModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? OR tenant_id IS NULL", tenantID).
		Where("id IN ?", ids).
		Find(&categoryModels).Error; err != nil {
		return nil, err
	}
	categories := make([]revenue.CarCategory, len(categoryModels))
	for i := range categoryModels {
		categories[i] = *categoryModels[i].ToDomain()
	}
	return categories, nil
}

// Create inserts a category; a taken name surfaces as ErrAlreadyExists
func (r *GormCarCategoryRepository) Create(ctx context.Context, category *revenue.CarCategory) error {
	model := models.CarCategoryModelFromDomain(category)
	return translateError(r.db.WithContext(ctx).Create(model).Error)
}

// Ensure GormCarCategoryRepository implements revenue.CarCategoryRepository
var _ revenue.CarCategoryRepository = (*GormCarCategoryRepository)(nil)
