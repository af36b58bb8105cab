package persistence

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/huzaifanasir-fabtechsol/backend/internal/domain/revenue"
	"github.com/huzaifanasir-fabtechsol/backend/internal/infrastructure/persistence/models"
)

// GormCounterpartyRepository implements revenue.CounterpartyRepository using GORM
type GormCounterpartyRepository struct {
	db *gorm.DB
}

// NewGormCounterpartyRepository creates a new GormCounterpartyRepository
func NewGormCounterpartyRepository(db *gorm.DB) *GormCounterpartyRepository {
	return &GormCounterpartyRepository{db: db}
}

// FindByIDForTenant finds a customer or saler by ID for a specific tenant
func (r *GormCounterpartyRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*revenue.Counterparty, error) {
	var model models.CounterpartyModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindByName matches the name case-insensitively within the role
func (r *GormCounterpartyRepository) FindByName(ctx context.Context, tenantID uuid.UUID, role revenue.CounterpartyRole, name string) (*revenue.Counterparty, error) {
	var model models.CounterpartyModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND role = ? AND LOWER(name) = ?", tenantID, role, strings.ToLower(strings.TrimSpace(name))).
		Order("created_at ASC").
		First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// Create inserts a counterparty
func (r *GormCounterpartyRepository) Create(ctx context.Context, c *revenue.Counterparty) error {
	model := models.CounterpartyModelFromDomain(c)
	return translateError(r.db.WithContext(ctx).Create(model).Error)
}

// GormAuctionRepository implements revenue.AuctionRepository using GORM
type GormAuctionRepository struct {
	db *gorm.DB
}

// NewGormAuctionRepository creates a new GormAuctionRepository
func NewGormAuctionRepository(db *gorm.DB) *GormAuctionRepository {
	return &GormAuctionRepository{db: db}
}

// FindByIDForTenant finds an auction house by ID for a specific tenant
func (r *GormAuctionRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*revenue.Auction, error) {
	var model models.AuctionModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// Create inserts an auction house
func (r *GormAuctionRepository) Create(ctx context.Context, a *revenue.Auction) error {
	model := models.AuctionModelFromDomain(a)
	return translateError(r.db.WithContext(ctx).Create(model).Error)
}

var (
	_ revenue.CounterpartyRepository = (*GormCounterpartyRepository)(nil)
	_ revenue.AuctionRepository      = (*GormAuctionRepository)(nil)
)
