package persistence

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/huzaifanasir-fabtechsol/backend/internal/domain/revenue"
	"github.com/huzaifanasir-fabtechsol/backend/internal/infrastructure/persistence/models"
)

// GormCarRepository implements revenue.CarRepository using GORM.
// Chassis lookups ignore tenants since a chassis identifies one physical vehicle.
type GormCarRepository struct {
	db *gorm.DB
}

// NewGormCarRepository creates a new GormCarRepository
func NewGormCarRepository(db *gorm.DB) *GormCarRepository {
	return &GormCarRepository{db: db}
}

// FindByChassisNumbers returns every car holding one of the (normalised) numbers
func (r *GormCarRepository) FindByChassisNumbers(ctx context.Context, chassis []string) ([]revenue.Car, error) {
	if len(chassis) == 0 {
		return []revenue.Car{}, nil
	}
	var carModels []models.CarModel
	if err := r.db.WithContext(ctx).
		Where("chassis_number IN ?", chassis).
		Find(&carModels).Error; err != nil {
		return nil, err
	}
	return carsToDomain(carModels), nil
}

// FindByIDs loads cars by id
func (r *GormCarRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]revenue.Car, error) {
	if len(ids) == 0 {
		return []revenue.Car{}, nil
	}
	var carModels []models.CarModel
	if err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&carModels).Error; err != nil {
		return nil, err
	}
	return carsToDomain(carModels), nil
}

func carsToDomain(carModels []models.CarModel) []revenue.Car {
	cars := make([]revenue.Car, len(carModels))
	for i := range carModels {
		cars[i] = *carModels[i].ToDomain()
	}
	return cars
}

// Create inserts a car; a taken chassis number surfaces as ErrAlreadyExists
func (r *GormCarRepository) Create(ctx context.Context, car *revenue.Car) error {
	model := models.CarModelFromDomain(car)
	return translateError(r.db.WithContext(ctx).Create(model).Error)
}

// Save updates a car's descriptive fields
func (r *GormCarRepository) Save(ctx context.Context, car *revenue.Car) error {
	model := models.CarModelFromDomain(car)
	return translateError(r.db.WithContext(ctx).Save(model).Error)
}

// DeleteByIDs removes cars, used when order items are replaced
func (r *GormCarRepository) DeleteByIDs(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Delete(&models.CarModel{}).Error
}

// Ensure GormCarRepository implements revenue.CarRepository
var _ revenue.CarRepository = (*GormCarRepository)(nil)
