package revenue

import (
	"strings"

	"github.com/google/uuid"

	"github.com/huzaifanasir-fabtechsol/backend/internal/domain/shared"
)

// Car is one physical vehicle. ChassisNumber is unique across all tenants.
type Car struct {
	shared.TenantAggregateRoot
	Name          string
	ChassisNumber string
	Year          int
	CategoryID    *uuid.UUID
}

// NormalizeChassis canonicalises a chassis number for storage and comparison
func NormalizeChassis(s string) string {
	return strings.ToUpper(strings.Join(strings.Fields(s), ""))
}

// NewCar creates a car record
func NewCar(tenantID uuid.UUID, name, chassis string, year int, categoryID uuid.UUID) (*Car, error) {
	chassis = NormalizeChassis(chassis)
	if chassis == "" {
		return nil, shared.NewValidationError("chassis number is required")
	}
	if len(chassis) > 100 {
		return nil, shared.NewValidationError("chassis number cannot exceed 100 characters")
	}
	if year < 0 || year > 9999 {
		return nil, shared.NewValidationError("year %d is out of range", year)
	}
	c := &Car{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Name:                strings.TrimSpace(name),
		ChassisNumber:       chassis,
		Year:                year,
	}
	if categoryID != uuid.Nil {
		c.CategoryID = &categoryID
	}
	return c, nil
}

// Describe replaces name, year and category; the chassis number never changes
func (c *Car) Describe(name string, year int, categoryID uuid.UUID) error {
	if year < 0 || year > 9999 {
		return shared.NewValidationError("year %d is out of range", year)
	}
	c.Name = strings.TrimSpace(name)
	c.Year = year
	c.CategoryID = nil
	if categoryID != uuid.Nil {
		c.CategoryID = &categoryID
	}
	c.Touch()
	return nil
}
