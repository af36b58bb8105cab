package revenue

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/huzaifanasir-fabtechsol/backend/internal/application/scope"
	"github.com/huzaifanasir-fabtechsol/backend/internal/domain/revenue"
	"github.com/huzaifanasir-fabtechsol/backend/internal/domain/shared"
	"github.com/huzaifanasir-fabtechsol/backend/internal/infrastructure/logger"
)

// EntityResolver turns the loose references of an order request (category
// ids or names, counterparty ids or names, chassis numbers) into entities of
// the tenant, creating categories and counterparties on a miss
type EntityResolver struct {
	logger *zap.Logger
}

// NewEntityResolver creates a new EntityResolver
func NewEntityResolver(logger *zap.Logger) *EntityResolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EntityResolver{logger: logger}
}

// ResolveCategory resolves ref inside the caller's transaction.
//
// By id the category must belong to the tenant. By name the lookup is:
// name or company within the tenant, then an exact (name, company) pair among
// the shared categories, then a new category created in a savepoint.
// Another tenant's categories are never matched. When a concurrent
// request wins the insert, the savepoint is rolled back and the lookup runs
// once more.
func (r *EntityResolver) ResolveCategory(ctx context.Context, repos scope.Repositories, tenantID uuid.UUID, ref revenue.CategoryRef) (*revenue.CarCategory, error) {
	if id, ok := ref.ID(); ok {
		category, err := repos.CarCategories().FindByIDForTenant(ctx, tenantID, id)
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewValidationError("category %s does not exist", id)
		}
		return category, err
	}
	name, ok := ref.Name()
	if !ok || name == "" {
		return nil, shared.NewValidationError("category is required")
	}

	category, err := r.lookupCategory(ctx, repos, tenantID, name)
	if category != nil || err != nil {
		return category, err
	}

	created, err := revenue.NewCarCategory(tenantID, name, name)
	if err != nil {
		return nil, err
	}
	err = repos.Savepoint(ctx, func(sp scope.Repositories) error {
		return sp.CarCategories().Create(ctx, created)
	})
	if err == nil {
		logger.For(ctx, r.logger).Info("Car category created on demand",
			zap.String("category_id", created.ID.String()),
			zap.String("name", name),
		)
		return created, nil
	}
	if !errors.Is(err, shared.ErrAlreadyExists) {
		return nil, err
	}

	category, err = r.lookupCategory(ctx, repos, tenantID, name)
	if err != nil {
		return nil, err
	}
	if category == nil {
		return nil, shared.NewDomainError(shared.CodeConflict,
			fmt.Sprintf("category '%s' was created concurrently and could not be read back", name))
	}
	return category, nil
}

// lookupCategory returns nil, nil when neither lookup matches
func (r *EntityResolver) lookupCategory(ctx context.Context, repos scope.Repositories, tenantID uuid.UUID, name string) (*revenue.CarCategory, error) {
	category, err := repos.CarCategories().FindByNameOrCompany(ctx, tenantID, name)
	if err == nil {
		return category, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}
	category, err = repos.CarCategories().FindSharedByPair(ctx, name, name)
	if err == nil {
		return category, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}
	return nil, nil
}

// ResolveCounterparty finds the customer or saler an order settles with:
// by id within the tenant, else by name within the role, creating it on a
// miss. Creation runs in a savepoint like ResolveCategory, and a lost race
// falls back to one more lookup.
func (r *EntityResolver) ResolveCounterparty(ctx context.Context, repos scope.Repositories, tenantID uuid.UUID, role revenue.CounterpartyRole, id *uuid.UUID, name string) (*revenue.Counterparty, error) {
	if id != nil && *id != uuid.Nil {
		c, err := repos.Counterparties().FindByIDForTenant(ctx, tenantID, *id)
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewValidationError("%s %s does not exist", role, *id)
		}
		if err != nil {
			return nil, err
		}
		if c.Role != role {
			return nil, shared.NewValidationError("%s is a %s, expected a %s", *id, c.Role, role)
		}
		return c, nil
	}

	c, err := revenue.NewCounterparty(tenantID, role, name)
	if err != nil {
		return nil, err
	}
	existing, err := repos.Counterparties().FindByName(ctx, tenantID, role, c.Name)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	err = repos.Savepoint(ctx, func(sp scope.Repositories) error {
		return sp.Counterparties().Create(ctx, c)
	})
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, shared.ErrAlreadyExists) {
		return nil, err
	}
	existing, err = repos.Counterparties().FindByName(ctx, tenantID, role, c.Name)
	if errors.Is(err, shared.ErrNotFound) {
		return nil, shared.NewDomainError(shared.CodeConflict,
			fmt.Sprintf("%s '%s' was created concurrently and could not be read back", role, c.Name))
	}
	if err != nil {
		return nil, err
	}
	return existing, nil
}

// EnsureChassisAvailable rejects chassis numbers that repeat within the
// request or belong to a car outside reusable. Every violation is reported
// in one error. It returns the reusable cars found, keyed by chassis number.
func (r *EntityResolver) EnsureChassisAvailable(ctx context.Context, repos scope.Repositories, chassis []string, reusable map[uuid.UUID]bool) (map[string]revenue.Car, error) {
	var details []shared.ErrorDetail
	seen := make(map[string]int, len(chassis))
	normalized := make([]string, 0, len(chassis))
	for i, raw := range chassis {
		number := revenue.NormalizeChassis(raw)
		if number == "" {
			details = append(details, shared.ErrorDetail{Row: i + 1, Field: "chassis_number", Message: "chassis number is required"})
			continue
		}
		if first, dup := seen[number]; dup {
			details = append(details, shared.ErrorDetail{
				Row:     i + 1,
				Field:   "chassis_number",
				Value:   number,
				Message: fmt.Sprintf("chassis number repeats item %d", first),
			})
			continue
		}
		seen[number] = i + 1
		normalized = append(normalized, number)
	}

	existing, err := repos.Cars().FindByChassisNumbers(ctx, normalized)
	if err != nil {
		return nil, err
	}
	reused := make(map[string]revenue.Car)
	for _, car := range existing {
		if reusable[car.ID] {
			reused[car.ChassisNumber] = car
			continue
		}
		details = append(details, shared.ErrorDetail{
			Row:     seen[car.ChassisNumber],
			Field:   "chassis_number",
			Value:   car.ChassisNumber,
			Message: "chassis number is already registered to another car",
		})
	}

	if len(details) > 0 {
		return nil, shared.NewValidationError("%d chassis number problem(s)", len(details)).WithDetails(details...)
	}
	return reused, nil
}
