package revenue

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/huzaifanasir-fabtechsol/backend/internal/domain/shared"
)

// CarCategoryRepository persists car categories
type CarCategoryRepository interface {
	// FindByIDForTenant also returns shared categories
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*CarCategory, error)
	// FindByNameOrCompany matches name or company case-insensitively within the tenant
	FindByNameOrCompany(ctx context.Context, tenantID uuid.UUID, term string) (*CarCategory, error)
	// FindSharedByPair matches (name, company) exactly among shared categories
	FindSharedByPair(ctx context.Context, name, company string) (*CarCategory, error)
	// FindByIDs returns the tenant's and the shared categories with the given ids
	FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]CarCategory, error)
	// Create returns ErrAlreadyExists when the name is taken
	Create(ctx context.Context, category *CarCategory) error
}

// CarRepository persists cars
type CarRepository interface {
	// FindByChassisNumbers searches all tenants
	FindByChassisNumbers(ctx context.Context, chassis []string) ([]Car, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]Car, error)
	// Create returns ErrAlreadyExists when the chassis number is taken
	Create(ctx context.Context, car *Car) error
	Save(ctx context.Context, car *Car) error
	DeleteByIDs(ctx context.Context, ids []uuid.UUID) error
}

// CounterpartyRepository persists customers and salers
type CounterpartyRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Counterparty, error)
	FindByName(ctx context.Context, tenantID uuid.UUID, role CounterpartyRole, name string) (*Counterparty, error)
	Create(ctx context.Context, c *Counterparty) error
}

// AuctionRepository persists auction houses
type AuctionRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Auction, error)
	Create(ctx context.Context, a *Auction) error
}

// OrderFilter narrows order listings
type OrderFilter struct {
	shared.Filter
	PaymentStatus PaymentStatus
	Type          OrderType
	Category      OrderCategory
	From          *time.Time
	To            *time.Time
}

// OrderTotals aggregates order amounts for dashboards and reports
type OrderTotals struct {
	ByType   map[OrderType]decimal.Decimal
	ByStatus map[PaymentStatus]decimal.Decimal
	Count    int64
}

// OrderRepository persists orders together with their items
type OrderRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Order, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter OrderFilter) ([]Order, error)
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter OrderFilter) (int64, error)
	// Totals sums order amounts in [from, to]; nil bounds are open
	Totals(ctx context.Context, tenantID uuid.UUID, from, to *time.Time) (*OrderTotals, error)
	// Create inserts the order and its items. ErrAlreadyExists on number collision.
	Create(ctx context.Context, order *Order) error
	// Save updates header fields with an optimistic version check
	Save(ctx context.Context, order *Order) error
	// ReplaceItems deletes every stored item of the order and inserts order.Items
	ReplaceItems(ctx context.Context, order *Order) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
	// UnlinkTransaction clears the payment link of every order pointing at txID
	UnlinkTransaction(ctx context.Context, tenantID, txID uuid.UUID) error
}

// OrderNumberAllocator hands out the per-day order sequence atomically.
// Values are shared by all tenants.
type OrderNumberAllocator interface {
	Next(ctx context.Context, day time.Time) (int64, error)
}
