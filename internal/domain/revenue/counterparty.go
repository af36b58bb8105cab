package revenue

import (
	"strings"

	"github.com/google/uuid"

	"github.com/huzaifanasir-fabtechsol/backend/internal/domain/shared"
)

// CounterpartyRole separates buyers from sellers
type CounterpartyRole string

const (
	RoleCustomer CounterpartyRole = "customer"
	RoleSaler    CounterpartyRole = "saler"
)

// IsValid returns true if the role is known
func (r CounterpartyRole) IsValid() bool {
	return r == RoleCustomer || r == RoleSaler
}

// Counterparty is a customer or saler an order settles with
type Counterparty struct {
	shared.TenantAggregateRoot
	Role          CounterpartyRole
	Name          string
	Email         string
	Phone         string
	Address       string
	BankName      string
	AccountNumber string
	BranchCode    string
	SwiftCode     string
}

// NewCounterparty creates a counterparty
func NewCounterparty(tenantID uuid.UUID, role CounterpartyRole, name string) (*Counterparty, error) {
	if !role.IsValid() {
		return nil, shared.NewValidationError("invalid counterparty role '%s'", role)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewValidationError("%s name is required", role)
	}
	return &Counterparty{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Role:                role,
		Name:                name,
	}, nil
}

// Auction is an auction house orders can be placed through
type Auction struct {
	shared.TenantAggregateRoot
	Name     string
	Location string
}

// NewAuction creates an auction house
func NewAuction(tenantID uuid.UUID, name, location string) (*Auction, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewValidationError("auction name is required")
	}
	return &Auction{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Name:                name,
		Location:            strings.TrimSpace(location),
	}, nil
}
