package revenue

import (
	"encoding/json"
	"strings"

	"github.com/google/uuid"

	"github.com/huzaifanasir-fabtechsol/backend/internal/domain/shared"
)

// CarCategory groups cars by make/model. Name is unique per tenant.
type CarCategory struct {
	shared.TenantAggregateRoot
	Name        string
	Company     string
	Description string
}

// IsShared reports whether the category carries no tenant. Shared categories
// come from data loaded before categories were tenant scoped; every tenant
// may read them and none may change them.
func (c *CarCategory) IsShared() bool {
	return c.TenantID == uuid.Nil
}

// NewCarCategory creates a category
func NewCarCategory(tenantID uuid.UUID, name, company string) (*CarCategory, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewValidationError("category name is required")
	}
	if len(name) > 255 {
		return nil, shared.NewValidationError("category name cannot exceed 255 characters")
	}
	company = strings.TrimSpace(company)
	if company == "" {
		company = name
	}
	return &CarCategory{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Name:                name,
		Company:             company,
	}, nil
}

type categoryRefKind uint8

const (
	categoryRefByID categoryRefKind = iota + 1
	categoryRefByName
)

// CategoryRef is how an order line points at its category: either an id or
// free text that the resolver matches or creates.
type CategoryRef struct {
	kind categoryRefKind
	id   uuid.UUID
	name string
}

// CategoryByID references an existing category
func CategoryByID(id uuid.UUID) CategoryRef {
	return CategoryRef{kind: categoryRefByID, id: id}
}

// CategoryByName references a category by name or company
func CategoryByName(name string) CategoryRef {
	return CategoryRef{kind: categoryRefByName, name: strings.TrimSpace(name)}
}

// ParseCategoryRef treats a UUID as an id and anything else as a name
func ParseCategoryRef(raw string) (CategoryRef, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return CategoryRef{}, shared.NewValidationError("category is required")
	}
	if id, err := uuid.Parse(raw); err == nil {
		return CategoryByID(id), nil
	}
	return CategoryByName(raw), nil
}

// ID returns the referenced id when the ref is by id
func (r CategoryRef) ID() (uuid.UUID, bool) {
	return r.id, r.kind == categoryRefByID
}

// Name returns the referenced text when the ref is by name
func (r CategoryRef) Name() (string, bool) {
	return r.name, r.kind == categoryRefByName
}

// IsZero reports an unset reference
func (r CategoryRef) IsZero() bool {
	return r.kind == 0
}

func (r CategoryRef) String() string {
	switch r.kind {
	case categoryRefByID:
		return r.id.String()
	case categoryRefByName:
		return r.name
	default:
		return ""
	}
}

// MarshalJSON writes the ref as a plain string
func (r CategoryRef) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.String())
}

// UnmarshalJSON accepts a JSON string only; numeric ids do not exist here
func (r *CategoryRef) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return shared.NewValidationError("category must be a UUID or a name")
	}
	ref, err := ParseCategoryRef(raw)
	if err != nil {
		return err
	}
	*r = ref
	return nil
}
