package bulk

import (
	"context"

	"github.com/google/uuid"

	"github.com/huzaifanasir-fabtechsol/backend/internal/domain/shared"
)

// ImportHistoryRepository persists import runs
type ImportHistoryRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*ImportHistory, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]ImportHistory, error)
	CountForTenant(ctx context.Context, tenantID uuid.UUID) (int64, error)
	Save(ctx context.Context, h *ImportHistory) error
}
