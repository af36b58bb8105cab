package persistence

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/huzaifanasir-fabtechsol/backend/internal/domain/revenue"
)

// nextOrderNumberSQL bumps (or starts) the counter row of a day and returns the
// new value in one statement, so two writers can never read the same value.
// The counter never falls behind the highest ORD-<day>-NNN already stored.
// Works on postgres and on sqlite 3.35+.
const nextOrderNumberSQL = `INSERT INTO order_number_sequences (day, last_value, updated_at)
VALUES (?, (SELECT COALESCE(MAX(CAST(SUBSTR(order_number, ?) AS BIGINT)), 0) + 1 FROM orders WHERE order_number LIKE ?), ?)
ON CONFLICT (day) DO UPDATE SET
last_value = CASE WHEN order_number_sequences.last_value >= excluded.last_value
THEN order_number_sequences.last_value + 1 ELSE excluded.last_value END,
updated_at = excluded.updated_at
RETURNING last_value`

// GormOrderNumberAllocator implements revenue.OrderNumberAllocator on the
// order_number_sequences table
type GormOrderNumberAllocator struct {
	db *gorm.DB
}

// NewGormOrderNumberAllocator creates a new GormOrderNumberAllocator
func NewGormOrderNumberAllocator(db *gorm.DB) *GormOrderNumberAllocator {
	return &GormOrderNumberAllocator{db: db}
}

// Next returns the next sequence value of day. Inside the order's transaction
// the bump rolls back together with a failed create.
func (a *GormOrderNumberAllocator) Next(ctx context.Context, day time.Time) (int64, error) {
	var value int64
	key := day.Format("20060102")
	prefix := revenue.OrderNumberPrefix(day)
	if err := a.db.WithContext(ctx).
		Raw(nextOrderNumberSQL, key, len(prefix)+1, prefix+"%", time.Now().UTC()).
		Scan(&value).Error; err != nil {
		return 0, fmt.Errorf("allocate order number for %s: %w", key, err)
	}
	if value < 1 {
		return 0, fmt.Errorf("allocate order number for %s: counter returned %d", key, value)
	}
	return value, nil
}

// Ensure GormOrderNumberAllocator implements revenue.OrderNumberAllocator
var _ revenue.OrderNumberAllocator = (*GormOrderNumberAllocator)(nil)
