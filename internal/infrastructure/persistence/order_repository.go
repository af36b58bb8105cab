package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/huzaifanasir-fabtechsol/backend/internal/domain/revenue"
	"github.com/huzaifanasir-fabtechsol/backend/internal/domain/shared"
	"github.com/huzaifanasir-fabtechsol/backend/internal/infrastructure/persistence/models"
)

// GormOrderRepository implements revenue.OrderRepository using GORM
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

func preloadItems(db *gorm.DB) *gorm.DB {
	return db.Order("created_at ASC, id ASC")
}

// FindByIDForTenant loads an order with its items
func (r *GormOrderRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*revenue.Order, error) {
	var model models.OrderModel
	if err := r.db.WithContext(ctx).
		Preload("Items", preloadItems).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindAllForTenant lists orders with their items
func (r *GormOrderRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter revenue.OrderFilter) ([]revenue.Order, error) {
	var orderModels []models.OrderModel
	page := filter.Filter.Normalize()
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.OrderModel{}).Where("tenant_id = ?", tenantID), filter)

	orderBy := ValidateSortField(page.OrderBy, OrderSortFields, "created_at")
	query = query.Preload("Items", preloadItems).
		Order(fmt.Sprintf("%s %s, id ASC", orderBy, ValidateSortOrder(page.OrderDir))).
		Offset(page.Offset()).
		Limit(page.PageSize)

	if err := query.Find(&orderModels).Error; err != nil {
		return nil, err
	}
	orders := make([]revenue.Order, len(orderModels))
	for i := range orderModels {
		orders[i] = *orderModels[i].ToDomain()
	}
	return orders, nil
}

// CountForTenant counts orders matching the filter
func (r *GormOrderRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter revenue.OrderFilter) (int64, error) {
	var count int64
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.OrderModel{}).Where("tenant_id = ?", tenantID), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *GormOrderRepository) applyFilter(query *gorm.DB, filter revenue.OrderFilter) *gorm.DB {
	if filter.PaymentStatus != "" {
		query = query.Where("payment_status = ?", filter.PaymentStatus)
	}
	if filter.Type != "" {
		query = query.Where("transaction_type = ?", filter.Type)
	}
	if filter.Category != "" {
		query = query.Where("transaction_category = ?", filter.Category)
	}
	query = r.applyRange(query, filter.From, filter.To)
	if filter.Search != "" {
		pattern := searchPattern(filter.Search)
		query = query.Where("LOWER(order_number) LIKE ? OR LOWER(counterparty_name) LIKE ? OR LOWER(notes) LIKE ?",
			pattern, pattern, pattern)
	}
	return query
}

func (r *GormOrderRepository) applyRange(query *gorm.DB, from, to *time.Time) *gorm.DB {
	if from != nil {
		query = query.Where("transaction_date >= ?", dateOnly(*from))
	}
	if to != nil {
		query = query.Where("transaction_date <= ?", dateOnly(*to))
	}
	return query
}

type amountBucket struct {
	Bucket string
	Total  decimal.Decimal
}

// Totals sums order amounts by type and by payment status
func (r *GormOrderRepository) Totals(ctx context.Context, tenantID uuid.UUID, from, to *time.Time) (*revenue.OrderTotals, error) {
	base := func() *gorm.DB {
		return r.applyRange(r.db.WithContext(ctx).Model(&models.OrderModel{}).Where("tenant_id = ?", tenantID), from, to)
	}

	totals := &revenue.OrderTotals{
		ByType:   make(map[revenue.OrderType]decimal.Decimal),
		ByStatus: make(map[revenue.PaymentStatus]decimal.Decimal),
	}

	var byType []amountBucket
	if err := base().
		Select("transaction_type AS bucket, COALESCE(SUM(total_amount), 0) AS total").
		Group("transaction_type").
		Scan(&byType).Error; err != nil {
		return nil, err
	}
	for _, b := range byType {
		totals.ByType[revenue.OrderType(b.Bucket)] = b.Total
	}

	var byStatus []amountBucket
	if err := base().
		Select("payment_status AS bucket, COALESCE(SUM(total_amount), 0) AS total").
		Group("payment_status").
		Scan(&byStatus).Error; err != nil {
		return nil, err
	}
	for _, b := range byStatus {
		totals.ByStatus[revenue.PaymentStatus(b.Bucket)] = b.Total
	}

	if err := base().Count(&totals.Count).Error; err != nil {
		return nil, err
	}
	return totals, nil
}

// Create inserts the order header followed by its items
func (r *GormOrderRepository) Create(ctx context.Context, order *revenue.Order) error {
	model := models.OrderModelFromDomain(order)
	items := model.Items
	model.Items = nil

	db := r.db.WithContext(ctx)
	if err := db.Omit("Items").Create(model).Error; err != nil {
		return translateError(err)
	}
	if len(items) > 0 {
		if err := db.Create(&items).Error; err != nil {
			return translateError(err)
		}
	}
	return nil
}

// Save updates the header when the stored version still matches, then bumps it
func (r *GormOrderRepository) Save(ctx context.Context, order *revenue.Order) error {
	model := models.OrderModelFromDomain(order)
	result := r.db.WithContext(ctx).
		Model(&models.OrderModel{}).
		Where("tenant_id = ? AND id = ? AND version = ?", order.TenantID, order.ID, order.Version).
		Updates(map[string]any{
			"transaction_type":      model.Type,
			"transaction_category":  model.Category,
			"payment_status":        model.PaymentStatus,
			"transaction_date":      model.TransactionDate,
			"customer_id":           model.CustomerID,
			"saler_id":              model.SalerID,
			"company_account_id":    model.CompanyAccountID,
			"auction_id":            model.AuctionID,
			"ledger_transaction_id": model.LedgerTransactionID,
			"counterparty_name":     model.CounterpartyName,
			"other_details":         model.OtherDetails,
			"notes":                 model.Notes,
			"fee_schedule":          model.FeeSchedule,
			"total_amount":          model.TotalAmount,
			"version":               order.Version + 1,
			"updated_at":            order.UpdatedAt,
		})
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.NewDomainError(shared.CodeConcurrency, "order was modified by another request")
	}
	order.Version++
	return nil
}

// ReplaceItems deletes all stored items of the order and inserts order.Items
func (r *GormOrderRepository) ReplaceItems(ctx context.Context, order *revenue.Order) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("order_id = ?", order.ID).Delete(&models.OrderItemModel{}).Error; err != nil {
		return err
	}
	items := models.OrderItemModelsFromDomain(order)
	if len(items) == 0 {
		return nil
	}
	return translateError(db.Create(&items).Error)
}

// Delete removes the order and its items
func (r *GormOrderRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	db := r.db.WithContext(ctx)
	result := db.Where("tenant_id = ? AND id = ?", tenantID, id).Delete(&models.OrderModel{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return db.Where("order_id = ?", id).Delete(&models.OrderItemModel{}).Error
}

// UnlinkTransaction clears ledger_transaction_id on orders paid by txID
func (r *GormOrderRepository) UnlinkTransaction(ctx context.Context, tenantID, txID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.OrderModel{}).
		Where("tenant_id = ? AND ledger_transaction_id = ?", tenantID, txID).
		Updates(map[string]any{
			"ledger_transaction_id": nil,
			"updated_at":            time.Now(),
		}).Error
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Ensure GormOrderRepository implements revenue.OrderRepository
var _ revenue.OrderRepository = (*GormOrderRepository)(nil)
