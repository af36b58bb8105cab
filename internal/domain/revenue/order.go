package revenue

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/huzaifanasir-fabtechsol/backend/internal/domain/shared"
)

// OrderType is the commercial variant of an order
type OrderType string

const (
	OrderTypePurchase OrderType = "purchase"
	OrderTypeSale     OrderType = "sale"
	OrderTypeAuction  OrderType = "auction"
	OrderTypeNagare   OrderType = "nagare"
)

// IsValid returns true if the type is known
func (t OrderType) IsValid() bool {
	switch t {
	case OrderTypePurchase, OrderTypeSale, OrderTypeAuction, OrderTypeNagare:
		return true
	}
	return false
}

// RequiredRole is the counterparty role an order of this type settles with
func (t OrderType) RequiredRole() CounterpartyRole {
	if t == OrderTypePurchase {
		return RoleSaler
	}
	return RoleCustomer
}

// OrderCategory is local or foreign trade
type OrderCategory string

const (
	OrderCategoryLocal   OrderCategory = "local"
	OrderCategoryForeign OrderCategory = "foreign"
)

// IsValid returns true if the category is known
func (c OrderCategory) IsValid() bool {
	return c == OrderCategoryLocal || c == OrderCategoryForeign
}

// PaymentStatus tracks settlement of an order
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
)

// IsValid returns true if the status is known
func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusCompleted, PaymentStatusFailed:
		return true
	}
	return false
}

// Order is a purchase, sale, auction or nagare settlement with its vehicle lines.
// TotalAmount is always the sum of the line subtotals.
type Order struct {
	shared.TenantAggregateRoot
	OrderNumber         string
	Type                OrderType
	Category            OrderCategory
	PaymentStatus       PaymentStatus
	TransactionDate     time.Time
	CustomerID          *uuid.UUID
	SalerID             *uuid.UUID
	CompanyAccountID    *uuid.UUID
	AuctionID           *uuid.UUID
	LedgerTransactionID *uuid.UUID
	CounterpartyName    string
	OtherDetails        map[string]any
	Notes               string
	FeeSchedule         FeeScheduleVersion
	TotalAmount         decimal.Decimal
	Items               []OrderItem
}

// OrderItem is one vehicle line on an order
type OrderItem struct {
	shared.BaseEntity
	OrderID    uuid.UUID
	CarID      uuid.UUID
	CategoryID uuid.UUID
	Venue      string
	YearType   string
	Notes      string
	Fees       FeeBreakdown
	Subtotal   decimal.Decimal
}

// OrderHeader carries the editable header fields of an order
type OrderHeader struct {
	Type            OrderType
	Category        OrderCategory
	PaymentStatus   PaymentStatus
	TransactionDate time.Time
	OtherDetails    map[string]any
	Notes           string
}

// ItemLine is a resolved line ready to be priced
type ItemLine struct {
	CarID      uuid.UUID
	CategoryID uuid.UUID
	Venue      string
	YearType   string
	Notes      string
	Fees       FeeBreakdown
}

// NewOrder validates the header and creates an order without items or number
func NewOrder(tenantID uuid.UUID, h OrderHeader) (*Order, error) {
	if tenantID == uuid.Nil {
		return nil, shared.NewValidationError("tenant is required")
	}
	o := &Order{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		PaymentStatus:       PaymentStatusPending,
		TotalAmount:         decimal.Zero,
	}
	if err := o.UpdateHeader(h); err != nil {
		return nil, err
	}
	return o, nil
}

// UpdateHeader replaces the header fields
func (o *Order) UpdateHeader(h OrderHeader) error {
	if !h.Type.IsValid() {
		return shared.NewValidationError("invalid transaction type '%s'", h.Type)
	}
	if h.Category == "" {
		h.Category = OrderCategoryLocal
	}
	if !h.Category.IsValid() {
		return shared.NewValidationError("invalid transaction category '%s'", h.Category)
	}
	if h.PaymentStatus == "" {
		h.PaymentStatus = o.PaymentStatus
	}
	if !h.PaymentStatus.IsValid() {
		return shared.NewValidationError("invalid payment status '%s'", h.PaymentStatus)
	}
	if h.TransactionDate.IsZero() {
		return shared.NewValidationError("transaction date is required")
	}
	y, m, d := h.TransactionDate.Date()
	o.Type = h.Type
	o.Category = h.Category
	o.PaymentStatus = h.PaymentStatus
	o.TransactionDate = time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	o.OtherDetails = h.OtherDetails
	o.Notes = strings.TrimSpace(h.Notes)
	o.Touch()
	return nil
}

// AssignNumber sets the order number once
func (o *Order) AssignNumber(number string) error {
	if o.OrderNumber != "" {
		return fmt.Errorf("%w: order already numbered %s", shared.ErrInvalidState, o.OrderNumber)
	}
	o.OrderNumber = number
	return nil
}

// SetCounterparty links the customer or saler the order type requires
func (o *Order) SetCounterparty(c *Counterparty) error {
	if c.Role != o.Type.RequiredRole() {
		return shared.NewValidationError("%s orders need a %s, got a %s", o.Type, o.Type.RequiredRole(), c.Role)
	}
	id := c.ID
	switch c.Role {
	case RoleCustomer:
		o.CustomerID, o.SalerID = &id, nil
	case RoleSaler:
		o.SalerID, o.CustomerID = &id, nil
	}
	o.CounterpartyName = c.Name
	return nil
}

// PriceItems replaces the lines, computing every subtotal with schedule and
// setting the total to their sum
func (o *Order) PriceItems(schedule FeeSchedule, lines []ItemLine) error {
	if len(lines) == 0 {
		return shared.NewValidationError("order requires at least one item")
	}
	items := make([]OrderItem, 0, len(lines))
	total := decimal.Zero
	for i, line := range lines {
		if err := line.Fees.Validate(); err != nil {
			de, _ := shared.AsDomainError(err)
			return de.WithDetails(shared.ErrorDetail{Row: i + 1, Message: de.Message})
		}
		subtotal := schedule.Subtotal(line.Fees)
		items = append(items, OrderItem{
			BaseEntity: shared.NewBaseEntity(),
			OrderID:    o.ID,
			CarID:      line.CarID,
			CategoryID: line.CategoryID,
			Venue:      strings.TrimSpace(line.Venue),
			YearType:   strings.TrimSpace(line.YearType),
			Notes:      strings.TrimSpace(line.Notes),
			Fees:       line.Fees,
			Subtotal:   subtotal,
		})
		total = total.Add(subtotal)
	}
	o.Items = items
	o.FeeSchedule = schedule.Version()
	o.TotalAmount = total
	o.Touch()
	return nil
}

// ItemsTotal recomputes the sum of item subtotals
func (o *Order) ItemsTotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.Subtotal)
	}
	return total
}

// CarIDs lists the cars on the current lines
func (o *Order) CarIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(o.Items))
	for _, item := range o.Items {
		ids = append(ids, item.CarID)
	}
	return ids
}

// SetPaymentStatus changes settlement status
func (o *Order) SetPaymentStatus(status PaymentStatus) error {
	if !status.IsValid() {
		return shared.NewValidationError("invalid payment status '%s'", status)
	}
	if o.PaymentStatus == status {
		return nil
	}
	old := o.PaymentStatus
	o.PaymentStatus = status
	o.Touch()
	o.AddDomainEvent(NewOrderPaymentStatusChangedEvent(o, old))
	return nil
}

// LinkPayment points the order at the ledger transaction that settled it
func (o *Order) LinkPayment(txID *uuid.UUID) {
	o.LedgerTransactionID = txID
	o.Touch()
}

// IsAuctionLayout reports whether invoices use the auction column set
func (o *Order) IsAuctionLayout() bool {
	return o.Type == OrderTypeAuction || o.Type == OrderTypeNagare
}

// OrderNumberPrefix is the "ORD-YYYYMMDD-" part shared by a day's numbers
func OrderNumberPrefix(day time.Time) string {
	return "ORD-" + day.Format("20060102") + "-"
}

// FormatOrderNumber renders ORD-YYYYMMDD-NNN
func FormatOrderNumber(day time.Time, seq int64) string {
	return fmt.Sprintf("%s%03d", OrderNumberPrefix(day), seq)
}
