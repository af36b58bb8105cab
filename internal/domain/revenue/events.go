package revenue

import (
	"github.com/shopspring/decimal"

	"github.com/huzaifanasir-fabtechsol/backend/internal/domain/shared"
)

const (
	EventTypeOrderCreated              = "OrderCreated"
	EventTypeOrderItemsReplaced        = "OrderItemsReplaced"
	EventTypeOrderPaymentStatusChanged = "OrderPaymentStatusChanged"
	aggregateTypeOrder                 = "Order"
)

// OrderCreatedEvent is raised when an order and its items are persisted
type OrderCreatedEvent struct {
	shared.BaseDomainEvent
	OrderNumber string          `json:"order_number"`
	Type        OrderType       `json:"type"`
	ItemCount   int             `json:"item_count"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

// EventType returns the event type name
func (e *OrderCreatedEvent) EventType() string {
	return EventTypeOrderCreated
}

// NewOrderCreatedEvent creates an OrderCreatedEvent
func NewOrderCreatedEvent(o *Order) *OrderCreatedEvent {
	return &OrderCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderCreated, aggregateTypeOrder, o.ID, o.TenantID),
		OrderNumber:     o.OrderNumber,
		Type:            o.Type,
		ItemCount:       len(o.Items),
		TotalAmount:     o.TotalAmount,
	}
}

// OrderItemsReplacedEvent is raised after update-with-items
type OrderItemsReplacedEvent struct {
	shared.BaseDomainEvent
	OrderNumber string          `json:"order_number"`
	ItemCount   int             `json:"item_count"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

// EventType returns the event type name
func (e *OrderItemsReplacedEvent) EventType() string {
	return EventTypeOrderItemsReplaced
}

// NewOrderItemsReplacedEvent creates an OrderItemsReplacedEvent
func NewOrderItemsReplacedEvent(o *Order) *OrderItemsReplacedEvent {
	return &OrderItemsReplacedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderItemsReplaced, aggregateTypeOrder, o.ID, o.TenantID),
		OrderNumber:     o.OrderNumber,
		ItemCount:       len(o.Items),
		TotalAmount:     o.TotalAmount,
	}
}

// OrderPaymentStatusChangedEvent is raised when settlement status moves
type OrderPaymentStatusChangedEvent struct {
	shared.BaseDomainEvent
	From PaymentStatus `json:"from"`
	To   PaymentStatus `json:"to"`
}

// EventType returns the event type name
func (e *OrderPaymentStatusChangedEvent) EventType() string {
	return EventTypeOrderPaymentStatusChanged
}

// NewOrderPaymentStatusChangedEvent creates an OrderPaymentStatusChangedEvent
func NewOrderPaymentStatusChangedEvent(o *Order, from PaymentStatus) *OrderPaymentStatusChangedEvent {
	return &OrderPaymentStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderPaymentStatusChanged, aggregateTypeOrder, o.ID, o.TenantID),
		From:            from,
		To:              o.PaymentStatus,
	}
}
