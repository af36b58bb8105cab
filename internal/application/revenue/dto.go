package revenue

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/huzaifanasir-fabtechsol/backend/internal/domain/revenue"
	"github.com/huzaifanasir-fabtechsol/backend/internal/domain/shared"
)

// ==================== Order DTOs ====================

// OrderItemInput is one vehicle line of a create or update request.
// Category is a UUID of an existing category or a free-text name.
type OrderItemInput struct {
	Category      revenue.CategoryRef `json:"category"`
	Name          string              `json:"name" binding:"max=255"`
	ChassisNumber string              `json:"chassis_number"`
	Year          int                 `json:"year" binding:"gte=0,lte=9999"`
	Venue         string              `json:"venue" binding:"max=50"`
	YearType      string              `json:"year_type" binding:"max=10"`
	Notes         string              `json:"notes"`
	revenue.FeeBreakdown
}

// SaveOrderRequest is the body of create-with-items and update-with-items.
// Update replaces every item; the order number never changes.
type SaveOrderRequest struct {
	TransactionType     revenue.OrderType          `json:"transaction_type" binding:"required"`
	TransactionCategory revenue.OrderCategory      `json:"transaction_catagory"`
	TransactionDate     shared.Date                `json:"transaction_date"`
	PaymentStatus       revenue.PaymentStatus      `json:"payment_status"`
	FeeSchedule         revenue.FeeScheduleVersion `json:"fee_schedule"`
	Notes               string                     `json:"notes"`

	CustomerID          *uuid.UUID `json:"customer"`
	SalerID             *uuid.UUID `json:"saler"`
	CompanyAccountID    *uuid.UUID `json:"company_account"`
	AuctionID           *uuid.UUID `json:"auction"`
	LedgerTransactionID *uuid.UUID `json:"transaction"`

	// Free-text counterpart fields, kept in other_details
	CustomerName  string         `json:"customer_name"`
	SellerName    string         `json:"seller_name"`
	Phone         string         `json:"phone"`
	Address       string         `json:"address"`
	PaymentMethod string         `json:"payment_method"`
	AccountNumber string         `json:"account_number"`
	AuctionHouse  string         `json:"auction_house"`
	OtherDetails  map[string]any `json:"other_details"`

	Items []OrderItemInput `json:"items" binding:"required,min=1,dive"`
	// Version enables an optimistic check on update; zero skips it
	Version int `json:"version"`
}

// otherDetails merges the free-text counterpart fields into the JSON bag
func (r SaveOrderRequest) otherDetails() map[string]any {
	details := make(map[string]any, len(r.OtherDetails)+7)
	for k, v := range r.OtherDetails {
		details[k] = v
	}
	for key, value := range map[string]string{
		detailCustomerName:  r.CustomerName,
		detailSellerName:    r.SellerName,
		detailPhone:         r.Phone,
		detailAddress:       r.Address,
		detailPaymentMethod: r.PaymentMethod,
		detailAccountNumber: r.AccountNumber,
		detailAuctionHouse:  r.AuctionHouse,
	} {
		if value != "" {
			details[key] = value
		} else if _, ok := details[key]; !ok {
			details[key] = ""
		}
	}
	return details
}

// other_details keys
const (
	detailCustomerName  = "customer_name"
	detailSellerName    = "seller_name"
	detailPhone         = "phone"
	detailAddress       = "address"
	detailPaymentMethod = "payment_method"
	detailAccountNumber = "account_number"
	detailAuctionHouse  = "auction_house"
)

// UpdatePaymentStatusRequest changes settlement status and optionally links
// the ledger transaction that settled the order
type UpdatePaymentStatusRequest struct {
	PaymentStatus       revenue.PaymentStatus `json:"payment_status" binding:"required"`
	LedgerTransactionID *uuid.UUID            `json:"transaction"`
}

// OrderListFilter defines filtering options for order list queries
type OrderListFilter struct {
	Search              string     `form:"search"`
	PaymentStatus       string     `form:"payment_status"`
	TransactionType     string     `form:"transaction_type"`
	TransactionCategory string     `form:"transaction_catagory"`
	FromDate            *time.Time `form:"from_date" time_format:"2006-01-02"`
	ToDate              *time.Time `form:"to_date" time_format:"2006-01-02"`
	Page                int        `form:"page"`
	PageSize            int        `form:"page_size"`
	OrderBy             string     `form:"order_by"`
	OrderDir            string     `form:"order_dir"`
}

func (f OrderListFilter) toDomain() revenue.OrderFilter {
	filter := revenue.OrderFilter{
		Filter: shared.Filter{
			Page:     f.Page,
			PageSize: f.PageSize,
			OrderBy:  f.OrderBy,
			OrderDir: f.OrderDir,
			Search:   f.Search,
		},
		PaymentStatus: revenue.PaymentStatus(f.PaymentStatus),
		Type:          revenue.OrderType(f.TransactionType),
		Category:      revenue.OrderCategory(f.TransactionCategory),
		From:          f.FromDate,
		To:            f.ToDate,
	}
	if filter.OrderBy == "" {
		filter.OrderBy = "transaction_date"
	}
	if filter.OrderDir == "" {
		filter.OrderDir = "desc"
	}
	return filter
}

// OrderItemResponse represents one order line in API responses
type OrderItemResponse struct {
	ID            uuid.UUID       `json:"id"`
	CarID         uuid.UUID       `json:"car_id"`
	CarName       string          `json:"car_name,omitempty"`
	ChassisNumber string          `json:"chassis_number,omitempty"`
	Year          int             `json:"year,omitempty"`
	CategoryID    uuid.UUID       `json:"category_id"`
	CategoryName  string          `json:"category_name,omitempty"`
	Venue         string          `json:"venue,omitempty"`
	YearType      string          `json:"year_type,omitempty"`
	Notes         string          `json:"notes,omitempty"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	revenue.FeeBreakdown
}

// OrderResponse represents an order in API responses
type OrderResponse struct {
	ID                  uuid.UUID                  `json:"id"`
	OrderNumber         string                     `json:"order_number"`
	TransactionType     revenue.OrderType          `json:"transaction_type"`
	TransactionCategory revenue.OrderCategory      `json:"transaction_catagory"`
	PaymentStatus       revenue.PaymentStatus      `json:"payment_status"`
	TransactionDate     shared.Date                `json:"transaction_date"`
	CustomerID          *uuid.UUID                 `json:"customer,omitempty"`
	SalerID             *uuid.UUID                 `json:"saler,omitempty"`
	CompanyAccountID    *uuid.UUID                 `json:"company_account,omitempty"`
	AuctionID           *uuid.UUID                 `json:"auction,omitempty"`
	LedgerTransactionID *uuid.UUID                 `json:"transaction,omitempty"`
	CustomerName        string                     `json:"customer_name"`
	OtherDetails        map[string]any             `json:"other_details"`
	Notes               string                     `json:"notes"`
	FeeSchedule         revenue.FeeScheduleVersion `json:"fee_schedule"`
	TotalAmount         decimal.Decimal            `json:"total_amount"`
	ItemCount           int                        `json:"item_count"`
	Items               []OrderItemResponse        `json:"items,omitempty"`
	Version             int                        `json:"version"`
	CreatedAt           time.Time                  `json:"created_at"`
	UpdatedAt           time.Time                  `json:"updated_at"`
}

// ToOrderResponse converts a domain order; cars and categories enrich the
// item lines when present
func ToOrderResponse(o *revenue.Order, cars map[uuid.UUID]revenue.Car, categories map[uuid.UUID]revenue.CarCategory) OrderResponse {
	details := o.OtherDetails
	if details == nil {
		details = map[string]any{}
	}
	resp := OrderResponse{
		ID:                  o.ID,
		OrderNumber:         o.OrderNumber,
		TransactionType:     o.Type,
		TransactionCategory: o.Category,
		PaymentStatus:       o.PaymentStatus,
		TransactionDate:     shared.NewDate(o.TransactionDate),
		CustomerID:          o.CustomerID,
		SalerID:             o.SalerID,
		CompanyAccountID:    o.CompanyAccountID,
		AuctionID:           o.AuctionID,
		LedgerTransactionID: o.LedgerTransactionID,
		CustomerName:        o.CounterpartyName,
		OtherDetails:        details,
		Notes:               o.Notes,
		FeeSchedule:         o.FeeSchedule,
		TotalAmount:         o.TotalAmount,
		ItemCount:           len(o.Items),
		Version:             o.Version,
		CreatedAt:           o.CreatedAt,
		UpdatedAt:           o.UpdatedAt,
	}
	if cars == nil {
		return resp
	}
	resp.Items = make([]OrderItemResponse, 0, len(o.Items))
	for _, it := range o.Items {
		item := OrderItemResponse{
			ID:           it.ID,
			CarID:        it.CarID,
			CategoryID:   it.CategoryID,
			Venue:        it.Venue,
			YearType:     it.YearType,
			Notes:        it.Notes,
			Subtotal:     it.Subtotal,
			FeeBreakdown: it.Fees,
		}
		if car, ok := cars[it.CarID]; ok {
			item.CarName = car.Name
			item.ChassisNumber = car.ChassisNumber
			item.Year = car.Year
		}
		if category, ok := categories[it.CategoryID]; ok {
			item.CategoryName = category.Name
		}
		resp.Items = append(resp.Items, item)
	}
	return resp
}

// ==================== Dashboard and summary DTOs ====================

// LatestOrder is one row of the dashboard's recent orders
type LatestOrder struct {
	ID              uuid.UUID             `json:"id"`
	OrderNumber     string                `json:"order_number"`
	TransactionDate shared.Date           `json:"transaction_date"`
	TransactionType revenue.OrderType     `json:"transaction_type"`
	PaymentStatus   revenue.PaymentStatus `json:"payment_status"`
	TotalAmount     decimal.Decimal       `json:"total_amount"`
}

// DashboardResponse aggregates the tenant's headline figures
type DashboardResponse struct {
	ApprovedAmount decimal.Decimal `json:"approved_amount"`
	PendingAmount  decimal.Decimal `json:"pending_amount"`
	TotalExpense   decimal.Decimal `json:"total_expense"`
	TotalPurchase  decimal.Decimal `json:"total_purchase"`
	OrderCount     int64           `json:"order_count"`
	LatestOrders   []LatestOrder   `json:"latest_orders"`
}

// SummaryQuery selects the reporting period: an explicit range wins over
// period, which is one of today, month or year (month by default)
type SummaryQuery struct {
	Period    string     `form:"period"`
	StartDate *time.Time `form:"start_date" time_format:"2006-01-02"`
	EndDate   *time.Time `form:"end_date" time_format:"2006-01-02"`
}

// SummaryOrderLine is one order in the period detail
type SummaryOrderLine struct {
	OrderNumber     string            `json:"order_number"`
	TransactionType revenue.OrderType `json:"transaction_type"`
	TransactionDate shared.Date       `json:"transaction_date"`
	CustomerName    string            `json:"customer_name"`
	TotalAmount     decimal.Decimal   `json:"total_amount"`
}

// FinancialSummaryResponse is the period profit and loss
type FinancialSummaryResponse struct {
	Start      shared.Date        `json:"start"`
	End        shared.Date        `json:"end"`
	Sales      decimal.Decimal    `json:"sales"`
	Auctions   decimal.Decimal    `json:"auctions"`
	Nagare     decimal.Decimal    `json:"nagare"`
	Purchases  decimal.Decimal    `json:"purchases"`
	Expenses   decimal.Decimal    `json:"expenses"`
	Revenue    decimal.Decimal    `json:"revenue"`
	Cost       decimal.Decimal    `json:"cost"`
	Profit     decimal.Decimal    `json:"profit"`
	OrderCount int64              `json:"order_count"`
	Orders     []SummaryOrderLine `json:"orders"`
}
