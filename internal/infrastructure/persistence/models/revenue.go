package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"

	"github.com/huzaifanasir-fabtechsol/backend/internal/domain/revenue"
)

// CarCategoryModel is the persistence model for CarCategory; name is unique per tenant.
// It spells out the tenant columns so tenant_id can join the composite unique index.
// A NULL tenant_id marks a shared category.
type CarCategoryModel struct {
	BaseModel
	Version     int        `gorm:"not null;default:1"`
	TenantID    *uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_car_category_tenant_name,priority:1"`
	CreatedBy   *uuid.UUID `gorm:"type:uuid"`
	Name        string     `gorm:"type:varchar(255);not null;uniqueIndex:idx_car_category_tenant_name,priority:2"`
	Company     string     `gorm:"type:varchar(255);not null;index"`
	Description string     `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (CarCategoryModel) TableName() string {
	return "car_categories"
}

// ToDomain converts the model to a domain CarCategory
func (m *CarCategoryModel) ToDomain() *revenue.CarCategory {
	root := TenantAggregateModel{BaseModel: m.BaseModel, Version: m.Version, CreatedBy: m.CreatedBy}
	if m.TenantID != nil {
		root.TenantID = *m.TenantID
	}
	return &revenue.CarCategory{
		TenantAggregateRoot: root.ToTenantAggregateRoot(),
		Name:                m.Name,
		Company:             m.Company,
		Description:         m.Description,
	}
}

// CarCategoryModelFromDomain builds the model from a domain CarCategory
func CarCategoryModelFromDomain(c *revenue.CarCategory) *CarCategoryModel {
	m := &CarCategoryModel{
		Version:     c.Version,
		CreatedBy:   c.CreatedBy,
		Name:        c.Name,
		Company:     c.Company,
		Description: c.Description,
	}
	if !c.IsShared() {
		tenantID := c.TenantID
		m.TenantID = &tenantID
	}
	m.FromDomainBaseEntity(c.BaseEntity)
	return m
}

// CarModel is the persistence model for Car; chassis numbers are unique system-wide
type CarModel struct {
	TenantAggregateModel
	Name          string     `gorm:"type:varchar(255)"`
	ChassisNumber string     `gorm:"type:varchar(100);not null;uniqueIndex:idx_cars_chassis"`
	Year          int        `gorm:"not null;default:0"`
	CategoryID    *uuid.UUID `gorm:"type:uuid;index"`
}

// TableName returns the table name for GORM
func (CarModel) TableName() string {
	return "cars"
}

// ToDomain converts the model to a domain Car
func (m *CarModel) ToDomain() *revenue.Car {
	return &revenue.Car{
		TenantAggregateRoot: m.ToTenantAggregateRoot(),
		Name:                m.Name,
		ChassisNumber:       m.ChassisNumber,
		Year:                m.Year,
		CategoryID:          m.CategoryID,
	}
}

// CarModelFromDomain builds the model from a domain Car
func CarModelFromDomain(c *revenue.Car) *CarModel {
	m := &CarModel{
		Name:          c.Name,
		ChassisNumber: c.ChassisNumber,
		Year:          c.Year,
		CategoryID:    c.CategoryID,
	}
	m.FromDomainTenantAggregateRoot(c.TenantAggregateRoot)
	return m
}

// CounterpartyModel stores customers and salers; a name is unique per tenant
// and role. Like CarCategoryModel it spells out the tenant columns for the
// composite unique index.
type CounterpartyModel struct {
	BaseModel
	Version       int                      `gorm:"not null;default:1"`
	TenantID      uuid.UUID                `gorm:"type:uuid;not null;uniqueIndex:idx_counterparties_tenant_role_name,priority:1"`
	CreatedBy     *uuid.UUID               `gorm:"type:uuid"`
	Role          revenue.CounterpartyRole `gorm:"type:varchar(20);not null;uniqueIndex:idx_counterparties_tenant_role_name,priority:2"`
	Name          string                   `gorm:"type:varchar(255);not null;uniqueIndex:idx_counterparties_tenant_role_name,priority:3"`
	Email         string                   `gorm:"type:varchar(255)"`
	Phone         string                   `gorm:"type:varchar(50)"`
	Address       string                   `gorm:"type:text"`
	BankName      string                   `gorm:"type:varchar(100)"`
	AccountNumber string                   `gorm:"type:varchar(100)"`
	BranchCode    string                   `gorm:"type:varchar(50)"`
	SwiftCode     string                   `gorm:"type:varchar(20)"`
}

// TableName returns the table name for GORM
func (CounterpartyModel) TableName() string {
	return "counterparties"
}

// ToDomain converts the model to a domain Counterparty
func (m *CounterpartyModel) ToDomain() *revenue.Counterparty {
	root := TenantAggregateModel{BaseModel: m.BaseModel, Version: m.Version, TenantID: m.TenantID, CreatedBy: m.CreatedBy}
	return &revenue.Counterparty{
		TenantAggregateRoot: root.ToTenantAggregateRoot(),
		Role:                m.Role,
		Name:                m.Name,
		Email:               m.Email,
		Phone:               m.Phone,
		Address:             m.Address,
		BankName:            m.BankName,
		AccountNumber:       m.AccountNumber,
		BranchCode:          m.BranchCode,
		SwiftCode:           m.SwiftCode,
	}
}

// CounterpartyModelFromDomain builds the model from a domain Counterparty
func CounterpartyModelFromDomain(c *revenue.Counterparty) *CounterpartyModel {
	m := &CounterpartyModel{
		Version:       c.Version,
		TenantID:      c.TenantID,
		CreatedBy:     c.CreatedBy,
		Role:          c.Role,
		Name:          c.Name,
		Email:         c.Email,
		Phone:         c.Phone,
		Address:       c.Address,
		BankName:      c.BankName,
		AccountNumber: c.AccountNumber,
		BranchCode:    c.BranchCode,
		SwiftCode:     c.SwiftCode,
	}
	m.FromDomainBaseEntity(c.BaseEntity)
	return m
}

// AuctionModel stores auction houses
type AuctionModel struct {
	TenantAggregateModel
	Name     string `gorm:"type:varchar(255);not null"`
	Location string `gorm:"type:varchar(255)"`
}

// TableName returns the table name for GORM
func (AuctionModel) TableName() string {
	return "auctions"
}

// ToDomain converts the model to a domain Auction
func (m *AuctionModel) ToDomain() *revenue.Auction {
	return &revenue.Auction{
		TenantAggregateRoot: m.ToTenantAggregateRoot(),
		Name:                m.Name,
		Location:            m.Location,
	}
}

// AuctionModelFromDomain builds the model from a domain Auction
func AuctionModelFromDomain(a *revenue.Auction) *AuctionModel {
	m := &AuctionModel{Name: a.Name, Location: a.Location}
	m.FromDomainTenantAggregateRoot(a.TenantAggregateRoot)
	return m
}

// OrderModel is the persistence model for the Order aggregate
type OrderModel struct {
	TenantAggregateModel
	OrderNumber         string                `gorm:"type:varchar(50);not null;uniqueIndex:idx_orders_number"`
	Type                revenue.OrderType     `gorm:"column:transaction_type;type:varchar(20);not null;index"`
	Category            revenue.OrderCategory `gorm:"column:transaction_category;type:varchar(20);not null"`
	PaymentStatus       revenue.PaymentStatus `gorm:"type:varchar(20);not null;default:'pending';index"`
	TransactionDate     time.Time             `gorm:"type:date;not null;index"`
	CustomerID          *uuid.UUID            `gorm:"type:uuid;index"`
	SalerID             *uuid.UUID            `gorm:"type:uuid;index"`
	CompanyAccountID    *uuid.UUID            `gorm:"type:uuid"`
	AuctionID           *uuid.UUID            `gorm:"type:uuid"`
	LedgerTransactionID *uuid.UUID            `gorm:"type:uuid"`
	CounterpartyName    string                `gorm:"type:varchar(255)"`
	OtherDetails        datatypes.JSONMap     `gorm:"not null"`
	Notes               string                `gorm:"type:text"`
	FeeSchedule         string                `gorm:"type:varchar(30);not null"`
	TotalAmount         decimal.Decimal       `gorm:"type:decimal(18,2);not null;default:0"`
	Items               []OrderItemModel      `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM
func (OrderModel) TableName() string {
	return "orders"
}

// ToDomain converts the model (with preloaded items) to a domain Order
func (m *OrderModel) ToDomain() *revenue.Order {
	o := &revenue.Order{
		TenantAggregateRoot: m.ToTenantAggregateRoot(),
		OrderNumber:         m.OrderNumber,
		Type:                m.Type,
		Category:            m.Category,
		PaymentStatus:       m.PaymentStatus,
		TransactionDate:     m.TransactionDate,
		CustomerID:          m.CustomerID,
		SalerID:             m.SalerID,
		CompanyAccountID:    m.CompanyAccountID,
		AuctionID:           m.AuctionID,
		LedgerTransactionID: m.LedgerTransactionID,
		CounterpartyName:    m.CounterpartyName,
		OtherDetails:        map[string]any(m.OtherDetails),
		Notes:               m.Notes,
		FeeSchedule:         revenue.FeeScheduleVersion(m.FeeSchedule),
		TotalAmount:         m.TotalAmount,
		Items:               make([]revenue.OrderItem, 0, len(m.Items)),
	}
	y, mo, d := m.TransactionDate.Date()
	o.TransactionDate = time.Date(y, mo, d, 0, 0, 0, 0, time.UTC)
	for i := range m.Items {
		o.Items = append(o.Items, m.Items[i].ToDomain())
	}
	return o
}

// OrderModelFromDomain builds the model and its item models from a domain Order
func OrderModelFromDomain(o *revenue.Order) *OrderModel {
	details := datatypes.JSONMap{}
	for k, v := range o.OtherDetails {
		details[k] = v
	}
	m := &OrderModel{
		OrderNumber:         o.OrderNumber,
		Type:                o.Type,
		Category:            o.Category,
		PaymentStatus:       o.PaymentStatus,
		TransactionDate:     o.TransactionDate,
		CustomerID:          o.CustomerID,
		SalerID:             o.SalerID,
		CompanyAccountID:    o.CompanyAccountID,
		AuctionID:           o.AuctionID,
		LedgerTransactionID: o.LedgerTransactionID,
		CounterpartyName:    o.CounterpartyName,
		OtherDetails:        details,
		Notes:               o.Notes,
		FeeSchedule:         string(o.FeeSchedule),
		TotalAmount:         o.TotalAmount,
	}
	m.FromDomainTenantAggregateRoot(o.TenantAggregateRoot)
	m.Items = OrderItemModelsFromDomain(o)
	return m
}

// OrderItemModel is one vehicle line with its full fee breakdown
type OrderItemModel struct {
	BaseModel
	OrderID            uuid.UUID       `gorm:"type:uuid;not null;index"`
	CarID              uuid.UUID       `gorm:"type:uuid;not null;index"`
	CategoryID         uuid.UUID       `gorm:"type:uuid;not null;index"`
	Venue              string          `gorm:"type:varchar(50)"`
	YearType           string          `gorm:"type:varchar(10)"`
	Notes              string          `gorm:"type:text"`
	VehiclePrice       decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	VehiclePriceTax    decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	RecycleFee         decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	ListingFee         decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	ListingFeeTax      decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	SuccessfulBid      decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	SuccessfulBidTax   decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	CommissionFee      decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	CommissionFeeTax   decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	TransportFee       decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	TransportFeeTax    decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	RegistrationFee    decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	RegistrationFeeTax decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	CancelingFee       decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	AuctionFee         decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	ConsumptionTax     decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	AutomobileTax      decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	BidFee             decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	BidFeeTax          decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	Subtotal           decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
}

// TableName returns the table name for GORM
func (OrderItemModel) TableName() string {
	return "order_items"
}

// ToDomain converts the model to a domain OrderItem
func (m *OrderItemModel) ToDomain() revenue.OrderItem {
	return revenue.OrderItem{
		BaseEntity: m.BaseModel.ToDomain(),
		OrderID:    m.OrderID,
		CarID:      m.CarID,
		CategoryID: m.CategoryID,
		Venue:      m.Venue,
		YearType:   m.YearType,
		Notes:      m.Notes,
		Subtotal:   m.Subtotal,
		Fees: revenue.FeeBreakdown{
			VehiclePrice:       m.VehiclePrice,
			VehiclePriceTax:    m.VehiclePriceTax,
			RecycleFee:         m.RecycleFee,
			ListingFee:         m.ListingFee,
			ListingFeeTax:      m.ListingFeeTax,
			SuccessfulBid:      m.SuccessfulBid,
			SuccessfulBidTax:   m.SuccessfulBidTax,
			CommissionFee:      m.CommissionFee,
			CommissionFeeTax:   m.CommissionFeeTax,
			TransportFee:       m.TransportFee,
			TransportFeeTax:    m.TransportFeeTax,
			RegistrationFee:    m.RegistrationFee,
			RegistrationFeeTax: m.RegistrationFeeTax,
			CancelingFee:       m.CancelingFee,
			AuctionFee:         m.AuctionFee,
			ConsumptionTax:     m.ConsumptionTax,
			AutomobileTax:      m.AutomobileTax,
			BidFee:             m.BidFee,
			BidFeeTax:          m.BidFeeTax,
		},
	}
}

// OrderItemModelsFromDomain builds item models for every line of the order
func OrderItemModelsFromDomain(o *revenue.Order) []OrderItemModel {
	items := make([]OrderItemModel, 0, len(o.Items))
	for _, it := range o.Items {
		f := it.Fees
		m := OrderItemModel{
			OrderID:            o.ID,
			CarID:              it.CarID,
			CategoryID:         it.CategoryID,
			Venue:              it.Venue,
			YearType:           it.YearType,
			Notes:              it.Notes,
			VehiclePrice:       f.VehiclePrice,
			VehiclePriceTax:    f.VehiclePriceTax,
			RecycleFee:         f.RecycleFee,
			ListingFee:         f.ListingFee,
			ListingFeeTax:      f.ListingFeeTax,
			SuccessfulBid:      f.SuccessfulBid,
			SuccessfulBidTax:   f.SuccessfulBidTax,
			CommissionFee:      f.CommissionFee,
			CommissionFeeTax:   f.CommissionFeeTax,
			TransportFee:       f.TransportFee,
			TransportFeeTax:    f.TransportFeeTax,
			RegistrationFee:    f.RegistrationFee,
			RegistrationFeeTax: f.RegistrationFeeTax,
			CancelingFee:       f.CancelingFee,
			AuctionFee:         f.AuctionFee,
			ConsumptionTax:     f.ConsumptionTax,
			AutomobileTax:      f.AutomobileTax,
			BidFee:             f.BidFee,
			BidFeeTax:          f.BidFeeTax,
			Subtotal:           it.Subtotal,
		}
		m.FromDomainBaseEntity(it.BaseEntity)
		items = append(items, m)
	}
	return items
}

// OrderNumberSequenceModel is the per-day order number counter, shared by all tenants
type OrderNumberSequenceModel struct {
	Day       string `gorm:"type:varchar(8);primaryKey"`
	LastValue int64  `gorm:"not null;default:0"`
	UpdatedAt time.Time
}

// TableName returns the table name for GORM
func (OrderNumberSequenceModel) TableName() string {
	return "order_number_sequences"
}
