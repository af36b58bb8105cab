package revenue

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/huzaifanasir-fabtechsol/backend/internal/domain/revenue"
	"github.com/huzaifanasir-fabtechsol/backend/internal/domain/shared"
)

// InvoiceLayout selects the column set of an invoice
type InvoiceLayout string

const (
	InvoiceLayoutStandard InvoiceLayout = "standard"
	InvoiceLayoutAuction  InvoiceLayout = "auction"
)

// InvoiceAmount is one labelled money cell
type InvoiceAmount struct {
	Key    string          `json:"key"`
	Amount decimal.Decimal `json:"amount"`
}

// InvoiceLine is one vehicle row of an invoice
type InvoiceLine struct {
	No            int             `json:"no"`
	CarName       string          `json:"car_name"`
	ChassisNumber string          `json:"chassis_number"`
	Year          int             `json:"year,omitempty"`
	CategoryName  string          `json:"category_name"`
	Venue         string          `json:"venue,omitempty"`
	YearType      string          `json:"year_type,omitempty"`
	Columns       []InvoiceAmount `json:"columns"`
	Subtotal      decimal.Decimal `json:"subtotal"`
}

// InvoiceParty is the counterpart block
type InvoiceParty struct {
	Role    revenue.CounterpartyRole `json:"role"`
	Name    string                   `json:"name"`
	Phone   string                   `json:"phone,omitempty"`
	Address string                   `json:"address,omitempty"`
	Email   string                   `json:"email,omitempty"`
}

// InvoicePayment is where the counterpart pays or is paid
type InvoicePayment struct {
	Method        string `json:"method,omitempty"`
	BankName      string `json:"bank_name,omitempty"`
	BranchCode    string `json:"branch_code,omitempty"`
	AccountNumber string `json:"account_number,omitempty"`
	AccountHolder string `json:"account_holder,omitempty"`
	SwiftCode     string `json:"swift_code,omitempty"`
}

// InvoiceDocument is the structured data a renderer turns into an invoice.
// Nothing here is formatted; amounts stay decimal.
type InvoiceDocument struct {
	Issuer          revenue.IssuingCompanyProfile `json:"issuer"`
	OrderNumber     string                        `json:"order_number"`
	TransactionType revenue.OrderType             `json:"transaction_type"`
	TransactionDate shared.Date                   `json:"transaction_date"`
	PaymentStatus   revenue.PaymentStatus         `json:"payment_status"`
	Layout          InvoiceLayout                 `json:"layout"`
	ColumnKeys      []string                      `json:"column_keys"`
	Counterpart     InvoiceParty                  `json:"counterpart"`
	AuctionHouse    string                        `json:"auction_house,omitempty"`
	Payment         InvoicePayment                `json:"payment"`
	Lines           []InvoiceLine                 `json:"lines"`
	Total           decimal.Decimal               `json:"total"`
	Notes           string                        `json:"notes,omitempty"`
}

// invoiceColumns returns the money columns for a layout and fee schedule.
// Lines priced under auction-gross keep the legacy auction column set.
func invoiceColumns(layout InvoiceLayout, version revenue.FeeScheduleVersion) []string {
	if layout == InvoiceLayoutStandard {
		return []string{"vehicle_price", "vehicle_price_tax"}
	}
	if version == revenue.FeeScheduleAuctionGross {
		return []string{"auction_fee", "vehicle_price", "consumption_tax", "recycle_fee",
			"automobile_tax", "bid_fee", "bid_fee_tax"}
	}
	return []string{"vehicle_price", "vehicle_price_tax", "recycle_fee",
		"listing_fee", "listing_fee_tax", "successful_bid", "successful_bid_tax",
		"commission_fee", "commission_fee_tax", "transport_fee", "transport_fee_tax",
		"registration_fee", "registration_fee_tax", "canceling_fee"}
}

func feeAmount(f revenue.FeeBreakdown, key string) decimal.Decimal {
	switch key {
	case "vehicle_price":
		return f.VehiclePrice
	case "vehicle_price_tax":
		return f.VehiclePriceTax
	case "recycle_fee":
		return f.RecycleFee
	case "listing_fee":
		return f.ListingFee
	case "listing_fee_tax":
		return f.ListingFeeTax
	case "successful_bid":
		return f.SuccessfulBid
	case "successful_bid_tax":
		return f.SuccessfulBidTax
	case "commission_fee":
		return f.CommissionFee
	case "commission_fee_tax":
		return f.CommissionFeeTax
	case "transport_fee":
		return f.TransportFee
	case "transport_fee_tax":
		return f.TransportFeeTax
	case "registration_fee":
		return f.RegistrationFee
	case "registration_fee_tax":
		return f.RegistrationFeeTax
	case "canceling_fee":
		return f.CancelingFee
	case "auction_fee":
		return f.AuctionFee
	case "consumption_tax":
		return f.ConsumptionTax
	case "automobile_tax":
		return f.AutomobileTax
	case "bid_fee":
		return f.BidFee
	case "bid_fee_tax":
		return f.BidFeeTax
	}
	return decimal.Zero
}

// Invoice assembles the invoice data of an order. Linked entities win over
// the free-text fields kept in other_details.
func (s *OrderService) Invoice(ctx context.Context, tenantID, id uuid.UUID) (*InvoiceDocument, error) {
	order, err := s.store.Orders().FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	cars, categories, err := s.loadLineEntities(ctx, tenantID, order)
	if err != nil {
		return nil, err
	}

	layout := InvoiceLayoutStandard
	if order.IsAuctionLayout() {
		layout = InvoiceLayoutAuction
	}
	doc := &InvoiceDocument{
		Issuer:          s.issuer,
		OrderNumber:     order.OrderNumber,
		TransactionType: order.Type,
		TransactionDate: shared.NewDate(order.TransactionDate),
		PaymentStatus:   order.PaymentStatus,
		Layout:          layout,
		ColumnKeys:      invoiceColumns(layout, order.FeeSchedule),
		Total:           order.TotalAmount,
		Notes:           order.Notes,
		Lines:           make([]InvoiceLine, 0, len(order.Items)),
	}

	if err := s.fillCounterpart(ctx, doc, order); err != nil {
		return nil, err
	}
	if err := s.fillPayment(ctx, doc, order); err != nil {
		return nil, err
	}

	for i, item := range order.Items {
		line := InvoiceLine{
			No:       i + 1,
			Venue:    item.Venue,
			YearType: item.YearType,
			Subtotal: item.Subtotal,
			Columns:  make([]InvoiceAmount, 0, len(doc.ColumnKeys)),
		}
		if car, ok := cars[item.CarID]; ok {
			line.CarName = car.Name
			line.ChassisNumber = car.ChassisNumber
			line.Year = car.Year
		}
		if category, ok := categories[item.CategoryID]; ok {
			line.CategoryName = category.Name
		}
		for _, key := range doc.ColumnKeys {
			line.Columns = append(line.Columns, InvoiceAmount{Key: key, Amount: feeAmount(item.Fees, key)})
		}
		doc.Lines = append(doc.Lines, line)
	}
	return doc, nil
}

func (s *OrderService) fillCounterpart(ctx context.Context, doc *InvoiceDocument, order *revenue.Order) error {
	role := order.Type.RequiredRole()
	nameKey := detailCustomerName
	if role == revenue.RoleSaler {
		nameKey = detailSellerName
	}
	doc.Counterpart = InvoiceParty{
		Role:    role,
		Name:    firstNonEmpty(order.CounterpartyName, detailString(order.OtherDetails, nameKey)),
		Phone:   detailString(order.OtherDetails, detailPhone),
		Address: detailString(order.OtherDetails, detailAddress),
	}
	id := order.CustomerID
	if role == revenue.RoleSaler {
		id = order.SalerID
	}
	if id != nil {
		c, err := s.store.Counterparties().FindByIDForTenant(ctx, order.TenantID, *id)
		if err != nil && !errors.Is(err, shared.ErrNotFound) {
			return err
		}
		if c != nil {
			doc.Counterpart.Name = firstNonEmpty(c.Name, doc.Counterpart.Name)
			doc.Counterpart.Phone = firstNonEmpty(c.Phone, doc.Counterpart.Phone)
			doc.Counterpart.Address = firstNonEmpty(c.Address, doc.Counterpart.Address)
			doc.Counterpart.Email = c.Email
		}
	}

	doc.AuctionHouse = detailString(order.OtherDetails, detailAuctionHouse)
	if order.AuctionID != nil {
		a, err := s.store.Auctions().FindByIDForTenant(ctx, order.TenantID, *order.AuctionID)
		if err != nil && !errors.Is(err, shared.ErrNotFound) {
			return err
		}
		if a != nil {
			doc.AuctionHouse = a.Name
		}
	}
	return nil
}

func (s *OrderService) fillPayment(ctx context.Context, doc *InvoiceDocument, order *revenue.Order) error {
	doc.Payment = InvoicePayment{
		Method:        detailString(order.OtherDetails, detailPaymentMethod),
		AccountNumber: detailString(order.OtherDetails, detailAccountNumber),
	}
	if order.CompanyAccountID == nil {
		return nil
	}
	account, err := s.store.BankAccounts().FindByIDForTenant(ctx, order.TenantID, *order.CompanyAccountID)
	if errors.Is(err, shared.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	doc.Payment.BankName = account.BankName
	doc.Payment.BranchCode = account.BranchCode
	doc.Payment.AccountNumber = account.AccountNumber
	doc.Payment.AccountHolder = account.AccountHolder
	doc.Payment.SwiftCode = account.SwiftCode
	return nil
}

func detailString(details map[string]any, key string) string {
	v, ok := details[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
