package revenue

import (
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/huzaifanasir-fabtechsol/backend/internal/domain/shared"
)

// FeeBreakdown is the full set of money fields one order line can carry.
// The first block is the current invoice layout; the second block only
// exists on lines written under the auction-gross schedule.
type FeeBreakdown struct {
	VehiclePrice       decimal.Decimal `json:"vehicle_price"`
	VehiclePriceTax    decimal.Decimal `json:"vehicle_price_tax"`
	RecycleFee         decimal.Decimal `json:"recycle_fee"`
	ListingFee         decimal.Decimal `json:"listing_fee"`
	ListingFeeTax      decimal.Decimal `json:"listing_fee_tax"`
	SuccessfulBid      decimal.Decimal `json:"successful_bid"`
	SuccessfulBidTax   decimal.Decimal `json:"successful_bid_tax"`
	CommissionFee      decimal.Decimal `json:"commission_fee"`
	CommissionFeeTax   decimal.Decimal `json:"commission_fee_tax"`
	TransportFee       decimal.Decimal `json:"transport_fee"`
	TransportFeeTax    decimal.Decimal `json:"transport_fee_tax"`
	RegistrationFee    decimal.Decimal `json:"registration_fee"`
	RegistrationFeeTax decimal.Decimal `json:"registration_fee_tax"`
	CancelingFee       decimal.Decimal `json:"canceling_fee"`

	AuctionFee     decimal.Decimal `json:"auction_fee"`
	ConsumptionTax decimal.Decimal `json:"consumption_tax"`
	AutomobileTax  decimal.Decimal `json:"automobile_tax"`
	BidFee         decimal.Decimal `json:"bid_fee"`
	BidFeeTax      decimal.Decimal `json:"bid_fee_tax"`
}

// named lists the fields with their wire names, for validation messages
func (f FeeBreakdown) named() []struct {
	name  string
	value decimal.Decimal
} {
	return []struct {
		name  string
		value decimal.Decimal
	}{
		{"vehicle_price", f.VehiclePrice}, {"vehicle_price_tax", f.VehiclePriceTax},
		{"recycle_fee", f.RecycleFee},
		{"listing_fee", f.ListingFee}, {"listing_fee_tax", f.ListingFeeTax},
		{"successful_bid", f.SuccessfulBid}, {"successful_bid_tax", f.SuccessfulBidTax},
		{"commission_fee", f.CommissionFee}, {"commission_fee_tax", f.CommissionFeeTax},
		{"transport_fee", f.TransportFee}, {"transport_fee_tax", f.TransportFeeTax},
		{"registration_fee", f.RegistrationFee}, {"registration_fee_tax", f.RegistrationFeeTax},
		{"canceling_fee", f.CancelingFee},
		{"auction_fee", f.AuctionFee}, {"consumption_tax", f.ConsumptionTax},
		{"automobile_tax", f.AutomobileTax},
		{"bid_fee", f.BidFee}, {"bid_fee_tax", f.BidFeeTax},
	}
}

// Validate rejects negative amounts; the schedule decides the sign
func (f FeeBreakdown) Validate() error {
	for _, field := range f.named() {
		if field.value.IsNegative() {
			return shared.NewValidationError("%s cannot be negative", field.name)
		}
	}
	return nil
}

// FeeScheduleVersion identifies a subtotal formula
type FeeScheduleVersion string

const (
	// FeeScheduleNetSettlement is the current formula for every order type
	FeeScheduleNetSettlement FeeScheduleVersion = "net-settlement"
	// FeeScheduleGrossSum adds every current fee field (intermediate revision)
	FeeScheduleGrossSum FeeScheduleVersion = "gross-sum"
	// FeeScheduleAuctionGross is the first revision built on auction/bid fees
	FeeScheduleAuctionGross FeeScheduleVersion = "auction-gross"
)

// FeeSchedule computes a line subtotal from its fee breakdown
type FeeSchedule interface {
	Version() FeeScheduleVersion
	Description() string
	Subtotal(fees FeeBreakdown) decimal.Decimal
}

// NetSettlementSchedule charges listing and canceling fees to the counterparty
// and nets out amounts already received or paid on their behalf.
type NetSettlementSchedule struct{}

// Version implements FeeSchedule
func (NetSettlementSchedule) Version() FeeScheduleVersion { return FeeScheduleNetSettlement }

// Description implements FeeSchedule
func (NetSettlementSchedule) Description() string {
	return "vehicle price and charged fees minus bid, commission, transport and registration"
}

// Subtotal implements FeeSchedule
func (NetSettlementSchedule) Subtotal(f FeeBreakdown) decimal.Decimal {
	credit := decimal.Sum(f.VehiclePrice, f.VehiclePriceTax, f.RecycleFee,
		f.ListingFee, f.ListingFeeTax, f.CancelingFee)
	debit := decimal.Sum(f.SuccessfulBid, f.SuccessfulBidTax,
		f.CommissionFee, f.CommissionFeeTax,
		f.TransportFee, f.TransportFeeTax,
		f.RegistrationFee, f.RegistrationFeeTax)
	return credit.Sub(debit)
}

// GrossSumSchedule adds every current fee field
type GrossSumSchedule struct{}

// Version implements FeeSchedule
func (GrossSumSchedule) Version() FeeScheduleVersion { return FeeScheduleGrossSum }

// Description implements FeeSchedule
func (GrossSumSchedule) Description() string { return "sum of all fee fields" }

// Subtotal implements FeeSchedule
func (GrossSumSchedule) Subtotal(f FeeBreakdown) decimal.Decimal {
	return decimal.Sum(f.VehiclePrice, f.VehiclePriceTax, f.RecycleFee,
		f.ListingFee, f.ListingFeeTax, f.SuccessfulBid, f.SuccessfulBidTax,
		f.CommissionFee, f.CommissionFeeTax, f.TransportFee, f.TransportFeeTax,
		f.RegistrationFee, f.RegistrationFeeTax, f.CancelingFee)
}

// AuctionGrossSchedule is the first formula: auction and bid fees on top of price and taxes
type AuctionGrossSchedule struct{}

// Version implements FeeSchedule
func (AuctionGrossSchedule) Version() FeeScheduleVersion { return FeeScheduleAuctionGross }

// Description implements FeeSchedule
func (AuctionGrossSchedule) Description() string {
	return "auction fee, price, consumption tax, recycling fee, automobile tax and bid fees"
}

// Subtotal implements FeeSchedule
func (AuctionGrossSchedule) Subtotal(f FeeBreakdown) decimal.Decimal {
	return decimal.Sum(f.AuctionFee, f.VehiclePrice, f.ConsumptionTax, f.RecycleFee,
		f.AutomobileTax, f.BidFee, f.BidFeeTax)
}

// FeeScheduleRegistry maps versions to schedules and order types to their default
type FeeScheduleRegistry struct {
	mu        sync.RWMutex
	schedules map[FeeScheduleVersion]FeeSchedule
	defaults  map[OrderType]FeeScheduleVersion
	fallback  FeeScheduleVersion
}

// NewFeeScheduleRegistry returns a registry with all known schedules and
// net-settlement as the default for every order type
func NewFeeScheduleRegistry() *FeeScheduleRegistry {
	r := &FeeScheduleRegistry{
		schedules: make(map[FeeScheduleVersion]FeeSchedule),
		defaults:  make(map[OrderType]FeeScheduleVersion),
		fallback:  FeeScheduleNetSettlement,
	}
	for _, s := range []FeeSchedule{NetSettlementSchedule{}, GrossSumSchedule{}, AuctionGrossSchedule{}} {
		r.schedules[s.Version()] = s
	}
	return r
}

// Register adds a schedule; registering an existing version fails
func (r *FeeScheduleRegistry) Register(s FeeSchedule) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.schedules[s.Version()]; exists {
		return fmt.Errorf("%w: fee schedule '%s' already registered", shared.ErrAlreadyExists, s.Version())
	}
	r.schedules[s.Version()] = s
	return nil
}

// SetDefault makes version the schedule used for new orders of type t
func (r *FeeScheduleRegistry) SetDefault(t OrderType, version FeeScheduleVersion) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.schedules[version]; !ok {
		return fmt.Errorf("%w: fee schedule '%s' not found", shared.ErrNotFound, version)
	}
	r.defaults[t] = version
	return nil
}

// Resolve returns the schedule for an explicit version, or the order type's default
func (r *FeeScheduleRegistry) Resolve(t OrderType, version FeeScheduleVersion) (FeeSchedule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if version == "" {
		version = r.defaults[t]
		if version == "" {
			version = r.fallback
		}
	}
	s, ok := r.schedules[version]
	if !ok {
		return nil, shared.NewValidationError("unknown fee schedule '%s'", version)
	}
	return s, nil
}
