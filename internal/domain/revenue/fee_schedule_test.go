package revenue

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func TestNetSettlementSchedule_Subtotal(t *testing.T) {
	tests := []struct {
		name string
		fees FeeBreakdown
		want decimal.Decimal
	}{
		{
			name: "listing fees offset by successful bid",
			fees: FeeBreakdown{VehiclePrice: d(500000), ListingFee: d(10000), ListingFeeTax: d(1000), SuccessfulBid: d(480000)},
			want: d(31000),
		},
		{
			name: "every field",
			fees: FeeBreakdown{
				VehiclePrice: d(1000), VehiclePriceTax: d(100), RecycleFee: d(10),
				ListingFee: d(20), ListingFeeTax: d(2), CancelingFee: d(5),
				SuccessfulBid: d(300), SuccessfulBidTax: d(30),
				CommissionFee: d(40), CommissionFeeTax: d(4),
				TransportFee: d(50), TransportFeeTax: d(5),
				RegistrationFee: d(60), RegistrationFeeTax: d(6),
			},
			want: d(1137 - 495),
		},
		{
			name: "net negative purchase",
			fees: FeeBreakdown{VehiclePrice: d(100), TransportFee: d(250)},
			want: d(-150),
		},
		{
			name: "legacy fields ignored",
			fees: FeeBreakdown{VehiclePrice: d(100), AuctionFee: d(999), BidFee: d(999)},
			want: d(100),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NetSettlementSchedule{}.Subtotal(tt.fees)
			assert.True(t, tt.want.Equal(got), "want %s got %s", tt.want, got)
		})
	}
}

func TestLegacySchedules_Subtotal(t *testing.T) {
	fees := FeeBreakdown{
		VehiclePrice: d(1000), RecycleFee: d(10), SuccessfulBid: d(300),
		AuctionFee: d(50), ConsumptionTax: d(100), AutomobileTax: d(20), BidFee: d(7), BidFeeTax: d(1),
	}
	assert.True(t, d(1310).Equal(GrossSumSchedule{}.Subtotal(fees)))
	assert.True(t, d(1188).Equal(AuctionGrossSchedule{}.Subtotal(fees)))
}

func TestFeeScheduleRegistry_Resolve(t *testing.T) {
	r := NewFeeScheduleRegistry()

	for _, ot := range []OrderType{OrderTypeSale, OrderTypePurchase, OrderTypeAuction, OrderTypeNagare} {
		s, err := r.Resolve(ot, "")
		require.NoError(t, err)
		assert.Equal(t, FeeScheduleNetSettlement, s.Version())
	}

	s, err := r.Resolve(OrderTypeSale, FeeScheduleAuctionGross)
	require.NoError(t, err)
	assert.Equal(t, FeeScheduleAuctionGross, s.Version())

	require.NoError(t, r.SetDefault(OrderTypeAuction, FeeScheduleGrossSum))
	s, err = r.Resolve(OrderTypeAuction, "")
	require.NoError(t, err)
	assert.Equal(t, FeeScheduleGrossSum, s.Version())

	_, err = r.Resolve(OrderTypeSale, "v9")
	assert.Error(t, err)
	assert.Error(t, r.SetDefault(OrderTypeSale, "v9"))
	assert.Error(t, r.Register(NetSettlementSchedule{}))

	for _, v := range []FeeScheduleVersion{FeeScheduleNetSettlement, FeeScheduleGrossSum, FeeScheduleAuctionGross} {
		s, err := r.Resolve(OrderTypeSale, v)
		require.NoError(t, err)
		assert.NotEmpty(t, s.Description(), v)
	}
}

func TestFeeBreakdown_Validate(t *testing.T) {
	assert.NoError(t, FeeBreakdown{VehiclePrice: d(1)}.Validate())
	err := FeeBreakdown{TransportFeeTax: d(-1)}.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "transport_fee_tax")
}
