package revenue

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/huzaifanasir-fabtechsol/backend/internal/domain/ledger"
	"github.com/huzaifanasir-fabtechsol/backend/internal/domain/revenue"
	"github.com/huzaifanasir-fabtechsol/backend/internal/domain/shared"
	"github.com/huzaifanasir-fabtechsol/backend/internal/infrastructure/persistence"
	"github.com/huzaifanasir-fabtechsol/backend/internal/infrastructure/persistence/models"
	"github.com/huzaifanasir-fabtechsol/backend/internal/infrastructure/persistence/persistencetest"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []shared.DomainEvent
}

func (p *recordingPublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, events...)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.EventType()
	}
	return out
}

type fixture struct {
	db        *gorm.DB
	store     *persistence.GormStore
	svc       *OrderService
	reports   *ReportService
	publisher *recordingPublisher
	tenantID  uuid.UUID
	userID    uuid.UUID
}

var fixedNow = time.Date(2024, 3, 15, 23, 30, 0, 0, time.UTC)

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := persistencetest.NewDB(t)
	store := persistence.NewGormStore(db)
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)

	svc := NewOrderService(store, NewEntityResolver(zap.NewNop()), revenue.NewFeeScheduleRegistry(), OrderServiceConfig{
		Location: tokyo,
		Issuer:   revenue.IssuingCompanyProfile{Name: "Fabtech Motors", Email: "office@example.com"},
	}, zap.NewNop())
	svc.SetClock(func() time.Time { return fixedNow })
	publisher := &recordingPublisher{}
	svc.SetEventPublisher(publisher)

	reports := NewReportService(store, tokyo, zap.NewNop())
	reports.SetClock(func() time.Time { return fixedNow })

	return &fixture{
		db:        db,
		store:     store,
		svc:       svc,
		reports:   reports,
		publisher: publisher,
		tenantID:  uuid.New(),
		userID:    uuid.New(),
	}
}

func d(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func date(t *testing.T, s string) shared.Date {
	t.Helper()
	v, err := shared.ParseDate(s)
	require.NoError(t, err)
	return v
}

func saleRequest(t *testing.T, items ...OrderItemInput) SaveOrderRequest {
	return SaveOrderRequest{
		TransactionType: revenue.OrderTypeSale,
		TransactionDate: date(t, "2024-03-15"),
		CustomerName:    "Tanaka Trading",
		Phone:           "03-1234-5678",
		Items:           items,
	}
}

func item(category, chassis string, fees revenue.FeeBreakdown) OrderItemInput {
	return OrderItemInput{
		Category:      revenue.CategoryByName(category),
		Name:          "Prius",
		ChassisNumber: chassis,
		Year:          2019,
		FeeBreakdown:  fees,
	}
}

func count(t *testing.T, db *gorm.DB, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(model).Count(&n).Error)
	return n
}

func TestOrderService_CreateWithItems_NetSettlementSubtotal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	order, err := f.svc.CreateWithItems(ctx, f.tenantID, f.userID, saleRequest(t,
		item("Toyota", "zvw30-1234567", revenue.FeeBreakdown{
			VehiclePrice:     d(500000),
			ListingFee:       d(10000),
			ListingFeeTax:    d(1000),
			SuccessfulBid:    d(480000),
			SuccessfulBidTax: d(0),
		}),
	))
	require.NoError(t, err)

	assert.Equal(t, "ORD-20240316-001", order.OrderNumber, "day is taken in the business timezone")
	require.Len(t, order.Items, 1)
	assert.True(t, order.Items[0].Subtotal.Equal(d(31000)), "got %s", order.Items[0].Subtotal)
	assert.True(t, order.TotalAmount.Equal(d(31000)), "got %s", order.TotalAmount)
	assert.Equal(t, revenue.FeeScheduleNetSettlement, order.FeeSchedule)
	assert.Equal(t, "ZVW30-1234567", order.Items[0].ChassisNumber)
	assert.Equal(t, "Toyota", order.Items[0].CategoryName)
	assert.Equal(t, "Tanaka Trading", order.CustomerName)
	require.NotNil(t, order.CustomerID)
	assert.Equal(t, "03-1234-5678", order.OtherDetails["phone"])
	assert.Contains(t, f.publisher.types(), revenue.EventTypeOrderCreated)
}

func TestOrderService_CreateWithItems_SequentialNumbers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.svc.CreateWithItems(ctx, f.tenantID, f.userID, saleRequest(t, item("Toyota", "A-1", revenue.FeeBreakdown{VehiclePrice: d(10)})))
	require.NoError(t, err)
	second, err := f.svc.CreateWithItems(ctx, uuid.New(), f.userID, saleRequest(t, item("Toyota", "A-2", revenue.FeeBreakdown{VehiclePrice: d(10)})))
	require.NoError(t, err)

	assert.Equal(t, "ORD-20240316-001", first.OrderNumber)
	assert.Equal(t, "ORD-20240316-002", second.OrderNumber, "numbers are shared across tenants")
}

func TestOrderService_CreateWithItems_CounterBehindStoredOrders(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.svc.CreateWithItems(ctx, f.tenantID, f.userID, saleRequest(t, item("Toyota", "B-1", revenue.FeeBreakdown{VehiclePrice: d(10)})))
	require.NoError(t, err)
	require.Equal(t, "ORD-20240316-001", first.OrderNumber)

	require.NoError(t, f.db.Where("1 = 1").Delete(&models.OrderNumberSequenceModel{}).Error)

	second, err := f.svc.CreateWithItems(ctx, f.tenantID, f.userID, saleRequest(t, item("Toyota", "B-2", revenue.FeeBreakdown{VehiclePrice: d(10)})))
	require.NoError(t, err)
	assert.Equal(t, "ORD-20240316-002", second.OrderNumber)
}

func TestOrderService_CreateWithItems_ConcurrentNumbersAreDistinct(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	const n = 8
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		numbers = make(map[string]bool, n)
		errs    []error
	)
	requests := make([]SaveOrderRequest, n)
	for i := range requests {
		requests[i] = saleRequest(t, item("Toyota", uuid.NewString(), revenue.FeeBreakdown{VehiclePrice: d(int64(i + 1))}))
	}
	for _, req := range requests {
		wg.Add(1)
		go func(req SaveOrderRequest) {
			defer wg.Done()
			order, err := f.svc.CreateWithItems(ctx, f.tenantID, f.userID, req)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			numbers[order.OrderNumber] = true
		}(req)
	}
	wg.Wait()

	require.Empty(t, errs)
	assert.Len(t, numbers, n)
	for i := 1; i <= n; i++ {
		assert.True(t, numbers[revenue.FormatOrderNumber(time.Date(2024, 3, 16, 0, 0, 0, 0, time.UTC), int64(i))])
	}
}

func TestOrderService_CreateWithItems_ChassisTakenWritesNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateWithItems(ctx, f.tenantID, f.userID, saleRequest(t, item("Toyota", "TAKEN-1", revenue.FeeBreakdown{VehiclePrice: d(100)})))
	require.NoError(t, err)
	cars := count(t, f.db, &models.CarModel{})
	categories := count(t, f.db, &models.CarCategoryModel{})
	counterparties := count(t, f.db, &models.CounterpartyModel{})

	req := saleRequest(t,
		item("Nissan", "FREE-1", revenue.FeeBreakdown{VehiclePrice: d(100)}),
		item("Nissan", "taken-1", revenue.FeeBreakdown{VehiclePrice: d(100)}),
		item("Nissan", "FREE-1", revenue.FeeBreakdown{VehiclePrice: d(100)}),
	)
	req.CustomerName = "Someone New"
	_, err = f.svc.CreateWithItems(ctx, f.tenantID, f.userID, req)
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrValidation)

	de, ok := shared.AsDomainError(err)
	require.True(t, ok)
	require.Len(t, de.Details, 2, "every chassis problem is reported at once")
	assert.Equal(t, 3, de.Details[0].Row)
	assert.Equal(t, "TAKEN-1", de.Details[1].Value)

	assert.Equal(t, int64(1), count(t, f.db, &models.OrderModel{}))
	assert.Equal(t, cars, count(t, f.db, &models.CarModel{}))
	assert.Equal(t, categories, count(t, f.db, &models.CarCategoryModel{}))
	assert.Equal(t, counterparties, count(t, f.db, &models.CounterpartyModel{}))
}

func TestOrderService_CreateWithItems_RejectsBadReferences(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	missing := uuid.New()

	tests := []struct {
		name   string
		mutate func(*SaveOrderRequest)
	}{
		{"unknown category id", func(r *SaveOrderRequest) { r.Items[0].Category = revenue.CategoryByID(missing) }},
		{"unknown customer id", func(r *SaveOrderRequest) { r.CustomerID = &missing }},
		{"missing customer", func(r *SaveOrderRequest) { r.CustomerName = "" }},
		{"unknown company account", func(r *SaveOrderRequest) { r.CompanyAccountID = &missing }},
		{"unknown auction", func(r *SaveOrderRequest) { r.AuctionID = &missing }},
		{"unknown payment transaction", func(r *SaveOrderRequest) { r.LedgerTransactionID = &missing }},
		{"unknown fee schedule", func(r *SaveOrderRequest) { r.FeeSchedule = "flat" }},
		{"negative fee", func(r *SaveOrderRequest) { r.Items[0].CommissionFee = d(-1) }},
	}
	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := saleRequest(t, item("Toyota", "REF-"+string(rune('A'+i)), revenue.FeeBreakdown{VehiclePrice: d(100)}))
			tt.mutate(&req)
			_, err := f.svc.CreateWithItems(ctx, f.tenantID, f.userID, req)
			assert.ErrorIs(t, err, shared.ErrValidation)
		})
	}
	assert.Equal(t, int64(0), count(t, f.db, &models.OrderModel{}))
	assert.Equal(t, int64(0), count(t, f.db, &models.CarModel{}))
}

func TestOrderService_CreateWithItems_PurchaseNeedsSaler(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	customer, err := revenue.NewCounterparty(f.tenantID, revenue.RoleCustomer, "Buyer Co")
	require.NoError(t, err)
	require.NoError(t, f.store.Counterparties().Create(ctx, customer))

	req := saleRequest(t, item("Toyota", "P-1", revenue.FeeBreakdown{VehiclePrice: d(100)}))
	req.TransactionType = revenue.OrderTypePurchase
	req.SalerID = &customer.ID
	_, err = f.svc.CreateWithItems(ctx, f.tenantID, f.userID, req)
	assert.ErrorIs(t, err, shared.ErrValidation, "a customer cannot be the saler")

	req.SalerID = nil
	req.SellerName = "Auction Supplier"
	order, err := f.svc.CreateWithItems(ctx, f.tenantID, f.userID, req)
	require.NoError(t, err)
	require.NotNil(t, order.SalerID)
	assert.Nil(t, order.CustomerID)
	assert.Equal(t, "Auction Supplier", order.CustomerName)
}

func TestOrderService_UpdateWithItems_ReplacesAndReusesCars(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.svc.CreateWithItems(ctx, f.tenantID, f.userID, saleRequest(t,
		item("Toyota", "KEEP-1", revenue.FeeBreakdown{VehiclePrice: d(100)}),
		item("Toyota", "DROP-1", revenue.FeeBreakdown{VehiclePrice: d(200)}),
	))
	require.NoError(t, err)
	keptCarID := created.Items[0].CarID

	req := saleRequest(t,
		item("Honda", "keep-1", revenue.FeeBreakdown{VehiclePrice: d(1000), TransportFee: d(50)}),
		item("Honda", "NEW-1", revenue.FeeBreakdown{VehiclePrice: d(300)}),
	)
	req.Items[0].Name = "Fit"
	req.Version = created.Version
	updated, err := f.svc.UpdateWithItems(ctx, f.tenantID, created.ID, req)
	require.NoError(t, err)

	assert.Equal(t, created.OrderNumber, updated.OrderNumber)
	require.Len(t, updated.Items, 2)
	assert.True(t, updated.TotalAmount.Equal(d(1250)), "got %s", updated.TotalAmount)
	assert.Equal(t, keptCarID, updated.Items[0].CarID)
	assert.Equal(t, "Fit", updated.Items[0].CarName)
	assert.Equal(t, "Honda", updated.Items[0].CategoryName)

	assert.Equal(t, int64(2), count(t, f.db, &models.OrderItemModel{}))
	assert.Equal(t, int64(2), count(t, f.db, &models.CarModel{}), "the dropped car is removed")
	assert.Contains(t, f.publisher.types(), revenue.EventTypeOrderItemsReplaced)

	req.Version = created.Version
	_, err = f.svc.UpdateWithItems(ctx, f.tenantID, created.ID, req)
	assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
}

func TestOrderService_UpdateWithItems_CannotTakeAnotherOrdersCar(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateWithItems(ctx, f.tenantID, f.userID, saleRequest(t, item("Toyota", "OTHER-1", revenue.FeeBreakdown{VehiclePrice: d(1)})))
	require.NoError(t, err)
	mine, err := f.svc.CreateWithItems(ctx, f.tenantID, f.userID, saleRequest(t, item("Toyota", "MINE-1", revenue.FeeBreakdown{VehiclePrice: d(1)})))
	require.NoError(t, err)

	_, err = f.svc.UpdateWithItems(ctx, f.tenantID, mine.ID, saleRequest(t, item("Toyota", "OTHER-1", revenue.FeeBreakdown{VehiclePrice: d(5)})))
	assert.ErrorIs(t, err, shared.ErrValidation)

	stored, err := f.svc.GetByID(ctx, f.tenantID, mine.ID)
	require.NoError(t, err)
	assert.Equal(t, "MINE-1", stored.Items[0].ChassisNumber)
	assert.True(t, stored.TotalAmount.Equal(d(1)))
}

func TestOrderService_TenantIsolation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	order, err := f.svc.CreateWithItems(ctx, f.tenantID, f.userID, saleRequest(t, item("Toyota", "ISO-1", revenue.FeeBreakdown{VehiclePrice: d(1)})))
	require.NoError(t, err)

	other := uuid.New()
	_, err = f.svc.GetByID(ctx, other, order.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
	assert.ErrorIs(t, f.svc.Delete(ctx, other, order.ID), shared.ErrNotFound)

	list, total, err := f.svc.List(ctx, other, OrderListFilter{})
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.Zero(t, total)
}

func TestOrderService_PaymentStatusAndDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	account, err := ledger.NewBankAccount(f.tenantID, ledger.AccountDetails{BankName: "MUFG"})
	require.NoError(t, err)
	require.NoError(t, f.store.BankAccounts().Save(ctx, account))
	payment, err := ledger.NewLedgerTransaction(f.tenantID, ledger.PostingInput{
		BankAccountID: account.ID,
		Date:          time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
		Deposit:       d(1),
	})
	require.NoError(t, err)
	payment.Sequence = account.ReserveSequences(1)
	require.NoError(t, f.store.LedgerTransactions().CreateBatch(ctx, []*ledger.LedgerTransaction{payment}))

	order, err := f.svc.CreateWithItems(ctx, f.tenantID, f.userID, saleRequest(t, item("Toyota", "PAY-1", revenue.FeeBreakdown{VehiclePrice: d(1)})))
	require.NoError(t, err)

	updated, err := f.svc.UpdatePaymentStatus(ctx, f.tenantID, order.ID, UpdatePaymentStatusRequest{
		PaymentStatus:       revenue.PaymentStatusCompleted,
		LedgerTransactionID: &payment.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, revenue.PaymentStatusCompleted, updated.PaymentStatus)
	require.NotNil(t, updated.LedgerTransactionID)
	assert.Equal(t, payment.ID, *updated.LedgerTransactionID)
	assert.Contains(t, f.publisher.types(), revenue.EventTypeOrderPaymentStatusChanged)

	_, err = f.svc.UpdatePaymentStatus(ctx, f.tenantID, order.ID, UpdatePaymentStatusRequest{PaymentStatus: "refunded"})
	assert.ErrorIs(t, err, shared.ErrValidation)

	require.NoError(t, f.svc.Delete(ctx, f.tenantID, order.ID))
	assert.Equal(t, int64(0), count(t, f.db, &models.OrderModel{}))
	assert.Equal(t, int64(0), count(t, f.db, &models.OrderItemModel{}))
	assert.Equal(t, int64(0), count(t, f.db, &models.CarModel{}))
}

func TestOrderService_List(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for i, chassis := range []string{"L-1", "L-2", "L-3"} {
		req := saleRequest(t, item("Toyota", chassis, revenue.FeeBreakdown{VehiclePrice: d(10)}))
		req.TransactionDate = date(t, []string{"2024-01-10", "2024-02-10", "2024-03-10"}[i])
		if i == 2 {
			req.TransactionType = revenue.OrderTypeAuction
		}
		_, err := f.svc.CreateWithItems(ctx, f.tenantID, f.userID, req)
		require.NoError(t, err)
	}

	list, total, err := f.svc.List(ctx, f.tenantID, OrderListFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, list, 3)
	assert.Equal(t, "2024-03-10", list[0].TransactionDate.String(), "newest first")
	assert.Nil(t, list[0].Items)

	list, total, err = f.svc.List(ctx, f.tenantID, OrderListFilter{TransactionType: "auction"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Len(t, list, 1)
}
