package revenue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/huzaifanasir-fabtechsol/backend/internal/application/scope"
	"github.com/huzaifanasir-fabtechsol/backend/internal/domain/revenue"
	"github.com/huzaifanasir-fabtechsol/backend/internal/domain/shared"
	"github.com/huzaifanasir-fabtechsol/backend/internal/infrastructure/logger"
	"github.com/huzaifanasir-fabtechsol/backend/internal/infrastructure/telemetry"
)

// errOrderNumberTaken marks a collision on the order number unique index
var errOrderNumberTaken = errors.New("order number already taken")

// OrderService handles revenue orders and their vehicle lines
type OrderService struct {
	store          scope.Store
	resolver       *EntityResolver
	schedules      *revenue.FeeScheduleRegistry
	issuer         revenue.IssuingCompanyProfile
	location       *time.Location
	now            func() time.Time
	logger         *zap.Logger
	eventPublisher shared.EventPublisher
}

// OrderServiceConfig carries the business settings of the order service
type OrderServiceConfig struct {
	// Location is the business timezone order numbers and periods use
	Location *time.Location
	Issuer   revenue.IssuingCompanyProfile
}

// NewOrderService creates a new OrderService
func NewOrderService(
	store scope.Store,
	resolver *EntityResolver,
	schedules *revenue.FeeScheduleRegistry,
	cfg OrderServiceConfig,
	logger *zap.Logger,
) *OrderService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &OrderService{
		store:     store,
		resolver:  resolver,
		schedules: schedules,
		issuer:    cfg.Issuer,
		location:  cfg.Location,
		now:       time.Now,
		logger:    logger,
	}
}

// SetEventPublisher sets the event publisher for cross-context integration
func (s *OrderService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetClock replaces the time source
func (s *OrderService) SetClock(now func() time.Time) {
	s.now = now
}

func (s *OrderService) publishEvents(ctx context.Context, order *revenue.Order) {
	if s.eventPublisher == nil {
		return
	}
	events := order.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	if err := s.eventPublisher.Publish(ctx, events...); err != nil {
		logger.For(ctx, s.logger).Warn("Failed to publish order events",
			zap.String("order_id", order.ID.String()), zap.Error(err))
	}
	order.ClearDomainEvents()
}

// CreateWithItems validates every reference, creates the cars and the order
// with priced items, all in one transaction. A collision on the order number
// retries the whole create once.
func (s *OrderService) CreateWithItems(ctx context.Context, tenantID, userID uuid.UUID, req SaveOrderRequest) (_ *OrderResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "order", "create",
		attribute.String("order.type", string(req.TransactionType)),
		attribute.Int("order.items", len(req.Items)),
	)
	defer func() { telemetry.EndSpan(span, err) }()

	schedule, err := s.schedules.Resolve(req.TransactionType, req.FeeSchedule)
	if err != nil {
		return nil, err
	}

	var order *revenue.Order
	for attempt := 1; ; attempt++ {
		order, err = s.createOnce(ctx, tenantID, userID, schedule, req)
		if !errors.Is(err, errOrderNumberTaken) {
			break
		}
		if attempt == 2 {
			return nil, shared.NewDomainError(shared.CodeConflict, "could not allocate a unique order number, retry the request")
		}
		logger.For(ctx, s.logger).Warn("Order number collision, retrying create")
	}
	if err != nil {
		return nil, err
	}

	logger.For(ctx, s.logger).Info("Order created",
		zap.String("order_id", order.ID.String()),
		zap.String("order_number", order.OrderNumber),
		zap.Int("items", len(order.Items)),
		zap.String("total_amount", order.TotalAmount.String()),
	)
	s.publishEvents(ctx, order)
	return s.GetByID(ctx, tenantID, order.ID)
}

func (s *OrderService) createOnce(ctx context.Context, tenantID, userID uuid.UUID, schedule revenue.FeeSchedule, req SaveOrderRequest) (*revenue.Order, error) {
	order, err := revenue.NewOrder(tenantID, s.header(req))
	if err != nil {
		return nil, err
	}
	order.SetCreatedBy(userID)

	err = s.store.Execute(ctx, func(repos scope.Repositories) error {
		reused, err := s.resolver.EnsureChassisAvailable(ctx, repos, chassisOf(req.Items), nil)
		if err != nil {
			return err
		}
		if err := s.bindReferences(ctx, repos, order, req); err != nil {
			return err
		}
		lines, _, err := s.buildLines(ctx, repos, tenantID, req.Items, reused)
		if err != nil {
			return err
		}
		if err := order.PriceItems(schedule, lines); err != nil {
			return err
		}

		day := s.now().In(s.location)
		seq, err := repos.OrderNumbers().Next(ctx, day)
		if err != nil {
			return fmt.Errorf("allocate order number: %w", err)
		}
		if err := order.AssignNumber(revenue.FormatOrderNumber(day, seq)); err != nil {
			return err
		}

		if err := repos.Orders().Create(ctx, order); err != nil {
			if errors.Is(err, shared.ErrAlreadyExists) {
				return errOrderNumberTaken
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	order.AddDomainEvent(revenue.NewOrderCreatedEvent(order))
	return order, nil
}

// UpdateWithItems replaces the header and every item of an order and
// recomputes its total in one transaction. Cars bound to the replaced items
// may be reused by chassis number; the rest are deleted.
func (s *OrderService) UpdateWithItems(ctx context.Context, tenantID, id uuid.UUID, req SaveOrderRequest) (*OrderResponse, error) {
	var order *revenue.Order
	err := s.store.Execute(ctx, func(repos scope.Repositories) error {
		var err error
		order, err = repos.Orders().FindByIDForTenant(ctx, tenantID, id)
		if err != nil {
			return err
		}
		if req.Version != 0 && req.Version != order.Version {
			return shared.ErrConcurrencyConflict
		}
		schedule, err := s.schedules.Resolve(req.TransactionType, req.FeeSchedule)
		if err != nil {
			return err
		}
		if err := order.UpdateHeader(s.header(req)); err != nil {
			return err
		}
		if err := s.bindReferences(ctx, repos, order, req); err != nil {
			return err
		}

		previous := make(map[uuid.UUID]bool, len(order.Items))
		for _, carID := range order.CarIDs() {
			previous[carID] = true
		}
		reused, err := s.resolver.EnsureChassisAvailable(ctx, repos, chassisOf(req.Items), previous)
		if err != nil {
			return err
		}
		lines, kept, err := s.buildLines(ctx, repos, tenantID, req.Items, reused)
		if err != nil {
			return err
		}
		if err := order.PriceItems(schedule, lines); err != nil {
			return err
		}
		if err := repos.Orders().ReplaceItems(ctx, order); err != nil {
			return err
		}
		if err := repos.Orders().Save(ctx, order); err != nil {
			return err
		}

		var orphaned []uuid.UUID
		for carID := range previous {
			if !kept[carID] {
				orphaned = append(orphaned, carID)
			}
		}
		return repos.Cars().DeleteByIDs(ctx, orphaned)
	})
	if err != nil {
		return nil, err
	}

	order.AddDomainEvent(revenue.NewOrderItemsReplacedEvent(order))
	s.publishEvents(ctx, order)
	return s.GetByID(ctx, tenantID, order.ID)
}

func (s *OrderService) header(req SaveOrderRequest) revenue.OrderHeader {
	return revenue.OrderHeader{
		Type:            req.TransactionType,
		Category:        req.TransactionCategory,
		PaymentStatus:   req.PaymentStatus,
		TransactionDate: req.TransactionDate.Time,
		OtherDetails:    req.otherDetails(),
		Notes:           req.Notes,
	}
}

// bindReferences resolves the counterparty and checks every optional link
// exists in the tenant
func (s *OrderService) bindReferences(ctx context.Context, repos scope.Repositories, order *revenue.Order, req SaveOrderRequest) error {
	role := order.Type.RequiredRole()
	id, name := req.CustomerID, req.CustomerName
	if role == revenue.RoleSaler {
		id, name = req.SalerID, req.SellerName
	}
	counterparty, err := s.resolver.ResolveCounterparty(ctx, repos, order.TenantID, role, id, name)
	if err != nil {
		return err
	}
	if err := order.SetCounterparty(counterparty); err != nil {
		return err
	}

	tenantID := order.TenantID
	order.CompanyAccountID = nil
	if ref := req.CompanyAccountID; ref != nil && *ref != uuid.Nil {
		if _, err := repos.BankAccounts().FindByIDForTenant(ctx, tenantID, *ref); err != nil {
			return referenceError("company account", *ref, err)
		}
		order.CompanyAccountID = ref
	}
	order.AuctionID = nil
	if ref := req.AuctionID; ref != nil && *ref != uuid.Nil {
		if _, err := repos.Auctions().FindByIDForTenant(ctx, tenantID, *ref); err != nil {
			return referenceError("auction", *ref, err)
		}
		order.AuctionID = ref
	}
	order.LedgerTransactionID = nil
	if ref := req.LedgerTransactionID; ref != nil && *ref != uuid.Nil {
		if _, err := repos.LedgerTransactions().FindByIDForTenant(ctx, tenantID, *ref); err != nil {
			return referenceError("transaction", *ref, err)
		}
		order.LinkPayment(ref)
	}
	return nil
}

// buildLines resolves categories, creates new cars and refreshes reused
// ones. kept holds the ids of reused cars.
func (s *OrderService) buildLines(ctx context.Context, repos scope.Repositories, tenantID uuid.UUID, items []OrderItemInput, reused map[string]revenue.Car) ([]revenue.ItemLine, map[uuid.UUID]bool, error) {
	if len(items) == 0 {
		return nil, nil, shared.NewValidationError("order requires at least one item")
	}
	categories := make(map[string]*revenue.CarCategory)
	kept := make(map[uuid.UUID]bool)
	lines := make([]revenue.ItemLine, 0, len(items))

	for i, item := range items {
		if item.Category.IsZero() {
			return nil, nil, shared.NewValidationError("item %d: category is required", i+1)
		}
		key := item.Category.String()
		category, ok := categories[key]
		if !ok {
			var err error
			category, err = s.resolver.ResolveCategory(ctx, repos, tenantID, item.Category)
			if err != nil {
				if de, isDomain := shared.AsDomainError(err); isDomain && de.Code == shared.CodeValidation {
					return nil, nil, de.WithDetails(shared.ErrorDetail{Row: i + 1, Field: "category", Value: key, Message: de.Message})
				}
				return nil, nil, err
			}
			categories[key] = category
		}

		chassis := revenue.NormalizeChassis(item.ChassisNumber)
		var car *revenue.Car
		if existing, ok := reused[chassis]; ok {
			car = &existing
			if err := car.Describe(item.Name, item.Year, category.ID); err != nil {
				return nil, nil, err
			}
			if err := repos.Cars().Save(ctx, car); err != nil {
				return nil, nil, err
			}
			kept[car.ID] = true
		} else {
			var err error
			car, err = revenue.NewCar(tenantID, item.Name, chassis, item.Year, category.ID)
			if err != nil {
				return nil, nil, err
			}
			if err := repos.Cars().Create(ctx, car); err != nil {
				if errors.Is(err, shared.ErrAlreadyExists) {
					return nil, nil, shared.NewValidationError("chassis number %s is already registered to another car", chassis).
						WithDetails(shared.ErrorDetail{Row: i + 1, Field: "chassis_number", Value: chassis, Message: "chassis number is already registered to another car"})
				}
				return nil, nil, err
			}
		}

		lines = append(lines, revenue.ItemLine{
			CarID:      car.ID,
			CategoryID: category.ID,
			Venue:      item.Venue,
			YearType:   item.YearType,
			Notes:      item.Notes,
			Fees:       item.FeeBreakdown,
		})
	}
	return lines, kept, nil
}

func chassisOf(items []OrderItemInput) []string {
	numbers := make([]string, len(items))
	for i, item := range items {
		numbers[i] = item.ChassisNumber
	}
	return numbers
}

// referenceError turns a missing link into a validation error
func referenceError(kind string, id uuid.UUID, err error) error {
	if errors.Is(err, shared.ErrNotFound) {
		return shared.NewValidationError("%s %s does not exist", kind, id)
	}
	return err
}

// GetByID retrieves an order with its items, cars and categories
func (s *OrderService) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*OrderResponse, error) {
	order, err := s.store.Orders().FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	cars, categories, err := s.loadLineEntities(ctx, tenantID, order)
	if err != nil {
		return nil, err
	}
	response := ToOrderResponse(order, cars, categories)
	return &response, nil
}

func (s *OrderService) loadLineEntities(ctx context.Context, tenantID uuid.UUID, order *revenue.Order) (map[uuid.UUID]revenue.Car, map[uuid.UUID]revenue.CarCategory, error) {
	carList, err := s.store.Cars().FindByIDs(ctx, order.CarIDs())
	if err != nil {
		return nil, nil, err
	}
	cars := make(map[uuid.UUID]revenue.Car, len(carList))
	for _, car := range carList {
		cars[car.ID] = car
	}

	categoryIDs := make([]uuid.UUID, 0, len(order.Items))
	for _, item := range order.Items {
		categoryIDs = append(categoryIDs, item.CategoryID)
	}
	categoryList, err := s.store.CarCategories().FindByIDs(ctx, tenantID, categoryIDs)
	if err != nil {
		return nil, nil, err
	}
	categories := make(map[uuid.UUID]revenue.CarCategory, len(categoryList))
	for _, category := range categoryList {
		categories[category.ID] = category
	}
	return cars, categories, nil
}

// List retrieves orders with filtering and pagination
func (s *OrderService) List(ctx context.Context, tenantID uuid.UUID, filter OrderListFilter) ([]OrderResponse, int64, error) {
	domainFilter := filter.toDomain()
	orders, err := s.store.Orders().FindAllForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.store.Orders().CountForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	responses := make([]OrderResponse, len(orders))
	for i := range orders {
		responses[i] = ToOrderResponse(&orders[i], nil, nil)
	}
	return responses, total, nil
}

// UpdatePaymentStatus changes settlement status and optionally links the
// settling ledger transaction
func (s *OrderService) UpdatePaymentStatus(ctx context.Context, tenantID, id uuid.UUID, req UpdatePaymentStatusRequest) (*OrderResponse, error) {
	var order *revenue.Order
	err := s.store.Execute(ctx, func(repos scope.Repositories) error {
		var err error
		order, err = repos.Orders().FindByIDForTenant(ctx, tenantID, id)
		if err != nil {
			return err
		}
		if err := order.SetPaymentStatus(req.PaymentStatus); err != nil {
			return err
		}
		if ref := req.LedgerTransactionID; ref != nil && *ref != uuid.Nil {
			if _, err := repos.LedgerTransactions().FindByIDForTenant(ctx, tenantID, *ref); err != nil {
				return referenceError("transaction", *ref, err)
			}
			order.LinkPayment(ref)
		}
		return repos.Orders().Save(ctx, order)
	})
	if err != nil {
		return nil, err
	}
	s.publishEvents(ctx, order)
	return s.GetByID(ctx, tenantID, id)
}

// Delete removes an order, its items and the cars recorded on them
func (s *OrderService) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return s.store.Execute(ctx, func(repos scope.Repositories) error {
		order, err := repos.Orders().FindByIDForTenant(ctx, tenantID, id)
		if err != nil {
			return err
		}
		if err := repos.Orders().Delete(ctx, tenantID, id); err != nil {
			return err
		}
		return repos.Cars().DeleteByIDs(ctx, order.CarIDs())
	})
}
