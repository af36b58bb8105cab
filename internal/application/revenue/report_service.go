package revenue

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/huzaifanasir-fabtechsol/backend/internal/application/scope"
	"github.com/huzaifanasir-fabtechsol/backend/internal/domain/revenue"
	"github.com/huzaifanasir-fabtechsol/backend/internal/domain/shared"
	"github.com/huzaifanasir-fabtechsol/backend/internal/infrastructure/logger"
)

const (
	latestOrdersLimit  = 10
	summaryOrdersLimit = 200
)

// Summary periods
const (
	PeriodToday = "today"
	PeriodMonth = "month"
	PeriodYear  = "year"
)

// ReportService computes dashboard figures and period profit and loss.
// Every figure is derived from stored rows at request time.
type ReportService struct {
	repos    scope.Repositories
	location *time.Location
	now      func() time.Time
	logger   *zap.Logger
}

// NewReportService creates a new ReportService
func NewReportService(repos scope.Repositories, location *time.Location, logger *zap.Logger) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if location == nil {
		location = time.UTC
	}
	return &ReportService{repos: repos, location: location, now: time.Now, logger: logger}
}

// SetClock replaces the time source
func (s *ReportService) SetClock(now func() time.Time) {
	s.now = now
}

// Dashboard returns the tenant's all-time headline figures and latest orders
func (s *ReportService) Dashboard(ctx context.Context, tenantID uuid.UUID) (*DashboardResponse, error) {
	totals, err := s.repos.Orders().Totals(ctx, tenantID, nil, nil)
	if err != nil {
		return nil, err
	}
	expenses, err := s.repos.Expenses().SumForTenant(ctx, tenantID, nil, nil)
	if err != nil {
		return nil, err
	}
	latest, err := s.repos.Orders().FindAllForTenant(ctx, tenantID, revenue.OrderFilter{
		Filter: shared.Filter{Page: 1, PageSize: latestOrdersLimit, OrderBy: "transaction_date", OrderDir: "desc"},
	})
	if err != nil {
		return nil, err
	}

	resp := &DashboardResponse{
		ApprovedAmount: amountOf(totals.ByStatus, revenue.PaymentStatusCompleted),
		PendingAmount:  amountOf(totals.ByStatus, revenue.PaymentStatusPending),
		TotalExpense:   expenses,
		TotalPurchase:  amountOf(totals.ByType, revenue.OrderTypePurchase),
		OrderCount:     totals.Count,
		LatestOrders:   make([]LatestOrder, 0, len(latest)),
	}
	for _, o := range latest {
		resp.LatestOrders = append(resp.LatestOrders, LatestOrder{
			ID:              o.ID,
			OrderNumber:     o.OrderNumber,
			TransactionDate: shared.NewDate(o.TransactionDate),
			TransactionType: o.Type,
			PaymentStatus:   o.PaymentStatus,
			TotalAmount:     o.TotalAmount,
		})
	}
	return resp, nil
}

// FinancialSummary returns revenue, cost and profit over a period.
// Revenue is sales plus auctions; cost is purchases plus expenses. Nagare
// settlements are reported on their own and count toward neither.
func (s *ReportService) FinancialSummary(ctx context.Context, tenantID uuid.UUID, q SummaryQuery) (*FinancialSummaryResponse, error) {
	start, end, err := s.period(q)
	if err != nil {
		return nil, err
	}

	totals, err := s.repos.Orders().Totals(ctx, tenantID, &start, &end)
	if err != nil {
		return nil, err
	}
	expenses, err := s.repos.Expenses().SumForTenant(ctx, tenantID, &start, &end)
	if err != nil {
		return nil, err
	}
	orders, err := s.repos.Orders().FindAllForTenant(ctx, tenantID, revenue.OrderFilter{
		Filter: shared.Filter{Page: 1, PageSize: summaryOrdersLimit, OrderBy: "transaction_date", OrderDir: "asc"},
		From:   &start,
		To:     &end,
	})
	if err != nil {
		return nil, err
	}

	resp := &FinancialSummaryResponse{
		Start:      shared.NewDate(start),
		End:        shared.NewDate(end),
		Sales:      amountOf(totals.ByType, revenue.OrderTypeSale),
		Auctions:   amountOf(totals.ByType, revenue.OrderTypeAuction),
		Nagare:     amountOf(totals.ByType, revenue.OrderTypeNagare),
		Purchases:  amountOf(totals.ByType, revenue.OrderTypePurchase),
		Expenses:   expenses,
		OrderCount: totals.Count,
		Orders:     make([]SummaryOrderLine, 0, len(orders)),
	}
	resp.Revenue = resp.Sales.Add(resp.Auctions)
	resp.Cost = resp.Purchases.Add(resp.Expenses)
	resp.Profit = resp.Revenue.Sub(resp.Cost)

	for _, o := range orders {
		resp.Orders = append(resp.Orders, SummaryOrderLine{
			OrderNumber:     o.OrderNumber,
			TransactionType: o.Type,
			TransactionDate: shared.NewDate(o.TransactionDate),
			CustomerName:    o.CounterpartyName,
			TotalAmount:     o.TotalAmount,
		})
	}

	logger.For(ctx, s.logger).Debug("Financial summary computed",
		zap.String("start", resp.Start.String()),
		zap.String("end", resp.End.String()),
		zap.String("profit", resp.Profit.String()),
	)
	return resp, nil
}

// period resolves the query into an inclusive [start, end] pair of calendar
// dates. Today is taken in the business timezone.
func (s *ReportService) period(q SummaryQuery) (time.Time, time.Time, error) {
	if q.StartDate != nil || q.EndDate != nil {
		if q.StartDate == nil || q.EndDate == nil {
			return time.Time{}, time.Time{}, shared.NewValidationError("start_date and end_date must be given together")
		}
		start, end := calendarDay(*q.StartDate), calendarDay(*q.EndDate)
		if end.Before(start) {
			return time.Time{}, time.Time{}, shared.NewValidationError("end_date is before start_date")
		}
		return start, end, nil
	}

	today := calendarDay(s.now().In(s.location))
	switch q.Period {
	case PeriodToday:
		return today, today, nil
	case PeriodYear:
		start := time.Date(today.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
		return start, start.AddDate(1, 0, -1), nil
	case PeriodMonth, "":
		start := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC)
		return start, start.AddDate(0, 1, -1), nil
	}
	return time.Time{}, time.Time{}, shared.NewValidationError("unknown period '%s'", q.Period)
}

// calendarDay keeps the wall-clock date of t as UTC midnight
func calendarDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func amountOf[K comparable](m map[K]decimal.Decimal, key K) decimal.Decimal {
	if v, ok := m[key]; ok {
		return v
	}
	return decimal.Zero
}
