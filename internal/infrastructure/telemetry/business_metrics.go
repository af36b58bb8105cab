package telemetry

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/huzaifanasir-fabtechsol/backend/internal/domain/bulk"
	"github.com/huzaifanasir-fabtechsol/backend/internal/domain/ledger"
	"github.com/huzaifanasir-fabtechsol/backend/internal/domain/revenue"
	"github.com/huzaifanasir-fabtechsol/backend/internal/domain/shared"
)

// ErrMeterNil is returned when BusinessMetrics is built without a meter
var ErrMeterNil = errors.New("telemetry: meter is nil")

// BusinessMetrics turns committed domain events into counters. Subscribe it
// to the event bus; it never queries storage.
type BusinessMetrics struct {
	ordersCreated      metric.Int64Counter
	orderAmount        metric.Float64Counter
	paymentTransitions metric.Int64Counter
	postings           metric.Int64Counter
	balancesRewritten  metric.Int64Counter
	importsCompleted   metric.Int64Counter
	importRows         metric.Int64Counter
}

// NewBusinessMetrics registers the instruments on meter
func NewBusinessMetrics(meter metric.Meter) (*BusinessMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}
	bm := &BusinessMetrics{}
	var errs []error
	add := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}

	var err error
	bm.ordersCreated, err = meter.Int64Counter("books.orders.created",
		metric.WithDescription("Orders created, by order type"), metric.WithUnit("{order}"))
	add(err)
	bm.orderAmount, err = meter.Float64Counter("books.orders.amount",
		metric.WithDescription("Summed total_amount of created orders, by order type"), metric.WithUnit("{currency}"))
	add(err)
	bm.paymentTransitions, err = meter.Int64Counter("books.orders.payment_transitions",
		metric.WithDescription("Payment status changes, by target status"), metric.WithUnit("{change}"))
	add(err)
	bm.postings, err = meter.Int64Counter("books.ledger.postings",
		metric.WithDescription("Ledger transactions posted, by source"), metric.WithUnit("{transaction}"))
	add(err)
	bm.balancesRewritten, err = meter.Int64Counter("books.ledger.balances_rewritten",
		metric.WithDescription("Cached balances rewritten by recompute walks"), metric.WithUnit("{row}"))
	add(err)
	bm.importsCompleted, err = meter.Int64Counter("books.imports.completed",
		metric.WithDescription("Committed import runs, by profile"), metric.WithUnit("{import}"))
	add(err)
	bm.importRows, err = meter.Int64Counter("books.imports.rows",
		metric.WithDescription("Imported feed rows, by profile and outcome"), metric.WithUnit("{row}"))
	add(err)

	if len(errs) > 0 {
		return nil, fmt.Errorf("register business metrics: %w", errors.Join(errs...))
	}
	return bm, nil
}

// Handle records one event
func (bm *BusinessMetrics) Handle(ctx context.Context, event shared.DomainEvent) error {
	switch e := event.(type) {
	case *revenue.OrderCreatedEvent:
		attrs := metric.WithAttributes(attribute.String("order.type", string(e.Type)))
		bm.ordersCreated.Add(ctx, 1, attrs)
		bm.orderAmount.Add(ctx, e.TotalAmount.InexactFloat64(), attrs)
	case *revenue.OrderPaymentStatusChangedEvent:
		bm.paymentTransitions.Add(ctx, 1, metric.WithAttributes(attribute.String("payment.status", string(e.To))))
	case *ledger.TransactionPostedEvent:
		source := "manual"
		if e.Imported {
			source = "import"
		}
		bm.postings.Add(ctx, 1, metric.WithAttributes(attribute.String("source", source)))
	case *ledger.BalancesRecomputedEvent:
		bm.balancesRewritten.Add(ctx, int64(e.Rewritten))
	case *bulk.ImportCompletedEvent:
		profile := attribute.String("import.profile", e.Profile)
		bm.importsCompleted.Add(ctx, 1, metric.WithAttributes(profile))
		for outcome, n := range map[string]int{
			"created": e.Counts.CreatedTransactions,
			"reused":  e.Counts.ReusedTransactions,
			"skipped": e.Counts.SkippedRows,
		} {
			if n > 0 {
				bm.importRows.Add(ctx, int64(n), metric.WithAttributes(profile, attribute.String("outcome", outcome)))
			}
		}
	}
	return nil
}

// EventTypes lists the events BusinessMetrics counts
func (bm *BusinessMetrics) EventTypes() []string {
	return []string{
		revenue.EventTypeOrderCreated,
		revenue.EventTypeOrderPaymentStatusChanged,
		ledger.EventTypeTransactionPosted,
		ledger.EventTypeBalancesRecomputed,
		bulk.EventTypeImportCompleted,
	}
}

var _ shared.EventHandler = (*BusinessMetrics)(nil)
