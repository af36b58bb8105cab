package telemetry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/log/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/huzaifanasir-fabtechsol/backend/internal/domain/bulk"
	"github.com/huzaifanasir-fabtechsol/backend/internal/domain/ledger"
	"github.com/huzaifanasir-fabtechsol/backend/internal/domain/revenue"
	"github.com/huzaifanasir-fabtechsol/backend/internal/domain/shared"
)

func TestSetup_Disabled(t *testing.T) {
	p, err := Setup(context.Background(), Config{Enabled: false}, zap.NewNop())
	require.NoError(t, err)
	assert.False(t, p.Enabled())
	assert.Nil(t, p.LoggerProvider())
	assert.NotNil(t, p.Meter("test"))
	p.EnableSpanProfiles()
	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestSampler(t *testing.T) {
	assert.Equal(t, sdktrace.AlwaysSample().Description(), sampler(1).Description())
	assert.Equal(t, sdktrace.NeverSample().Description(), sampler(0).Description())
	assert.Equal(t, sdktrace.TraceIDRatioBased(0.25).Description(), sampler(0.25).Description())
}

func TestStartProfiler(t *testing.T) {
	p, err := StartProfiler(ProfilerConfig{}, zap.NewNop())
	require.NoError(t, err)
	assert.False(t, p.Running())
	assert.NoError(t, p.Stop())
	assert.NoError(t, p.Stop())

	_, err = StartProfiler(ProfilerConfig{Enabled: true, ApplicationName: "books"}, zap.NewNop())
	assert.Error(t, err)
	_, err = StartProfiler(ProfilerConfig{Enabled: true, ServerAddress: "http://pyroscope:4040"}, zap.NewNop())
	assert.Error(t, err)
}

func TestBridgeLogger(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	base := zap.New(core)

	assert.Same(t, base, BridgeLogger(base, nil, "books", zapcore.InfoLevel))

	bridged := BridgeLogger(base, noop.NewLoggerProvider(), "books", zapcore.WarnLevel)
	bridged.Debug("local only")
	bridged.Warn("both")
	assert.Equal(t, 2, logs.Len(), "the base core still sees every entry")

	filter := &levelFilterCore{Core: zapcore.NewNopCore(), minLevel: zapcore.WarnLevel}
	assert.False(t, filter.Enabled(zapcore.InfoLevel))
	assert.False(t, filter.With(nil).Enabled(zapcore.DebugLevel))
}

func TestStartServiceSpan(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	previous := otel.GetTracerProvider()
	otel.SetTracerProvider(provider)
	t.Cleanup(func() { otel.SetTracerProvider(previous) })

	_, span := StartServiceSpan(context.Background(), "import", "run", attribute.String("import.profile", "bank-feed"))
	EndSpan(span, errors.New("feed has no data rows"))
	_, span = StartServiceSpan(context.Background(), "order", "create")
	EndSpan(span, nil)

	ended := recorder.Ended()
	require.Len(t, ended, 2)
	assert.Equal(t, "import.run", ended[0].Name())
	assert.Equal(t, codes.Error, ended[0].Status().Code)
	assert.Contains(t, ended[0].Attributes(), attribute.String("import.profile", "bank-feed"))
	assert.Equal(t, "order.create", ended[1].Name())
	assert.Equal(t, codes.Unset, ended[1].Status().Code)
}

func TestNewBusinessMetrics_NilMeter(t *testing.T) {
	_, err := NewBusinessMetrics(nil)
	assert.ErrorIs(t, err, ErrMeterNil)
}

func TestBusinessMetrics_CountsEvents(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	bm, err := NewBusinessMetrics(provider.Meter("test"))
	require.NoError(t, err)
	ctx := context.Background()
	tenantID := uuid.New()

	order := &revenue.Order{Type: revenue.OrderTypeSale, TotalAmount: decimal.NewFromInt(31000)}
	order.ID = uuid.New()
	order.TenantID = tenantID

	batch := uuid.New()
	imported := &ledger.LedgerTransaction{BankAccountID: uuid.New(), Date: time.Now(), ImportBatchID: &batch}
	imported.TenantID = tenantID
	manual := &ledger.LedgerTransaction{BankAccountID: uuid.New(), Date: time.Now()}
	manual.TenantID = tenantID

	history := &bulk.ImportHistory{Profile: bulk.ProfileExpenseSheet, Counts: bulk.ImportCounts{
		TotalRows: 3, CreatedTransactions: 2, SkippedRows: 1,
	}}
	history.TenantID = tenantID

	events := []shared.DomainEvent{
		revenue.NewOrderCreatedEvent(order),
		revenue.NewOrderCreatedEvent(order),
		ledger.NewTransactionPostedEvent(imported),
		ledger.NewTransactionPostedEvent(imported),
		ledger.NewTransactionPostedEvent(manual),
		bulk.NewImportCompletedEvent(history),
	}
	for _, e := range events {
		require.NoError(t, bm.Handle(ctx, e))
	}

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))

	assert.Equal(t, int64(2), intSum(rm, "books.orders.created", attribute.String("order.type", string(revenue.OrderTypeSale))))
	assert.Equal(t, int64(2), intSum(rm, "books.ledger.postings", attribute.String("source", "import")))
	assert.Equal(t, int64(1), intSum(rm, "books.ledger.postings", attribute.String("source", "manual")))
	assert.Equal(t, int64(1), intSum(rm, "books.imports.completed", attribute.String("import.profile", bulk.ProfileExpenseSheet)))
	assert.Equal(t, int64(2), intSum(rm, "books.imports.rows", attribute.String("outcome", "created")))
	assert.Equal(t, int64(1), intSum(rm, "books.imports.rows", attribute.String("outcome", "skipped")))
	assert.Equal(t, int64(0), intSum(rm, "books.imports.rows", attribute.String("outcome", "reused")))
	assert.Contains(t, bm.EventTypes(), bulk.EventTypeImportCompleted)
}

// intSum adds the data points of an int64 sum whose attributes contain want
func intSum(rm metricdata.ResourceMetrics, name string, want attribute.KeyValue) int64 {
	var total int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				continue
			}
			for _, dp := range sum.DataPoints {
				if v, ok := dp.Attributes.Value(want.Key); ok && v == want.Value {
					total += dp.Value
				}
			}
		}
	}
	return total
}
