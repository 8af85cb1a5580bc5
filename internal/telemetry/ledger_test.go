package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/starford/dayblocks/internal/ledger"
	"github.com/starford/dayblocks/internal/models"
	"github.com/starford/dayblocks/internal/testutil"
)

func instrumented(t *testing.T) (*InstrumentedLedger, *tracetest.SpanRecorder, *sdkmetric.ManualReader) {
	t.Helper()
	db, _ := testutil.TestDB(t)
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	inner := ledger.NewService(db, testutil.Logger())
	return NewInstrumentedLedger(inner, tp.Tracer("test"), mp.Meter("test")), sr, reader
}

func counterTotal(t *testing.T, reader *sdkmetric.ManualReader, name string) int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	var total int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			if sum, ok := m.Data.(metricdata.Sum[int64]); ok {
				for _, dp := range sum.DataPoints {
					total += dp.Value
				}
			}
		}
	}
	return total
}

func TestInstrumentedLedger_SpansAndCounters(t *testing.T) {
	l, sr, reader := instrumented(t)
	ctx := context.Background()

	slots := make([]models.Slot, models.BlocksPerDay)
	red := "red"
	slots[0] = models.Slot{Color: &red}
	_, err := l.ReplaceDay(ctx, "u1", "2024-03-01", slots)
	require.NoError(t, err)
	_, err = l.Stats(ctx, "u1")
	require.NoError(t, err)

	spans := sr.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, "ledger.ReplaceDay", spans[0].Name())
	assert.Equal(t, "ledger.Stats", spans[1].Name())
	assert.Equal(t, int64(2), counterTotal(t, reader, "dayblocks.ledger.operations"))
	assert.Equal(t, int64(0), counterTotal(t, reader, "dayblocks.ledger.errors"))
}

func TestInstrumentedLedger_RecordsErrors(t *testing.T) {
	l, sr, reader := instrumented(t)

	_, err := l.PutSummary(context.Background(), "u1", "2024-03-01", "x", 9)
	require.Error(t, err)

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Equal(t, int64(1), counterTotal(t, reader, "dayblocks.ledger.errors"))
}

type quickLedger struct{ ledger.Ledger }

func (quickLedger) GetSummary(context.Context, string, string) (models.DailySummary, error) {
	time.Sleep(100 * time.Microsecond)
	return models.DailySummary{}, nil
}

func TestInstrumentedLedger_SubMillisecondDuration(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	tp := sdktrace.NewTracerProvider()
	l := NewInstrumentedLedger(quickLedger{}, tp.Tracer("test"), mp.Meter("test"))

	_, err := l.GetSummary(context.Background(), "u1", "2024-03-01")
	require.NoError(t, err)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	var sum float64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if h, ok := m.Data.(metricdata.Histogram[float64]); ok && m.Name == "dayblocks.ledger.operation.duration" {
				for _, dp := range h.DataPoints {
					sum += dp.Sum
				}
			}
		}
	}
	assert.Greater(t, sum, 0.0)
}

func TestWrapLedger_DisabledReturnsInner(t *testing.T) {
	db, _ := testutil.TestDB(t)
	inner := ledger.NewService(db, testutil.Logger())
	assert.Same(t, inner, WrapLedger(inner, Config{}))
}

func TestInit_Disabled(t *testing.T) {
	shutdown, err := Init(context.Background(), Config{}, "dayblocks", "test")
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}
