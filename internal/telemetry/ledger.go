package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/starford/dayblocks/internal/ledger"
	"github.com/starford/dayblocks/internal/models"
)

const ledgerScopeName = "github.com/starford/dayblocks/ledger"

// InstrumentedLedger wraps ledger.Ledger with a span and metrics per call.
type InstrumentedLedger struct {
	inner    ledger.Ledger
	tracer   trace.Tracer
	ops      metric.Int64Counter
	dur      metric.Float64Histogram
	errs     metric.Int64Counter
	fallback metric.Int64Counter
}

// WrapLedger decorates l with instruments from the global providers. When
// telemetry is disabled l is returned as-is.
func WrapLedger(l ledger.Ledger, cfg Config) ledger.Ledger {
	if !cfg.Enabled {
		return l
	}
	return NewInstrumentedLedger(l, Tracer(ledgerScopeName), Meter(ledgerScopeName))
}

// NewInstrumentedLedger decorates l with the given tracer and meter.
func NewInstrumentedLedger(l ledger.Ledger, tracer trace.Tracer, m metric.Meter) *InstrumentedLedger {
	ops, _ := m.Int64Counter("dayblocks.ledger.operations",
		metric.WithDescription("Total ledger operations executed"),
	)
	dur, _ := m.Float64Histogram("dayblocks.ledger.operation.duration",
		metric.WithDescription("Ledger operation duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	errs, _ := m.Int64Counter("dayblocks.ledger.errors",
		metric.WithDescription("Total ledger operation errors"),
	)
	fallback, _ := m.Int64Counter("dayblocks.ledger.replace.fallbacks",
		metric.WithDescription("Day replacements that fell back to row-by-row inserts"),
	)
	return &InstrumentedLedger{
		inner:    l,
		tracer:   tracer,
		ops:      ops,
		dur:      dur,
		errs:     errs,
		fallback: fallback,
	}
}

var _ ledger.Ledger = (*InstrumentedLedger)(nil)

func (l *InstrumentedLedger) op(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span, time.Time) {
	all := append([]attribute.KeyValue{attribute.String("ledger.operation", name)}, attrs...)
	ctx, span := l.tracer.Start(ctx, "ledger."+name, trace.WithAttributes(all...))
	l.ops.Add(ctx, 1, metric.WithAttributes(all...))
	return ctx, span, time.Now()
}

func (l *InstrumentedLedger) done(ctx context.Context, span trace.Span, start time.Time, err error, name string) {
	attrs := metric.WithAttributes(attribute.String("ledger.operation", name))
	l.dur.Record(ctx, float64(time.Since(start))/float64(time.Millisecond), attrs)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		l.errs.Add(ctx, 1, attrs)
	}
	span.End()
}

func (l *InstrumentedLedger) GetDay(ctx context.Context, userID, date string) ([]models.TimeBlock, error) {
	ctx, span, t := l.op(ctx, "GetDay", attribute.String("ledger.date", date))
	v, err := l.inner.GetDay(ctx, userID, date)
	l.done(ctx, span, t, err, "GetDay")
	return v, err
}

func (l *InstrumentedLedger) ReplaceDay(ctx context.Context, userID, date string, slots []models.Slot) (ledger.ReplaceResult, error) {
	ctx, span, t := l.op(ctx, "ReplaceDay", attribute.String("ledger.date", date))
	v, err := l.inner.ReplaceDay(ctx, userID, date, slots)
	if err == nil {
		span.SetAttributes(
			attribute.Int("ledger.inserted", v.Inserted),
			attribute.Bool("ledger.fallback", v.Fallback),
		)
		if v.Fallback {
			l.fallback.Add(ctx, 1)
		}
	}
	l.done(ctx, span, t, err, "ReplaceDay")
	return v, err
}

func (l *InstrumentedLedger) UpsertNote(ctx context.Context, userID, date string, index int, note string) (*models.TimeBlock, error) {
	ctx, span, t := l.op(ctx, "UpsertNote", attribute.String("ledger.date", date), attribute.Int("ledger.block_index", index))
	v, err := l.inner.UpsertNote(ctx, userID, date, index, note)
	l.done(ctx, span, t, err, "UpsertNote")
	return v, err
}

func (l *InstrumentedLedger) Stats(ctx context.Context, userID string) (map[string]string, error) {
	ctx, span, t := l.op(ctx, "Stats")
	v, err := l.inner.Stats(ctx, userID)
	if err == nil {
		span.SetAttributes(attribute.Int("ledger.days", len(v)))
	}
	l.done(ctx, span, t, err, "Stats")
	return v, err
}

func (l *InstrumentedLedger) GetSummary(ctx context.Context, userID, date string) (models.DailySummary, error) {
	ctx, span, t := l.op(ctx, "GetSummary", attribute.String("ledger.date", date))
	v, err := l.inner.GetSummary(ctx, userID, date)
	l.done(ctx, span, t, err, "GetSummary")
	return v, err
}

func (l *InstrumentedLedger) PutSummary(ctx context.Context, userID, date, content string, rating int) (models.DailySummary, error) {
	ctx, span, t := l.op(ctx, "PutSummary", attribute.String("ledger.date", date))
	v, err := l.inner.PutSummary(ctx, userID, date, content, rating)
	l.done(ctx, span, t, err, "PutSummary")
	return v, err
}

func (l *InstrumentedLedger) Ready(ctx context.Context) error {
	return l.inner.Ready(ctx)
}
