package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/foospace/sprintsync/internal/warehouse"
)

const warehouseScopeName = "github.com/foospace/sprintsync/warehouse"

// InstrumentedWarehouse wraps a warehouse with OTel tracing and metrics.
// Every method gets a span and is counted in sprintsync.warehouse.* metrics.
type InstrumentedWarehouse struct {
	inner  warehouse.Warehouse
	tracer trace.Tracer
	ops    metric.Int64Counter
	rows   metric.Int64Counter
	dur    metric.Float64Histogram
	errs   metric.Int64Counter
}

var _ warehouse.Warehouse = (*InstrumentedWarehouse)(nil)

// WrapWarehouse returns w decorated with OTel instrumentation, or w itself
// when telemetry is disabled.
func WrapWarehouse(w warehouse.Warehouse) warehouse.Warehouse {
	if !Enabled() {
		return w
	}
	return newInstrumentedWarehouse(w)
}

func newInstrumentedWarehouse(w warehouse.Warehouse) *InstrumentedWarehouse {
	m := Meter(warehouseScopeName)
	ops, _ := m.Int64Counter("sprintsync.warehouse.operations",
		metric.WithDescription("Total warehouse operations executed"),
	)
	rows, _ := m.Int64Counter("sprintsync.warehouse.rows",
		metric.WithDescription("Rows deleted or appended"),
	)
	dur, _ := m.Float64Histogram("sprintsync.warehouse.operation.duration",
		metric.WithDescription("Warehouse operation duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	errs, _ := m.Int64Counter("sprintsync.warehouse.errors",
		metric.WithDescription("Total warehouse operation errors"),
	)
	return &InstrumentedWarehouse{
		inner:  w,
		tracer: Tracer(warehouseScopeName),
		ops:    ops,
		rows:   rows,
		dur:    dur,
		errs:   errs,
	}
}

func (w *InstrumentedWarehouse) op(ctx context.Context, name, table string) (context.Context, trace.Span, []attribute.KeyValue, time.Time) {
	attrs := []attribute.KeyValue{
		attribute.String("db.operation", name),
		attribute.String("db.sql.table", table),
	}
	ctx, span := w.tracer.Start(ctx, "warehouse."+name,
		trace.WithAttributes(attrs...),
		trace.WithSpanKind(trace.SpanKindClient),
	)
	w.ops.Add(ctx, 1, metric.WithAttributes(attrs...))
	return ctx, span, attrs, time.Now()
}

func (w *InstrumentedWarehouse) done(ctx context.Context, span trace.Span, start time.Time, err error, attrs []attribute.KeyValue) {
	w.dur.Record(ctx, float64(time.Since(start).Milliseconds()), metric.WithAttributes(attrs...))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		w.errs.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
	span.End()
}

func (w *InstrumentedWarehouse) EnsureTable(ctx context.Context, table string, schema warehouse.Schema) error {
	ctx, span, attrs, start := w.op(ctx, "ensure_table", table)
	err := w.inner.EnsureTable(ctx, table, schema)
	w.done(ctx, span, start, err, attrs)
	return err
}

func (w *InstrumentedWarehouse) DeleteWhere(ctx context.Context, table string, pred warehouse.Predicate) (int64, error) {
	ctx, span, attrs, start := w.op(ctx, "delete", table)
	n, err := w.inner.DeleteWhere(ctx, table, pred)
	span.SetAttributes(attribute.Int64("db.rows_affected", n))
	w.rows.Add(ctx, n, metric.WithAttributes(attrs...))
	w.done(ctx, span, start, err, attrs)
	return n, err
}

func (w *InstrumentedWarehouse) AppendRows(ctx context.Context, table string, schema warehouse.Schema, rows []warehouse.Row) (int64, error) {
	ctx, span, attrs, start := w.op(ctx, "append", table)
	n, err := w.inner.AppendRows(ctx, table, schema, rows)
	span.SetAttributes(attribute.Int64("db.rows_affected", n))
	w.rows.Add(ctx, n, metric.WithAttributes(attrs...))
	w.done(ctx, span, start, err, attrs)
	return n, err
}

func (w *InstrumentedWarehouse) DistinctValues(ctx context.Context, table, column string, pred warehouse.Predicate) ([]string, error) {
	ctx, span, attrs, start := w.op(ctx, "distinct", table)
	vals, err := w.inner.DistinctValues(ctx, table, column, pred)
	span.SetAttributes(attribute.Int("db.values", len(vals)))
	w.done(ctx, span, start, err, attrs)
	return vals, err
}

func (w *InstrumentedWarehouse) Close() error {
	return w.inner.Close()
}
