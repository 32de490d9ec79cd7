package telemetry

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"

	"github.com/foospace/sprintsync/internal/warehouse"
	"github.com/foospace/sprintsync/internal/warehouse/memory"
)

// stdoutTo redirects stdout exports for the duration of a test.
func stdoutTo(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := stdoutWriter
	stdoutWriter = &buf
	t.Cleanup(func() {
		Shutdown(context.Background())
		stdoutWriter = prev
	})
	return &buf
}

func TestInitDisabled(t *testing.T) {
	require.NoError(t, Init(context.Background(), Options{}, Service{Name: "sprintsync"}))
	assert.False(t, Enabled())

	inner := memory.New()
	assert.Same(t, inner, WrapWarehouse(inner))
}

func TestInitEnabledWithoutExporter(t *testing.T) {
	err := Init(context.Background(), Options{Enabled: true}, Service{Name: "sprintsync"})
	assert.ErrorIs(t, err, ErrNoExporter)
	assert.False(t, Enabled())
}

func TestServiceAttributes(t *testing.T) {
	attrs := attribute.NewSet(serviceAttributes(Service{
		Name:         "sprintsync",
		Version:      "1.2.3",
		Source:       "notion",
		Warehouse:    "dolt",
		Environments: []string{"dti", "ops"},
	})...)

	v, ok := attrs.Value("service.name")
	require.True(t, ok)
	assert.Equal(t, "sprintsync", v.AsString())
	v, _ = attrs.Value("sprintsync.source")
	assert.Equal(t, "notion", v.AsString())
	v, _ = attrs.Value("sprintsync.warehouse.driver")
	assert.Equal(t, "dolt", v.AsString())
	v, _ = attrs.Value("sprintsync.environments")
	assert.Equal(t, []string{"dti", "ops"}, v.AsStringSlice())

	bare := attribute.NewSet(serviceAttributes(Service{Name: "sprintsync"})...)
	_, ok = bare.Value("sprintsync.source")
	assert.False(t, ok)
}

func TestInstrumentedWarehouseDelegatesAndTraces(t *testing.T) {
	out := stdoutTo(t)
	ctx := context.Background()
	require.NoError(t, Init(ctx, Options{Enabled: true, Stdout: true}, Service{Name: "sprintsync-test", Version: "dev", Source: "notion"}))
	require.True(t, Enabled())

	inner := memory.New()
	w, ok := WrapWarehouse(inner).(*InstrumentedWarehouse)
	require.True(t, ok, "enabled telemetry should wrap the warehouse")

	require.NoError(t, w.EnsureTable(ctx, "t", warehouse.CompletedTasksSchema))
	_, err := w.AppendRows(ctx, "t", warehouse.CompletedTasksSchema, []warehouse.Row{{"A", "r", "S1", "Ana", "n", 1, "D", nil}})
	require.NoError(t, err)

	vals, err := w.DistinctValues(ctx, "t", warehouse.ColTaskID, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, vals)

	n, err := w.DeleteWhere(ctx, "t", nil)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	assert.NoError(t, w.Close())

	assert.Contains(t, out.String(), "sprintsync.source")
}
