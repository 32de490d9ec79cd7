package factory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foospace/sprintsync/internal/warehouse/memory"
)

func TestOpenMemory(t *testing.T) {
	wh, err := Open(context.Background(), Config{Driver: BackendMemory})
	require.NoError(t, err)
	assert.IsType(t, &memory.Store{}, wh)
	assert.NoError(t, wh.Close())
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), Config{Driver: "bigquery"})
	assert.ErrorContains(t, err, "unknown warehouse driver")
}

func TestOpenEmbeddedNeedsPath(t *testing.T) {
	_, err := Open(context.Background(), Config{Driver: BackendDoltEmbedded})
	assert.ErrorContains(t, err, "warehouse.path")
}
