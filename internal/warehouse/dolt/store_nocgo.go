//go:build !cgo

package dolt

import (
	"context"
	"errors"
	"fmt"
)

var errNoCGO = errors.New("dolt: this binary was built without CGO support; rebuild with CGO_ENABLED=1")

// newEmbeddedMode returns an error in non-CGO builds. Use a dolt sql-server instead.
func newEmbeddedMode(_ context.Context, _ *Config) (*Store, error) {
	return nil, fmt.Errorf("embedded warehouse requires CGO: %w", errNoCGO)
}
