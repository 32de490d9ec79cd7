package main

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/foospace/sprintsync/internal/types"
)

func TestHintFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"missing env", types.RequestError("'env' parameter is required."), "Pass --env"},
		{"unknown env", types.RequestError("Config for env '%s' not found.", "x"), "case-insensitive"},
		{"unset token", types.DeploymentError("Token environment variable '%s' is not set.", "T"), "--env-file"},
		{"warehouse down", fmt.Errorf("run: %w", types.DeploymentError("Warehouse client initialization failed: refused")), "--dry-run"},
		{"not a config error", errors.New("Config for env"), ""},
		{"unmatched config error", types.DeploymentError("something else"), ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := hintFor(tt.err)
			if tt.want == "" {
				if got != "" {
					t.Errorf("hintFor() = %q, want no hint", got)
				}
				return
			}
			if !strings.Contains(got, tt.want) {
				t.Errorf("hintFor() = %q, want it to mention %q", got, tt.want)
			}
		})
	}
}

func TestWriteRunError(t *testing.T) {
	var buf bytes.Buffer
	writeRunError(&buf, types.RequestError("Invalid mode '%s'. Use 'current' or 'backfill'.", "weekly"))
	out := buf.String()
	if !strings.Contains(out, "Invalid mode 'weekly'") {
		t.Errorf("missing error text: %q", out)
	}
	if !strings.Contains(out, "Hint:") || !strings.Contains(out, "Use --mode current or --mode backfill") {
		t.Errorf("missing hint: %q", out)
	}
}
