package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/foospace/sprintsync/internal/config"
	"github.com/foospace/sprintsync/internal/types"
	"github.com/foospace/sprintsync/internal/ui"
)

// hints maps the start of a run error to what the operator can do about it.
var hints = []struct {
	prefix string
	hint   string
}{
	{"'env' parameter is required", "Pass --env; 'sprintsync envs' lists the configured environments"},
	{config.ConfigsEnvVar + " is not set", "Export " + config.ConfigsEnvVar + " or add an environments section to sprintsync.yaml"},
	{"Error during configuration setup", config.ConfigsEnvVar + " must be a JSON object keyed by environment name"},
	{"Config for env", "Environment names are case-insensitive; 'sprintsync envs' lists them"},
	{"Invalid mode", "Use --mode current or --mode backfill"},
	{"Token environment variable", "Set the token in the shell or in a .env file (see --env-file)"},
	{"Missing one or more database IDs", "Each environment needs SPRINT_DB_ID, TASK_DB_ID and PROJECT_DB_ID"},
	{"Warehouse client initialization failed", "Check the warehouse section ('sprintsync envs'), or use --dry-run to sync without writing"},
}

// hintFor returns the operator hint for a run that could not start.
func hintFor(err error) string {
	var ce *types.ConfigError
	if !errors.As(err, &ce) {
		return ""
	}
	for _, h := range hints {
		if strings.HasPrefix(ce.Msg, h.prefix) {
			return h.hint
		}
	}
	return ""
}

// writeRunError prints err and, when one applies, a hint.
func writeRunError(w io.Writer, err error) {
	fmt.Fprintf(w, "%s %v\n", ui.RenderFail("Error:"), err)
	if hint := hintFor(err); hint != "" {
		fmt.Fprintf(w, "%s %s\n", ui.RenderMuted("Hint:"), hint)
	}
}

// exitRunError reports err on stderr and exits 1.
func exitRunError(err error) {
	writeRunError(os.Stderr, err)
	os.Exit(1)
}

// outputJSON writes v to stdout as indented JSON.
func outputJSON(v interface{}) {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		exitRunError(fmt.Errorf("encode JSON: %w", err))
	}
}
