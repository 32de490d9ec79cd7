package types

import (
	"errors"
	"fmt"
	"net/http"
)

// ConfigError reports a bad trigger parameter or a broken environment
// configuration. It aborts the whole run before any sprint is touched.
type ConfigError struct {
	Msg string
	// Caller is true when the request itself is at fault (HTTP 400) rather
	// than the deployment (HTTP 500).
	Caller bool
}

func (e *ConfigError) Error() string {
	return e.Msg
}

// HTTPStatus maps the error to the trigger's response code.
func (e *ConfigError) HTTPStatus() int {
	if e.Caller {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// RequestError builds a ConfigError blamed on the caller.
func RequestError(format string, args ...any) *ConfigError {
	return &ConfigError{Msg: fmt.Sprintf(format, args...), Caller: true}
}

// DeploymentError builds a ConfigError blamed on the deployment.
func DeploymentError(format string, args ...any) *ConfigError {
	return &ConfigError{Msg: fmt.Sprintf(format, args...)}
}

// InvalidSprintWindowError reports missing, unparseable or inverted sprint dates.
type InvalidSprintWindowError struct {
	Sprint string
	Start  string
	End    string
	Reason string
}

func (e *InvalidSprintWindowError) Error() string {
	return fmt.Sprintf("sprint %q has an invalid window (start %q, end %q): %s", e.Sprint, e.Start, e.End, e.Reason)
}

// FetchError wraps a failed call to the record database.
type FetchError struct {
	Op  string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Op, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// UploadError wraps a failed warehouse write. Rows already deleted for the
// partition are not restored.
type UploadError struct {
	Table string
	Stage string // "delete" or "append"
	Err   error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload %s (%s): %v", e.Table, e.Stage, e.Err)
}

func (e *UploadError) Unwrap() error {
	return e.Err
}

// ErrPageNotFound is returned by title lookups for pages that do not exist
// or cannot be read with the configured credentials.
var ErrPageNotFound = errors.New("page not found")
