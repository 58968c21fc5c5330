package pipeline

import (
	"fmt"
	"strings"
)

// SchemaError reports canonical fields that could not be resolved against the
// batch's column set. It is fatal: the run aborts before any row processing.
type SchemaError struct {
	Missing []Field  // required canonical fields with no matching column
	Columns []string // columns that were available, for the diagnostic
}

func (e *SchemaError) Error() string {
	names := make([]string, len(e.Missing))
	for i, f := range e.Missing {
		names[i] = string(f)
	}
	msg := fmt.Sprintf("unresolved required columns: %s", strings.Join(names, ", "))
	if len(e.Columns) > 0 {
		msg += fmt.Sprintf(" (available: %s)", strings.Join(e.Columns, ", "))
	}
	return msg
}

// ConfigError reports a location with no timezone entry. It is fatal: the run
// aborts rather than guess a store's timezone.
type ConfigError struct {
	LocationID string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("no timezone configured for location %q", e.LocationID)
}

// coercionError reports a single row that could not be parsed into typed
// fields. It quarantines the row; the run continues.
type coercionError struct {
	Field Field
	Value string
	Err   error
}

func (e *coercionError) Error() string {
	if e.Value != "" {
		return fmt.Sprintf("%s: invalid value %q: %v", e.Field, e.Value, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

func (e *coercionError) Unwrap() error { return e.Err }
