package comparison

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNoKeyColumns is returned when Compare is called without key columns.
var ErrNoKeyColumns = errors.New("at least one key column is required")

// SchemaError is the fatal, pre-row-processing validation failure: a key
// column is missing from one or both snapshots, the two column sets are not
// equal, or a comparable column name would make diff_cols ambiguous.
// The message names the offending columns and sides so the upstream extract
// can be fixed.
type SchemaError struct {
	// MissingKey is set when a requested key column is absent.
	MissingKey     string
	MissingKeyFrom string // "v1", "v2" or "both v1 and v2"

	// MissingInV1/MissingInV2 list columns present on one side only,
	// in the source dataset's column order.
	MissingInV1 []string
	MissingInV2 []string

	// InvalidNames lists comparable columns containing the diff_cols
	// delimiter.
	InvalidNames []string
}

func (e *SchemaError) Error() string {
	switch {
	case e.MissingKey != "":
		return fmt.Sprintf("key column %q does not exist in %s", e.MissingKey, e.MissingKeyFrom)
	case len(e.InvalidNames) > 0:
		return fmt.Sprintf("column names must not contain %q: %s",
			diffColumnsDelimiter, strings.Join(e.InvalidNames, " "))
	default:
		var parts []string
		if len(e.MissingInV2) > 0 {
			parts = append(parts, fmt.Sprintf("missing in v2: %s", strings.Join(e.MissingInV2, ", ")))
		}
		if len(e.MissingInV1) > 0 {
			parts = append(parts, fmt.Sprintf("missing in v1: %s", strings.Join(e.MissingInV1, ", ")))
		}
		return "column sets do not match (" + strings.Join(parts, "; ") + ")"
	}
}

// DuplicateKeyError is returned in strict mode when a key tuple occurs more
// than once within a single snapshot. Without strict mode duplicates
// participate independently in alignment (cross-product semantics).
type DuplicateKeyError struct {
	Side  string // "v1" or "v2"
	Key   []string
	Count int
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("duplicate key tuple [%s] occurs %d times in %s",
		strings.Join(e.Key, ", "), e.Count, e.Side)
}
