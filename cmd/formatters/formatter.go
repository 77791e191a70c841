// Package formatters reads and writes tabular snapshots in the supported
// file formats. Unlike generic exporters, column order is contractual here:
// writers emit columns exactly in the order given, because the comparison
// result layouts (keys, diff_cols, v1 columns, v2 columns) are part of the
// tool's output contract. Values travel as raw text so that the comparison
// core's exact-equality semantics survive the I/O layer.
package formatters

import (
	"fmt"
	"io"
)

// Format type constants
const (
	FormatCSV     = "csv"
	FormatJSONL   = "jsonl"
	FormatParquet = "parquet"
)

// Writer writes rows one at a time in a target format.
type Writer interface {
	// WriteRow writes a single row. Missing columns are written empty.
	WriteRow(row map[string]string) error

	// Close flushes any buffered output.
	Close() error
}

// Formatter creates writers for one output format.
type Formatter interface {
	// NewWriter creates a writer emitting the given columns in order.
	NewWriter(w io.Writer, columns []string) (Writer, error)

	// Extension returns the file extension for this format (e.g. ".csv")
	Extension() string

	// MIMEType returns the MIME type for this format
	MIMEType() string
}

// Reader reads a whole snapshot: its column layout and all rows.
type Reader interface {
	ReadAll() (columns []string, rows []map[string]string, err error)
}

// GetFormatter returns the formatter for the named output format.
func GetFormatter(format string) (Formatter, error) {
	switch format {
	case FormatCSV:
		return NewCSVFormatter(), nil
	case FormatJSONL:
		return NewJSONLFormatter(), nil
	case FormatParquet:
		return NewParquetFormatter(), nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}

// GetFormatterWithCompression returns the formatter for the named format,
// configured for internal compression where the format supports it.
// Only Parquet compresses internally; CSV and JSONL rely on an outer
// compression layer.
func GetFormatterWithCompression(format, compression string) (Formatter, error) {
	if format == FormatParquet {
		return NewParquetFormatterWithCompression(compression), nil
	}
	return GetFormatter(format)
}

// GetReader returns a reader for the named input format.
func GetReader(format string, r io.Reader) (Reader, error) {
	switch format {
	case FormatCSV:
		return NewCSVReader(r), nil
	case FormatJSONL:
		return NewJSONLReader(r), nil
	case FormatParquet:
		return NewParquetReader(r)
	default:
		return nil, fmt.Errorf("unsupported input format: %s", format)
	}
}

// UsesInternalCompression returns true if the format handles compression
// internally and must not be wrapped in an outer compression layer.
func UsesInternalCompression(format string) bool {
	return format == FormatParquet
}
