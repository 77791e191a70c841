package formatters

import (
	"fmt"
	"io"

	"github.com/parquet-go/parquet-go"
)

// ParquetFormatter handles Parquet output. Every column is written as an
// optional string, since snapshot values are opaque text. Note that Parquet
// group schemas order fields internally, so the physical column order in the
// file may not match the logical layout; readers restore values by name.
type ParquetFormatter struct {
	compression string
}

// NewParquetFormatter creates a new Parquet formatter
func NewParquetFormatter() *ParquetFormatter {
	return &ParquetFormatter{
		compression: "snappy", // Default Parquet compression
	}
}

// NewParquetFormatterWithCompression creates a Parquet formatter with the
// given internal compression codec.
func NewParquetFormatterWithCompression(compression string) *ParquetFormatter {
	return &ParquetFormatter{
		compression: compression,
	}
}

// NewWriter creates a Parquet row writer for the given columns.
func (f *ParquetFormatter) NewWriter(w io.Writer, columns []string) (Writer, error) {
	fields := make(parquet.Group, len(columns))
	for _, col := range columns {
		fields[col] = parquet.Optional(parquet.String())
	}
	schema := parquet.NewSchema("snapshot", fields)

	var codec parquet.WriterOption
	switch f.compression {
	case "zstd":
		codec = parquet.Compression(&parquet.Zstd)
	case "gzip":
		codec = parquet.Compression(&parquet.Gzip)
	case "lz4":
		codec = parquet.Compression(&parquet.Lz4Raw)
	case "none":
		codec = parquet.Compression(&parquet.Uncompressed)
	default:
		// Snappy is the Parquet ecosystem default.
		codec = parquet.Compression(&parquet.Snappy)
	}

	return &parquetRowWriter{
		writer: parquet.NewGenericWriter[map[string]any](w, schema, codec),
	}, nil
}

// Extension returns the file extension for Parquet files
func (f *ParquetFormatter) Extension() string {
	return ".parquet"
}

// MIMEType returns the MIME type for Parquet
func (f *ParquetFormatter) MIMEType() string {
	return "application/vnd.apache.parquet"
}

type parquetRowWriter struct {
	writer *parquet.GenericWriter[map[string]any]
}

// WriteRow writes one row. All values go in as strings.
func (w *parquetRowWriter) WriteRow(row map[string]string) error {
	generic := make(map[string]any, len(row))
	for k, v := range row {
		generic[k] = v
	}

	if _, err := w.writer.Write([]map[string]any{generic}); err != nil {
		return fmt.Errorf("failed to write parquet row: %w", err)
	}
	return nil
}

// Close flushes buffered row groups and writes the file footer.
func (w *parquetRowWriter) Close() error {
	if err := w.writer.Close(); err != nil {
		return fmt.Errorf("failed to close parquet writer: %w", err)
	}
	return nil
}
