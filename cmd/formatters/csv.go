package formatters

import (
	"encoding/csv"
	"fmt"
	"io"
)

// CSVFormatter handles CSV output with an explicit column order.
type CSVFormatter struct{}

// NewCSVFormatter creates a new CSV formatter
func NewCSVFormatter() *CSVFormatter {
	return &CSVFormatter{}
}

// NewWriter creates a CSV writer and emits the header row immediately.
func (f *CSVFormatter) NewWriter(w io.Writer, columns []string) (Writer, error) {
	csvWriter := csv.NewWriter(w)

	if err := csvWriter.Write(columns); err != nil {
		return nil, fmt.Errorf("failed to write CSV header: %w", err)
	}

	return &csvRowWriter{
		writer:  csvWriter,
		columns: columns,
	}, nil
}

// Extension returns the file extension for CSV files
func (f *CSVFormatter) Extension() string {
	return ".csv"
}

// MIMEType returns the MIME type for CSV
func (f *CSVFormatter) MIMEType() string {
	return "text/csv"
}

type csvRowWriter struct {
	writer  *csv.Writer
	columns []string
}

// WriteRow writes one row in column order. Absent columns become empty
// fields.
func (w *csvRowWriter) WriteRow(row map[string]string) error {
	record := make([]string, len(w.columns))
	for i, col := range w.columns {
		record[i] = row[col]
	}

	if err := w.writer.Write(record); err != nil {
		return fmt.Errorf("failed to write CSV record: %w", err)
	}
	return nil
}

// Close flushes the CSV writer.
func (w *csvRowWriter) Close() error {
	w.writer.Flush()
	if err := w.writer.Error(); err != nil {
		return fmt.Errorf("CSV writer error: %w", err)
	}
	return nil
}
