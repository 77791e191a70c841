package formatters

import (
	"encoding/json"
	"fmt"
	"io"
)

// JSONLFormatter handles JSONL (JSON Lines) output, one object per row.
// Keys are emitted in column order so the files stay diffable by eye.
type JSONLFormatter struct{}

// NewJSONLFormatter creates a new JSONL formatter
func NewJSONLFormatter() *JSONLFormatter {
	return &JSONLFormatter{}
}

// NewWriter creates a JSONL row writer.
func (f *JSONLFormatter) NewWriter(w io.Writer, columns []string) (Writer, error) {
	return &jsonlRowWriter{
		writer:  w,
		columns: columns,
	}, nil
}

// Extension returns the file extension for JSONL files
func (f *JSONLFormatter) Extension() string {
	return ".jsonl"
}

// MIMEType returns the MIME type for JSONL
func (f *JSONLFormatter) MIMEType() string {
	return "application/x-ndjson"
}

type jsonlRowWriter struct {
	writer  io.Writer
	columns []string
}

// WriteRow writes one row as a JSON object with keys in column order.
// encoding/json would sort map keys, so the object is built by hand from
// individually encoded values.
func (w *jsonlRowWriter) WriteRow(row map[string]string) error {
	buf := make([]byte, 0, 64)
	buf = append(buf, '{')
	for i, col := range w.columns {
		if i > 0 {
			buf = append(buf, ',')
		}
		key, err := json.Marshal(col)
		if err != nil {
			return err
		}
		val, err := json.Marshal(row[col])
		if err != nil {
			return err
		}
		buf = append(buf, key...)
		buf = append(buf, ':')
		buf = append(buf, val...)
	}
	buf = append(buf, '}', '\n')

	if _, err := w.writer.Write(buf); err != nil {
		return fmt.Errorf("failed to write JSONL record: %w", err)
	}
	return nil
}

// Close finalizes the JSONL output (no-op, JSONL has no footer).
func (w *jsonlRowWriter) Close() error {
	return nil
}
