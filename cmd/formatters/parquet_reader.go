package formatters

import (
	"bytes"
	"fmt"
	"io"
	"strconv"

	"github.com/parquet-go/parquet-go"
)

// ParquetReader reads a Parquet snapshot. Typed columns are rendered to
// text with strconv so files produced by other tools remain comparable,
// though exact-text fidelity is only guaranteed for string columns (which
// is what this tool itself writes).
// Parquet requires io.ReaderAt, so the whole file is read into memory.
type ParquetReader struct {
	file *parquet.File
}

// NewParquetReader creates a new Parquet reader
func NewParquetReader(r io.Reader) (*ParquetReader, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read parquet data: %w", err)
	}

	file, err := parquet.OpenFile(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet file: %w", err)
	}

	return &ParquetReader{file: file}, nil
}

// ReadAll reads the column layout and every row.
func (r *ParquetReader) ReadAll() ([]string, []map[string]string, error) {
	schema := r.file.Schema()
	columnPaths := schema.Columns()

	// Flatten column paths; nested columns keep their leaf name.
	columns := make([]string, len(columnPaths))
	for i, path := range columnPaths {
		if len(path) > 0 {
			columns[i] = path[len(path)-1]
		}
	}

	var rows []map[string]string
	for _, rowGroup := range r.file.RowGroups() {
		rowReader := rowGroup.Rows()

		const batchSize = 1000
		for {
			batch := make([]parquet.Row, batchSize)
			n, err := rowReader.ReadRows(batch)
			for idx := 0; idx < n; idx++ {
				row := make(map[string]string, len(columns))
				for i, val := range batch[idx] {
					if i < len(columns) {
						row[columns[i]] = parquetValueText(val)
					}
				}
				rows = append(rows, row)
			}
			if err == io.EOF || n < batchSize {
				break
			}
			if err != nil {
				rowReader.Close()
				return nil, nil, fmt.Errorf("failed to read parquet rows: %w", err)
			}
		}

		if err := rowReader.Close(); err != nil {
			return nil, nil, fmt.Errorf("failed to close parquet row reader: %w", err)
		}
	}

	return columns, rows, nil
}

// parquetValueText renders one parquet value as text. Nulls become empty.
func parquetValueText(val parquet.Value) string {
	if val.IsNull() {
		return ""
	}
	switch val.Kind() {
	case parquet.Boolean:
		return strconv.FormatBool(val.Boolean())
	case parquet.Int32:
		return strconv.FormatInt(int64(val.Int32()), 10)
	case parquet.Int64:
		return strconv.FormatInt(val.Int64(), 10)
	case parquet.Float:
		return strconv.FormatFloat(float64(val.Float()), 'g', -1, 32)
	case parquet.Double:
		return strconv.FormatFloat(val.Double(), 'g', -1, 64)
	default:
		return string(val.ByteArray())
	}
}
