package formatters

import (
	"encoding/csv"
	"fmt"
	"io"
)

// CSVReader reads a CSV snapshot. The first record is the header and defines
// the column layout; every field is kept as its raw text. No type sniffing
// happens here on purpose: re-rendering "3.0" as a float would defeat the
// exact-equality comparison downstream.
type CSVReader struct {
	reader *csv.Reader
}

// NewCSVReader creates a new CSV reader
func NewCSVReader(r io.Reader) *CSVReader {
	return &CSVReader{
		reader: csv.NewReader(r),
	}
}

// ReadAll reads the header and every data row.
func (r *CSVReader) ReadAll() ([]string, []map[string]string, error) {
	headers, err := r.reader.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	var rows []map[string]string
	for {
		record, err := r.reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read CSV record: %w", err)
		}

		row := make(map[string]string, len(headers))
		for i, value := range record {
			if i >= len(headers) {
				break
			}
			row[headers[i]] = value
		}
		rows = append(rows, row)
	}

	return headers, rows, nil
}
