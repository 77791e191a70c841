package formatters

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// JSONLReader reads a JSONL snapshot, one JSON object per line. The column
// layout is the key order of the first line; later lines must use the same
// key set. Numbers are decoded as json.Number so their exact source text is
// preserved for comparison.
type JSONLReader struct {
	scanner *bufio.Scanner
}

// NewJSONLReader creates a new JSONL reader
func NewJSONLReader(r io.Reader) *JSONLReader {
	scanner := bufio.NewScanner(r)
	// Allow long lines (wide exports easily exceed the 64KB default).
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	return &JSONLReader{scanner: scanner}
}

// ReadAll reads every line into rows, deriving the column layout from the
// first object's key order. Every later line must carry exactly the same key
// set; a divergent line fails the whole read rather than silently producing
// rows with missing or extra columns.
func (r *JSONLReader) ReadAll() ([]string, []map[string]string, error) {
	var columns []string
	var columnSet map[string]struct{}
	var rows []map[string]string

	lineNo := 0
	for r.scanner.Scan() {
		lineNo++
		line := bytes.TrimSpace(r.scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		cols, row, err := parseJSONLine(line)
		if err != nil {
			return nil, nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		if columns == nil {
			columns = cols
			columnSet = make(map[string]struct{}, len(cols))
			for _, c := range cols {
				columnSet[c] = struct{}{}
			}
		} else if err := checkKeySet(cols, columns, columnSet); err != nil {
			return nil, nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		rows = append(rows, row)
	}
	if err := r.scanner.Err(); err != nil {
		return nil, nil, fmt.Errorf("failed to read JSONL stream: %w", err)
	}

	return columns, rows, nil
}

// checkKeySet verifies a line's keys against the first line's key set.
func checkKeySet(cols, columns []string, columnSet map[string]struct{}) error {
	seen := make(map[string]struct{}, len(cols))
	for _, c := range cols {
		if _, ok := columnSet[c]; !ok {
			return fmt.Errorf("unexpected key %q not present on line 1", c)
		}
		seen[c] = struct{}{}
	}
	for _, c := range columns {
		if _, ok := seen[c]; !ok {
			return fmt.Errorf("missing key %q declared on line 1", c)
		}
	}
	return nil
}

// parseJSONLine decodes one object, keeping the key order and rendering each
// scalar as text: strings as-is, numbers by their exact literal, booleans as
// true/false, null as empty.
func parseJSONLine(line []byte) ([]string, map[string]string, error) {
	dec := json.NewDecoder(bytes.NewReader(line))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, nil, fmt.Errorf("invalid JSON: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, nil, fmt.Errorf("expected JSON object, got %v", tok)
	}

	var columns []string
	row := make(map[string]string)
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, nil, fmt.Errorf("invalid JSON key: %w", err)
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, nil, fmt.Errorf("unexpected JSON key token: %v", keyTok)
		}

		var value interface{}
		if err := dec.Decode(&value); err != nil {
			return nil, nil, fmt.Errorf("invalid JSON value for %q: %w", key, err)
		}

		text, err := jsonValueText(value)
		if err != nil {
			return nil, nil, fmt.Errorf("column %q: %w", key, err)
		}

		columns = append(columns, key)
		row[key] = text
	}

	return columns, row, nil
}

func jsonValueText(value interface{}) (string, error) {
	switch v := value.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case json.Number:
		return v.String(), nil
	case bool:
		if v {
			return "true", nil
		}
		return "false", nil
	default:
		// Nested arrays/objects are opaque; keep their JSON text.
		data, err := json.Marshal(v)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
}
