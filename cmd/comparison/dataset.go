package comparison

// Row maps a column name to the value's exact textual representation.
// Values are never coerced or normalized; "3" and "3.0" are different values.
type Row map[string]string

// Dataset is an in-memory tabular snapshot with a fixed column order.
// Row order is significant: result partitions preserve it.
type Dataset struct {
	Columns []string
	Rows    []Row
}

// NewDataset creates a dataset with the given column layout and no rows.
func NewDataset(columns []string) *Dataset {
	return &Dataset{
		Columns: append([]string(nil), columns...),
	}
}

// Append adds a row to the dataset.
func (d *Dataset) Append(row Row) {
	d.Rows = append(d.Rows, row)
}

// Len returns the number of rows.
func (d *Dataset) Len() int {
	return len(d.Rows)
}

// HasColumn reports whether the dataset's layout contains the named column.
func (d *Dataset) HasColumn(name string) bool {
	for _, c := range d.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// cloneRow copies a row so result datasets never alias input rows.
func cloneRow(row Row) Row {
	out := make(Row, len(row))
	for k, v := range row {
		out[k] = v
	}
	return out
}

// comparableColumns returns the columns to compare: every column in the
// layout that is not a key column, in layout order.
func comparableColumns(columns, keys []string) []string {
	keySet := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		keySet[k] = struct{}{}
	}

	out := make([]string, 0, len(columns))
	for _, c := range columns {
		if _, isKey := keySet[c]; !isKey {
			out = append(out, c)
		}
	}
	return out
}
