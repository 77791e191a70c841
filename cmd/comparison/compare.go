// Package comparison partitions two snapshots of the same tabular dataset,
// keyed by one or more columns, into four result sets: rows that match
// completely, rows that differ (with the differing columns attributed),
// rows only present in the new snapshot, and rows only present in the old
// one. It operates purely in memory and performs no I/O.
package comparison

import "strings"

// DiffColumnsField is the synthetic column added to the differing partition,
// holding the comma-joined names of the columns whose values disagree.
const DiffColumnsField = "diff_cols"

// diffColumnsDelimiter joins differing column names inside DiffColumnsField.
// Comparable column names must not contain it; validateSchema enforces that.
const diffColumnsDelimiter = ","

// Suffixes applied to comparable columns in the differing partition.
const (
	oldSuffix = "_v1"
	newSuffix = "_v2"
)

// keyTupleSeparator joins key values into a lookup key. U+001F never occurs
// in sane column values and keeps ("a","bc") distinct from ("ab","c").
const keyTupleSeparator = "\x1f"

// Options tunes comparison behavior.
type Options struct {
	// StrictKeys makes Compare fail with a DuplicateKeyError when a key
	// tuple occurs more than once within a single snapshot, instead of
	// the default cross-product alignment.
	StrictKeys bool
}

// Counts holds the per-partition row counts.
type Counts struct {
	Identical int
	Differing int
	OnlyInNew int
	OnlyInOld int
}

// Result bundles the four partitions. Identical and OnlyInOld reuse the old
// snapshot's column layout, OnlyInNew the new snapshot's. Differing uses the
// key columns, then DiffColumnsField, then every comparable column suffixed
// _v1, then suffixed _v2.
type Result struct {
	Identical *Dataset
	Differing *Dataset
	OnlyInNew *Dataset
	OnlyInOld *Dataset
	Counts    Counts
}

// pair is one aligned (old row, new row) index pair.
type pair struct {
	v1 int
	v2 int
}

// alignment groups rows by key-tuple membership.
type alignment struct {
	pairs  []pair // old-side input order; new-side order within a key
	v1Only []int  // old-side input order
	v2Only []int  // new-side input order
}

// Compare partitions the v2 snapshot against the v1 snapshot using the given
// key columns. It validates both schemas up front and either fully succeeds
// or returns an error without partial results. The inputs are not modified.
func Compare(v1, v2 *Dataset, keys []string, opts Options) (*Result, error) {
	if len(keys) == 0 {
		return nil, ErrNoKeyColumns
	}
	if err := validateSchema(v1, v2, keys); err != nil {
		return nil, err
	}

	al, err := align(v1, v2, keys, opts)
	if err != nil {
		return nil, err
	}

	comparable := comparableColumns(v1.Columns, keys)
	return assemble(v1, v2, keys, comparable, al), nil
}

// validateSchema checks, before any row work, that every key column exists
// on both sides, that the two column sets are equal ignoring order, and that
// no comparable column name contains the diff_cols delimiter.
func validateSchema(v1, v2 *Dataset, keys []string) error {
	for _, k := range keys {
		inV1, inV2 := v1.HasColumn(k), v2.HasColumn(k)
		if inV1 && inV2 {
			continue
		}
		side := "both v1 and v2"
		switch {
		case inV2:
			side = "v1"
		case inV1:
			side = "v2"
		}
		return &SchemaError{MissingKey: k, MissingKeyFrom: side}
	}

	missingInV2 := columnsNotIn(v1.Columns, v2.Columns)
	missingInV1 := columnsNotIn(v2.Columns, v1.Columns)
	if len(missingInV1) > 0 || len(missingInV2) > 0 {
		return &SchemaError{MissingInV1: missingInV1, MissingInV2: missingInV2}
	}

	var invalid []string
	for _, c := range comparableColumns(v1.Columns, keys) {
		if strings.Contains(c, diffColumnsDelimiter) {
			invalid = append(invalid, c)
		}
	}
	if len(invalid) > 0 {
		return &SchemaError{InvalidNames: invalid}
	}

	return nil
}

// columnsNotIn returns the columns of a that are absent from b, in a's order.
func columnsNotIn(a, b []string) []string {
	set := make(map[string]struct{}, len(b))
	for _, c := range b {
		set[c] = struct{}{}
	}

	var out []string
	for _, c := range a {
		if _, ok := set[c]; !ok {
			out = append(out, c)
		}
	}
	return out
}

// keyTuple builds the normalized lookup key for a row. All key values are
// compared as text, so numeric keys match across differently typed sources.
func keyTuple(row Row, keys []string) string {
	vals := make([]string, len(keys))
	for i, k := range keys {
		vals[i] = row[k]
	}
	return strings.Join(vals, keyTupleSeparator)
}

// keyValues extracts the raw key values of a row, for error reporting.
func keyValues(row Row, keys []string) []string {
	vals := make([]string, len(keys))
	for i, k := range keys {
		vals[i] = row[k]
	}
	return vals
}

// align performs the hash-based equi-join on key tuples. Each occurrence of
// a duplicated key participates independently unless strict mode is on.
func align(v1, v2 *Dataset, keys []string, opts Options) (*alignment, error) {
	v2Index := make(map[string][]int, len(v2.Rows))
	for i, row := range v2.Rows {
		kt := keyTuple(row, keys)
		v2Index[kt] = append(v2Index[kt], i)
		if opts.StrictKeys && len(v2Index[kt]) > 1 {
			return nil, &DuplicateKeyError{Side: "v2", Key: keyValues(row, keys), Count: len(v2Index[kt])}
		}
	}

	v1Seen := make(map[string]int, len(v1.Rows))
	al := &alignment{}
	for i, row := range v1.Rows {
		kt := keyTuple(row, keys)
		v1Seen[kt]++
		if opts.StrictKeys && v1Seen[kt] > 1 {
			return nil, &DuplicateKeyError{Side: "v1", Key: keyValues(row, keys), Count: v1Seen[kt]}
		}

		matches, ok := v2Index[kt]
		if !ok {
			al.v1Only = append(al.v1Only, i)
			continue
		}
		for _, j := range matches {
			al.pairs = append(al.pairs, pair{v1: i, v2: j})
		}
	}

	for j, row := range v2.Rows {
		if _, ok := v1Seen[keyTuple(row, keys)]; !ok {
			al.v2Only = append(al.v2Only, j)
		}
	}

	return al, nil
}

// differingColumns evaluates one aligned pair. It returns the comparable
// columns whose values disagree, in comparable-column order; an empty result
// means the pair is identical. Equality is exact text equality.
func differingColumns(v1Row, v2Row Row, comparable []string) []string {
	var diffs []string
	for _, c := range comparable {
		if v1Row[c] != v2Row[c] {
			diffs = append(diffs, c)
		}
	}
	return diffs
}

// assemble packages the aligned and solo row groups into the four result
// partitions with their contractual column layouts.
func assemble(v1, v2 *Dataset, keys, comparable []string, al *alignment) *Result {
	identical := NewDataset(v1.Columns)
	differing := NewDataset(differingLayout(keys, comparable))
	onlyInNew := NewDataset(v2.Columns)
	onlyInOld := NewDataset(v1.Columns)

	for _, p := range al.pairs {
		v1Row, v2Row := v1.Rows[p.v1], v2.Rows[p.v2]
		diffs := differingColumns(v1Row, v2Row, comparable)
		if len(diffs) == 0 {
			// Old and new agree on every comparable column, so the
			// old-side values stand for both.
			identical.Append(cloneRow(v1Row))
			continue
		}

		row := make(Row, len(differing.Columns))
		for _, k := range keys {
			row[k] = v1Row[k]
		}
		row[DiffColumnsField] = strings.Join(diffs, diffColumnsDelimiter)
		for _, c := range comparable {
			row[c+oldSuffix] = v1Row[c]
			row[c+newSuffix] = v2Row[c]
		}
		differing.Append(row)
	}

	for _, i := range al.v1Only {
		onlyInOld.Append(cloneRow(v1.Rows[i]))
	}
	for _, j := range al.v2Only {
		onlyInNew.Append(cloneRow(v2.Rows[j]))
	}

	return &Result{
		Identical: identical,
		Differing: differing,
		OnlyInNew: onlyInNew,
		OnlyInOld: onlyInOld,
		Counts: Counts{
			Identical: identical.Len(),
			Differing: differing.Len(),
			OnlyInNew: onlyInNew.Len(),
			OnlyInOld: onlyInOld.Len(),
		},
	}
}

// differingLayout is keys, then diff_cols, then old-side comparable columns,
// then new-side comparable columns.
func differingLayout(keys, comparable []string) []string {
	cols := make([]string, 0, len(keys)+1+2*len(comparable))
	cols = append(cols, keys...)
	cols = append(cols, DiffColumnsField)
	for _, c := range comparable {
		cols = append(cols, c+oldSuffix)
	}
	for _, c := range comparable {
		cols = append(cols, c+newSuffix)
	}
	return cols
}
