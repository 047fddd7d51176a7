// Package table provides an in-memory, string-valued table with an ordered
// column schema. Annotation spreadsheets, the merged observation table and the
// per-variant summary are all represented as a Table.
package table

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// ErrColumnNotFound is matched by ColumnError via errors.Is.
var ErrColumnNotFound = errors.New("column not found")

// ColumnError reports a structural problem with a table's columns.
type ColumnError struct {
	Column  string
	Message string
}

func (e *ColumnError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("column %q not found", e.Column)
	}
	return fmt.Sprintf("column %q: %s", e.Column, e.Message)
}

// Is implements errors.Is support for missing-column errors.
func (e *ColumnError) Is(target error) bool {
	return target == ErrColumnNotFound && e.Message == ""
}

// Table is an ordered sequence of rows sharing one column schema.
// A missing value is represented by the empty string.
type Table struct {
	Columns []string
	Rows    [][]string

	index map[string]int
}

// New creates an empty table with the given columns.
// Duplicate column names keep the index of their first occurrence.
func New(columns []string) *Table {
	t := &Table{Columns: slices.Clone(columns)}
	t.reindexColumns()
	return t
}

// UniqueColumns returns header names with every column addressable by name.
// A blank name at position i becomes "Unnamed: i" and a repeated name gets a
// ".1", ".2", ... suffix, the way pandas names spreadsheet headers.
func UniqueColumns(columns []string) []string {
	out := make([]string, len(columns))
	seen := make(map[string]bool, len(columns))
	counts := make(map[string]int)
	for i, c := range columns {
		if strings.TrimSpace(c) == "" {
			c = fmt.Sprintf("Unnamed: %d", i)
		}
		name := c
		for seen[name] {
			counts[c]++
			name = fmt.Sprintf("%s.%d", c, counts[c])
		}
		seen[name] = true
		out[i] = name
	}
	return out
}

func (t *Table) reindexColumns() {
	t.index = make(map[string]int, len(t.Columns))
	for i, c := range t.Columns {
		if _, ok := t.index[c]; !ok {
			t.index[c] = i
		}
	}
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.Rows)
}

// Append adds a row. The row must have exactly one value per column.
func (t *Table) Append(row []string) error {
	if len(row) != len(t.Columns) {
		return fmt.Errorf("row has %d values, table has %d columns", len(row), len(t.Columns))
	}
	t.Rows = append(t.Rows, row)
	return nil
}

// ColumnIndex returns the position of the named column, or -1.
func (t *Table) ColumnIndex(name string) int {
	if t.index == nil {
		t.reindexColumns()
	}
	if i, ok := t.index[name]; ok {
		return i
	}
	return -1
}

// HasColumn reports whether the table has the named column.
func (t *Table) HasColumn(name string) bool {
	return t.ColumnIndex(name) >= 0
}

// Require returns a *ColumnError for the first named column that is absent.
func (t *Table) Require(names ...string) error {
	for _, name := range names {
		if !t.HasColumn(name) {
			return &ColumnError{Column: name}
		}
	}
	return nil
}

// Column returns a copy of all values in the named column.
func (t *Table) Column(name string) ([]string, error) {
	i := t.ColumnIndex(name)
	if i < 0 {
		return nil, &ColumnError{Column: name}
	}
	values := make([]string, len(t.Rows))
	for r, row := range t.Rows {
		values[r] = row[i]
	}
	return values, nil
}

// Value returns the value of the named column in row r.
func (t *Table) Value(r int, name string) (string, error) {
	i := t.ColumnIndex(name)
	if i < 0 {
		return "", &ColumnError{Column: name}
	}
	return t.Rows[r][i], nil
}

// InsertColumn inserts a column at position pos holding value in every row.
func (t *Table) InsertColumn(pos int, name, value string) error {
	if pos < 0 || pos > len(t.Columns) {
		return fmt.Errorf("insert column %q: position %d out of range", name, pos)
	}
	if t.HasColumn(name) {
		return &ColumnError{Column: name, Message: "already exists"}
	}
	t.Columns = slices.Insert(t.Columns, pos, name)
	for r, row := range t.Rows {
		t.Rows[r] = slices.Insert(row, pos, value)
	}
	t.reindexColumns()
	return nil
}

// Reindex returns a new table with exactly the given columns, in order.
// Columns missing from t are filled with empty values; columns of t that are
// not listed are dropped.
func (t *Table) Reindex(columns []string) *Table {
	src := make([]int, len(columns))
	for i, c := range columns {
		src[i] = t.ColumnIndex(c)
	}

	out := New(columns)
	out.Rows = make([][]string, len(t.Rows))
	for r, row := range t.Rows {
		nr := make([]string, len(columns))
		for i, j := range src {
			if j >= 0 {
				nr[i] = row[j]
			}
		}
		out.Rows[r] = nr
	}
	return out
}

// Missing returns the listed columns that t lacks, in the listed order.
func (t *Table) Missing(columns []string) []string {
	var missing []string
	for _, c := range columns {
		if !t.HasColumn(c) {
			missing = append(missing, c)
		}
	}
	return missing
}

// Extra returns the columns of t that are not listed, in t's order.
func (t *Table) Extra(columns []string) []string {
	var extra []string
	for _, c := range t.Columns {
		if !slices.Contains(columns, c) {
			extra = append(extra, c)
		}
	}
	return extra
}

// Concat appends the rows of all tables, in order, into one table.
// All tables must share the same column schema.
func Concat(tables ...*Table) (*Table, error) {
	if len(tables) == 0 {
		return nil, errors.New("concat: no tables")
	}

	out := New(tables[0].Columns)
	total := 0
	for _, t := range tables {
		total += t.Len()
	}
	out.Rows = make([][]string, 0, total)

	for i, t := range tables {
		if !slices.Equal(t.Columns, out.Columns) {
			return nil, fmt.Errorf("concat: table %d has columns %v, want %v", i, t.Columns, out.Columns)
		}
		out.Rows = append(out.Rows, t.Rows...)
	}
	return out, nil
}
