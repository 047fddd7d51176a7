package aggregate

import (
	"github.com/inodb/vibe-varsum/internal/table"
)

// Group is the set of rows sharing one variant identifier. Rows are indices
// into the parent table, in table order.
type Group struct {
	Key   string
	Table *table.Table
	Rows  []int
}

// Len returns the number of rows in the group.
func (g *Group) Len() int {
	return len(g.Rows)
}

// Row returns the i-th row of the group.
func (g *Group) Row(i int) []string {
	return g.Table.Rows[g.Rows[i]]
}

// Values returns the named column's values for the group's rows, in order.
func (g *Group) Values(column string) ([]string, error) {
	c := g.Table.ColumnIndex(column)
	if c < 0 {
		return nil, &table.ColumnError{Column: column}
	}
	values := make([]string, len(g.Rows))
	for i, r := range g.Rows {
		values[i] = g.Table.Rows[r][c]
	}
	return values, nil
}

// Filter returns the indices of rows whose key column holds a usable
// identifier: not the no-call sentinel and not missing.
func Filter(t *table.Table, keyColumn, noCall string) ([]int, error) {
	k := t.ColumnIndex(keyColumn)
	if k < 0 {
		return nil, &table.ColumnError{Column: keyColumn}
	}
	kept := make([]int, 0, t.Len())
	for r, row := range t.Rows {
		if row[k] == noCall || row[k] == "" {
			continue
		}
		kept = append(kept, r)
	}
	return kept, nil
}

// GroupBy groups the given rows of t by exact value of keyColumn. Groups are
// returned in order of first appearance; rows within a group keep their order.
func GroupBy(t *table.Table, keyColumn string, rows []int) ([]*Group, error) {
	k := t.ColumnIndex(keyColumn)
	if k < 0 {
		return nil, &table.ColumnError{Column: keyColumn}
	}

	var groups []*Group
	byKey := make(map[string]*Group)
	for _, r := range rows {
		key := t.Rows[r][k]
		g, ok := byKey[key]
		if !ok {
			g = &Group{Key: key, Table: t}
			byKey[key] = g
			groups = append(groups, g)
		}
		g.Rows = append(g.Rows, r)
	}
	return groups, nil
}
