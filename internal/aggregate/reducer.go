package aggregate

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/inodb/vibe-varsum/internal/table"
)

// Reducer computes one summary value from a whole group.
type Reducer func(g *Group) (string, error)

// ValueError reports an evidence value that is not a number.
type ValueError struct {
	Key    string
	Row    int // 1-based data row in the input table
	Column string
	Value  string
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("variant %s: row %d: column %q: invalid number %q", e.Key, e.Row, e.Column, e.Value)
}

// missingEvidence is how a missing evidence value is shown in the detail string.
const missingEvidence = "nan"

// Count returns the number of rows in the group.
func Count(g *Group) (string, error) {
	return strconv.Itoa(g.Len()), nil
}

// Mean returns the arithmetic mean of column over the group.
// Missing values are skipped; if all are missing the result is empty.
func Mean(column string) Reducer {
	return func(g *Group) (string, error) {
		values, err := numbers(g, column)
		if err != nil {
			return "", err
		}
		var sum float64
		n := 0
		for _, v := range values {
			if math.IsNaN(v) {
				continue
			}
			sum += v
			n++
		}
		if n == 0 {
			return "", nil
		}
		return formatNumber(sum / float64(n)), nil
	}
}

// Max returns the maximum of column over the group, skipping missing values.
func Max(column string) Reducer {
	return func(g *Group) (string, error) {
		values, err := numbers(g, column)
		if err != nil {
			return "", err
		}
		best := math.NaN()
		for _, v := range values {
			if math.IsNaN(v) {
				continue
			}
			if math.IsNaN(best) || v > best {
				best = v
			}
		}
		if math.IsNaN(best) {
			return "", nil
		}
		return formatNumber(best), nil
	}
}

// First returns the value of column in the group's first row.
func First(column string) Reducer {
	return func(g *Group) (string, error) {
		c := g.Table.ColumnIndex(column)
		if c < 0 {
			return "", &table.ColumnError{Column: column}
		}
		if g.Len() == 0 {
			return "", nil
		}
		return g.Row(0)[c], nil
	}
}

// Evidence formats every row of the group as "<label> (<value>)" with the
// value rounded to two decimals, joined by "; ". Label and value are read from
// the same row, so they cannot drift apart.
func Evidence(labelColumn, valueColumn string) Reducer {
	return func(g *Group) (string, error) {
		lc := g.Table.ColumnIndex(labelColumn)
		if lc < 0 {
			return "", &table.ColumnError{Column: labelColumn}
		}
		vc := g.Table.ColumnIndex(valueColumn)
		if vc < 0 {
			return "", &table.ColumnError{Column: valueColumn}
		}

		var sb strings.Builder
		for i, r := range g.Rows {
			row := g.Table.Rows[r]
			v, err := parseNumber(g.Key, r, valueColumn, row[vc])
			if err != nil {
				return "", err
			}
			if i > 0 {
				sb.WriteString("; ")
			}
			sb.WriteString(row[lc])
			sb.WriteString(" (")
			if math.IsNaN(v) {
				sb.WriteString(missingEvidence)
			} else {
				sb.WriteString(strconv.FormatFloat(v, 'f', 2, 64))
			}
			sb.WriteString(")")
		}
		return sb.String(), nil
	}
}

// numbers parses column for every row of the group. Missing values are NaN.
func numbers(g *Group, column string) ([]float64, error) {
	c := g.Table.ColumnIndex(column)
	if c < 0 {
		return nil, &table.ColumnError{Column: column}
	}
	out := make([]float64, len(g.Rows))
	for i, r := range g.Rows {
		v, err := parseNumber(g.Key, r, column, g.Table.Rows[r][c])
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func parseNumber(key string, row int, column, s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return math.NaN(), nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, &ValueError{Key: key, Row: row + 1, Column: column, Value: s}
	}
	return v, nil
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
