package aggregate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/vibe-varsum/internal/table"
)

func TestFilter(t *testing.T) {
	tbl := table.New([]string{"HGVS"})
	for _, k := range []string{"V1", ".", "", "V2", ".."} {
		require.NoError(t, tbl.Append([]string{k}))
	}

	rows, err := Filter(tbl, "HGVS", ".")
	require.NoError(t, err)
	assert.Equal(t, []int{0, 3, 4}, rows)

	_, err = Filter(tbl, "absent", ".")
	assert.ErrorIs(t, err, table.ErrColumnNotFound)
}

func TestGroupBy_FirstAppearanceOrder(t *testing.T) {
	tbl := table.New([]string{"Sample label", "HGVS"})
	for _, r := range [][]string{{"A", "V2"}, {"B", "V1"}, {"C", "V2"}, {"D", "V1"}, {"E", "V3"}} {
		require.NoError(t, tbl.Append(r))
	}

	groups, err := GroupBy(tbl, "HGVS", []int{0, 1, 2, 3, 4})
	require.NoError(t, err)
	require.Len(t, groups, 3)

	assert.Equal(t, "V2", groups[0].Key)
	assert.Equal(t, []int{0, 2}, groups[0].Rows)
	assert.Equal(t, "V1", groups[1].Key)
	assert.Equal(t, []int{1, 3}, groups[1].Rows)

	labels, err := groups[1].Values("Sample label")
	require.NoError(t, err)
	assert.Equal(t, []string{"B", "D"}, labels)
	assert.Equal(t, []string{"E", "V3"}, groups[2].Row(0))

	// rows not passed in are not grouped
	groups, err = GroupBy(tbl, "HGVS", []int{4})
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, 1, groups[0].Len())
}

func TestReducers_UnknownColumn(t *testing.T) {
	tbl := table.New([]string{"HGVS", "AF_UMI"})
	require.NoError(t, tbl.Append([]string{"V1", "0.1"}))
	g := &Group{Key: "V1", Table: tbl, Rows: []int{0}}

	for name, r := range map[string]Reducer{
		"mean":     Mean("x"),
		"max":      Max("x"),
		"first":    First("x"),
		"evidence": Evidence("x", "AF_UMI"),
		"value":    Evidence("HGVS", "x"),
	} {
		_, err := r(g)
		assert.ErrorIs(t, err, table.ErrColumnNotFound, name)
	}

	n, err := Count(g)
	require.NoError(t, err)
	assert.Equal(t, "1", n)
}

func TestFirst_KeepsEmptyFirstRow(t *testing.T) {
	tbl := table.New([]string{"HGVS", "CLNSIG"})
	require.NoError(t, tbl.Append([]string{"V1", ""}))
	require.NoError(t, tbl.Append([]string{"V1", "Benign"}))

	got, err := First("CLNSIG")(&Group{Key: "V1", Table: tbl, Rows: []int{0, 1}})
	require.NoError(t, err)
	assert.Equal(t, "", got)
}
