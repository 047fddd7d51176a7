package collect

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/inodb/vibe-varsum/internal/sheet"
	"github.com/inodb/vibe-varsum/internal/table"
)

// writeSheet writes an annotation workbook below dir and returns its path.
func writeSheet(t *testing.T, dir, name string, columns []string, rows ...[]string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))

	tbl := table.New(columns)
	for _, r := range rows {
		require.NoError(t, tbl.Append(r))
	}
	require.NoError(t, sheet.Write(path, tbl))
	return path
}

func TestSampleLabel(t *testing.T) {
	tests := []struct {
		name string
		path string
		want string
	}{
		{"pool prefix", "run1/POOL-1023_hg38_multianno.xlsx", "POOL-1023"},
		{"embedded", "20240101_POOL-17.hg38_multianno.xlsx", "POOL-17"},
		{"first match wins", "POOL-1_POOL-2_hg38_multianno.xlsx", "POOL-1"},
		{"directory ignored", "POOL-99/sample_hg38_multianno.xlsx", ""},
		{"no match", "patientA_hg38_multianno.xlsx", ""},
		{"no digits", "POOL-_hg38_multianno.xlsx", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SampleLabel(tt.path))
		})
	}
}

func TestNewLabeler_Invalid(t *testing.T) {
	_, err := NewLabeler("POOL-(")
	assert.Error(t, err)

	c := NewCollector()
	assert.Error(t, c.SetLabelPattern("["))
}

func TestDiscover(t *testing.T) {
	dir := t.TempDir()
	cols := []string{"HGVS"}
	writeSheet(t, dir, "b/POOL-2_hg38_multianno.xlsx", cols)
	writeSheet(t, dir, "a/nested/POOL-3_hg38_multianno.xlsx", cols)
	writeSheet(t, dir, "POOL-1_hg38_multianno.xlsx", cols)
	writeSheet(t, dir, "POOL-4_hg19_multianno.xlsx", cols)
	writeSheet(t, dir, "~$POOL-5_hg38_multianno.xlsx", cols)
	require.NoError(t, os.Mkdir(filepath.Join(dir, "dir_hg38_multianno.xlsx"), 0755))

	paths, err := Discover(dir, []string{DefaultSuffix})
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "POOL-1_hg38_multianno.xlsx"),
		filepath.Join(dir, "a/nested/POOL-3_hg38_multianno.xlsx"),
		filepath.Join(dir, "b/POOL-2_hg38_multianno.xlsx"),
	}, paths)

	paths, err = Discover(dir, []string{"hg19_multianno.xlsx", "hg38_multianno.xlsx"})
	require.NoError(t, err)
	assert.Len(t, paths, 4)
}

func TestDiscover_FollowsFileSymlinks(t *testing.T) {
	dir := t.TempDir()
	target := writeSheet(t, t.TempDir(), "POOL-7_hg38_multianno.xlsx", []string{"HGVS"})
	require.NoError(t, os.Symlink(target, filepath.Join(dir, "POOL-7_hg38_multianno.xlsx")))
	require.NoError(t, os.Symlink(filepath.Join(dir, "absent"), filepath.Join(dir, "POOL-8_hg38_multianno.xlsx")))

	paths, err := Discover(dir, []string{DefaultSuffix})
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "POOL-7_hg38_multianno.xlsx")}, paths)
}

func TestDiscover_MissingRoot(t *testing.T) {
	_, err := Discover(filepath.Join(t.TempDir(), "absent"), []string{DefaultSuffix})
	assert.Error(t, err)
}

func TestCollect_SchemaAndRowCount(t *testing.T) {
	dir := t.TempDir()
	writeSheet(t, dir, "POOL-1001_hg38_multianno.xlsx",
		[]string{"HGVS", "AF_UMI", "CLNSIG"},
		[]string{"V1", "0.1", "Benign"},
		[]string{".", "0.2", "."},
	)
	// different column order, one extra and one missing column
	writeSheet(t, dir, "POOL-1002_hg38_multianno.xlsx",
		[]string{"CLNSIG", "Extra", "HGVS"},
		[]string{"Pathogenic", "x", "V1"},
	)
	writeSheet(t, dir, "sub/unlabeled_hg38_multianno.xlsx",
		[]string{"AF_UMI", "HGVS", "CLNSIG"},
		[]string{"0.7", "V2", "Benign"},
		[]string{"0.3", "V3", ""},
	)

	res, err := NewCollector().Collect(dir)
	require.NoError(t, err)

	wantSchema := []string{LabelColumn, "HGVS", "AF_UMI", "CLNSIG"}
	assert.Equal(t, wantSchema, res.Schema)
	assert.Equal(t, wantSchema, res.Table.Columns)

	total := 0
	for _, s := range res.Sources {
		total += s.Rows
	}
	assert.Equal(t, 5, total)
	assert.Equal(t, total, res.Table.Len())

	assert.Equal(t, [][]string{
		{"POOL-1001", "V1", "0.1", "Benign"},
		{"POOL-1001", ".", "0.2", "."},
		{"POOL-1002", "V1", "", "Pathogenic"},
		{"", "V2", "0.7", "Benign"},
		{"", "V3", "0.3", ""},
	}, res.Table.Rows)

	require.Len(t, res.Sources, 3)
	assert.Equal(t, "POOL-1002", res.Sources[1].Label)
	assert.Equal(t, []string{"Extra"}, res.Sources[1].Dropped)
	assert.Equal(t, []string{"AF_UMI"}, res.Sources[1].Missing)
	assert.Empty(t, res.Sources[2].Dropped)
	assert.Empty(t, res.Sources[2].Missing)
}

func TestCollect_NoFiles(t *testing.T) {
	dir := t.TempDir()
	writeSheet(t, dir, "notes.xlsx", []string{"a"})
	out := filepath.Join(dir, "merged_file.xlsx")

	_, err := NewCollector().Run(dir, out)
	assert.ErrorIs(t, err, ErrNoInputFiles)

	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr), "no output should be written")
}

func TestCollect_ReadErrorAborts(t *testing.T) {
	dir := t.TempDir()
	writeSheet(t, dir, "POOL-1_hg38_multianno.xlsx", []string{"HGVS"}, []string{"V1"})
	bad := filepath.Join(dir, "POOL-2_hg38_multianno.xlsx")
	require.NoError(t, os.WriteFile(bad, []byte("garbage"), 0644))
	out := filepath.Join(dir, "merged_file.xlsx")

	_, err := NewCollector().Run(dir, out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), bad)

	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr))
}

func TestCollect_LabelColumnClash(t *testing.T) {
	dir := t.TempDir()
	writeSheet(t, dir, "POOL-1_hg38_multianno.xlsx", []string{LabelColumn, "HGVS"}, []string{"x", "V1"})

	_, err := NewCollector().Collect(dir)
	assert.Error(t, err)
}

func TestRun_WritesMergedTable(t *testing.T) {
	dir := t.TempDir()
	writeSheet(t, dir, "in/POOL-1_hg38_multianno.xlsx", []string{"HGVS", "AF_UMI"}, []string{"V1", "0.5"})
	require.NoError(t, os.WriteFile(filepath.Join(dir, "in/POOL-2_hg38_multianno.txt"),
		[]byte("AF_UMI\tHGVS\n0.25\tV1\n"), 0644))

	c := NewCollector()
	c.SetSuffixes([]string{"hg38_multianno.xlsx", "hg38_multianno.txt"})
	out := filepath.Join(dir, "merged_file.xlsx")

	res, err := c.Run(filepath.Join(dir, "in"), out)
	require.NoError(t, err)
	assert.Len(t, res.Sources, 2)

	merged, err := sheet.Read(out)
	require.NoError(t, err)
	assert.Equal(t, []string{LabelColumn, "HGVS", "AF_UMI"}, merged.Columns)
	assert.Equal(t, [][]string{
		{"POOL-1", "V1", "0.5"},
		{"POOL-2", "V1", "0.25"},
	}, merged.Rows)
}

func TestMerge_ExplicitSchema(t *testing.T) {
	a := table.New([]string{"x", "y"})
	require.NoError(t, a.Append([]string{"1", "2"}))
	b := table.New([]string{"y", "z"})
	require.NoError(t, b.Append([]string{"3", "4"}))

	merged, err := Merge([]string{"y", "x"}, []*table.Table{a, b})
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"2", "1"}, {"3", ""}}, merged.Rows)
}

func TestRun_BlankAndDuplicateHeaders(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "POOL-1_hg38_multianno.xlsx")
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]interface{}{"HGVS", "", "AF_UMI", "", "CLNSIG", "CLNSIG"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]interface{}{"V1", "x", 0.2, "y", "Benign", "Likely_benign"}))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())
	require.NoError(t, os.WriteFile(filepath.Join(dir, "POOL-2_hg38_multianno.txt"),
		[]byte("HGVS\tAF_UMI\tOtherinfo\nV2\t0.1\tchr1\t100\tA\n"), 0644))

	c := NewCollector()
	c.SetSuffixes([]string{"hg38_multianno.xlsx", "hg38_multianno.txt"})
	out := filepath.Join(dir, "merged_file.xlsx")

	res, err := c.Run(dir, out)
	require.NoError(t, err)
	// generated names align by name, like any other column
	assert.Equal(t, []string{"Otherinfo", "Unnamed: 4"}, res.Sources[1].Dropped)

	merged, err := sheet.Read(out)
	require.NoError(t, err)
	assert.Equal(t, []string{LabelColumn, "HGVS", "Unnamed: 1", "AF_UMI", "Unnamed: 3", "CLNSIG", "CLNSIG.1"}, merged.Columns)
	assert.Equal(t, [][]string{
		{"POOL-1", "V1", "x", "0.2", "y", "Benign", "Likely_benign"},
		{"POOL-2", "V2", "", "0.1", "100", "", ""},
	}, merged.Rows)
}
