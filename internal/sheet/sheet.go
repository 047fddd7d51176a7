// Package sheet reads and writes annotation tables as spreadsheet files.
// Excel workbooks (.xlsx) are handled with excelize; ANNOVAR's native
// tab-delimited output (.txt, .tsv, optionally gzipped) is read directly.
package sheet

import (
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/inodb/vibe-varsum/internal/table"
)

// DefaultSheet is the worksheet written to new workbooks.
const DefaultSheet = "Sheet1"

// ErrUnsupportedFormat is returned for file extensions that are not handled.
var ErrUnsupportedFormat = errors.New("unsupported spreadsheet format")

// ParseError represents an error while reading a spreadsheet with line context.
type ParseError struct {
	Path    string
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("sheet parse error at line %d: %s", e.Line, e.Message)
	}
	return fmt.Sprintf("sheet parse error in %s at line %d: %s", e.Path, e.Line, e.Message)
}

// Format identifies a spreadsheet file format.
type Format int

const (
	FormatUnknown Format = iota
	FormatXLSX
	FormatTSV
)

// DetectFormat detects the file format from the path's extension.
func DetectFormat(path string) Format {
	lowerPath := strings.ToLower(path)
	lowerPath = strings.TrimSuffix(lowerPath, ".gz")

	switch filepath.Ext(lowerPath) {
	case ".xlsx", ".xlsm":
		return FormatXLSX
	case ".txt", ".tsv":
		return FormatTSV
	}
	return FormatUnknown
}

// Read loads the table stored at path. The first row is the header; blank,
// repeated and missing header names are filled in (see buildTable).
func Read(path string) (*table.Table, error) {
	switch DetectFormat(path) {
	case FormatXLSX:
		return readXLSX(path)
	case FormatTSV:
		return readTSV(path)
	}
	return nil, fmt.Errorf("read %s: %w", path, ErrUnsupportedFormat)
}

// Write stores t at path in the format implied by its extension.
// Gzipped output is not supported.
func Write(path string, t *table.Table) error {
	if strings.HasSuffix(strings.ToLower(path), ".gz") {
		return fmt.Errorf("write %s: %w", path, ErrUnsupportedFormat)
	}
	switch DetectFormat(path) {
	case FormatXLSX:
		return writeXLSX(path, t)
	case FormatTSV:
		return writeTSV(path, t)
	}
	return fmt.Errorf("write %s: %w", path, ErrUnsupportedFormat)
}

// readXLSX reads the first worksheet of an Excel workbook.
func readXLSX(path string) (*table.Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook %s: %w", path, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, &ParseError{Path: path, Message: "workbook has no sheets"}
	}

	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %q of %s: %w", sheets[0], path, err)
	}

	// The header is the first non-empty row
	start := 0
	for start < len(rows) && isBlank(rows[start]) {
		start++
	}
	if start == len(rows) {
		return nil, &ParseError{Path: path, Line: len(rows), Message: "no header row found"}
	}

	var data [][]string
	for _, cells := range rows[start+1:] {
		if !isBlank(cells) {
			data = append(data, cells)
		}
	}
	return buildTable(rows[start], data), nil
}

// buildTable makes a table from a header row and raw data rows. The header is
// widened with blank names up to the widest row and then made unique, so no
// value is lost or shadowed. Short rows are padded with empty values.
func buildTable(header []string, rows [][]string) *table.Table {
	width := len(header)
	for _, r := range rows {
		width = max(width, len(r))
	}
	columns := make([]string, width)
	copy(columns, header)

	t := table.New(table.UniqueColumns(columns))
	for _, cells := range rows {
		row := make([]string, width)
		copy(row, cells)
		t.Rows = append(t.Rows, row)
	}
	return t
}

// writeXLSX writes t to a new workbook with a single sheet.
func writeXLSX(path string, t *table.Table) error {
	f := excelize.NewFile()
	defer f.Close()

	sw, err := f.NewStreamWriter(DefaultSheet)
	if err != nil {
		return fmt.Errorf("create stream writer: %w", err)
	}

	header := make([]interface{}, len(t.Columns))
	for i, c := range t.Columns {
		header[i] = c
	}
	if err := sw.SetRow("A1", header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	values := make([]interface{}, len(t.Columns))
	for r, row := range t.Rows {
		for i, v := range row {
			values[i] = cellValue(v)
		}
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, values); err != nil {
			return fmt.Errorf("write row %d: %w", r+1, err)
		}
	}

	if err := sw.Flush(); err != nil {
		return fmt.Errorf("flush sheet: %w", err)
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook %s: %w", path, err)
	}
	return nil
}

// cellValue returns v as a float64 when it round-trips losslessly, so numeric
// columns stay numeric in Excel. Empty values become empty cells.
func cellValue(v string) interface{} {
	if v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return v
	}
	if strconv.FormatFloat(f, 'f', -1, 64) != v {
		return v
	}
	return f
}

func isBlank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
