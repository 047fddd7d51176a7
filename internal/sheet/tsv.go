package sheet

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/inodb/vibe-varsum/internal/table"
)

// readTSV reads a tab-delimited annotation file into a table.
// Supports both plain and gzipped input. Lines starting with '#' before the
// header and blank lines are skipped.
func readTSV(path string) (*table.Table, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open tsv file: %w", err)
	}
	defer file.Close()

	// Check for gzip magic bytes
	br := bufio.NewReader(file)
	magic, err := br.Peek(2)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("read tsv header: %w", err)
	}

	var r io.Reader = br
	if len(magic) == 2 && magic[0] == 0x1f && magic[1] == 0x8b {
		gz, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("create gzip reader: %w", err)
		}
		defer gz.Close()
		r = gz
	}

	t, err := ReadTSV(r)
	if err != nil {
		if pe, ok := err.(*ParseError); ok {
			pe.Path = path
		}
		return nil, err
	}
	return t, nil
}

// ReadTSV reads a tab-delimited table from r. The first non-comment line is
// the header. Short rows are padded with empty values; rows wider than the
// header get generated column names.
func ReadTSV(r io.Reader) (*table.Table, error) {
	reader := bufio.NewReader(r)
	lineNumber := 0
	var header []string
	var rows [][]string

	for {
		line, err := reader.ReadString('\n')
		if err != nil && err != io.EOF {
			return nil, fmt.Errorf("read line %d: %w", lineNumber+1, err)
		}
		if line == "" && err == io.EOF {
			break
		}
		lineNumber++

		line = strings.TrimRight(line, "\r\n")

		if header == nil {
			// Skip comment and empty lines before the header
			if line == "" || strings.HasPrefix(line, "#") {
				if err == io.EOF {
					break
				}
				continue
			}
			header = strings.Split(line, "\t")
		} else if line != "" {
			rows = append(rows, strings.Split(line, "\t"))
		}

		if err == io.EOF {
			break
		}
	}

	if header == nil {
		return nil, &ParseError{
			Line:    lineNumber,
			Message: "no header line found",
		}
	}
	return buildTable(header, rows), nil
}

// WriteTSV writes t as tab-delimited text with a header line.
func WriteTSV(w io.Writer, t *table.Table) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(strings.Join(t.Columns, "\t") + "\n"); err != nil {
		return err
	}
	for _, row := range t.Rows {
		if _, err := bw.WriteString(strings.Join(row, "\t") + "\n"); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func writeTSV(path string, t *table.Table) error {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	if err := WriteTSV(out, t); err != nil {
		out.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return out.Close()
}
