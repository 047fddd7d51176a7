// Package collect merges per-sample variant annotation spreadsheets into one
// unified observation table.
package collect

import (
	"errors"
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/inodb/vibe-varsum/internal/sheet"
	"github.com/inodb/vibe-varsum/internal/table"
)

// LabelColumn is the column holding the sample label of each observation.
const LabelColumn = "Sample label"

// ErrNoInputFiles is returned when no eligible annotation file was found.
// It signals that there is nothing to merge, not a failure.
var ErrNoInputFiles = errors.New("no annotation files found")

// Source describes one ingested annotation file.
type Source struct {
	Path  string
	Label string
	Rows  int
	// Dropped lists columns of the file that are not in the canonical schema.
	Dropped []string
	// Missing lists canonical columns the file did not have.
	Missing []string
}

// Result is the output of a collection run.
type Result struct {
	Table   *table.Table
	Schema  []string
	Sources []Source
}

// Collector discovers, reads and merges annotation files.
type Collector struct {
	suffixes []string
	labeler  *Labeler
	logger   *zap.Logger
}

// NewCollector creates a collector using the default file suffix and sample
// label pattern.
func NewCollector() *Collector {
	return &Collector{
		suffixes: []string{DefaultSuffix},
		labeler:  defaultLabeler,
		logger:   zap.NewNop(),
	}
}

// SetSuffixes configures the file name suffixes that mark eligible files.
func (c *Collector) SetSuffixes(suffixes []string) {
	c.suffixes = slices.Clone(suffixes)
}

// SetLabelPattern configures the regular expression used to extract sample
// labels from file names.
func (c *Collector) SetLabelPattern(pattern string) error {
	l, err := NewLabeler(pattern)
	if err != nil {
		return fmt.Errorf("invalid label pattern %q: %w", pattern, err)
	}
	c.labeler = l
	return nil
}

// SetLogger sets the logger for warning and info messages.
func (c *Collector) SetLogger(l *zap.Logger) {
	c.logger = l
}

// Collect reads every eligible file beneath root and returns the unified
// table. Returns ErrNoInputFiles if there is nothing to merge.
func (c *Collector) Collect(root string) (*Result, error) {
	paths, err := Discover(root, c.suffixes)
	if err != nil {
		return nil, fmt.Errorf("discover annotation files: %w", err)
	}
	if len(paths) == 0 {
		return nil, ErrNoInputFiles
	}

	tables := make([]*table.Table, 0, len(paths))
	sources := make([]Source, 0, len(paths))
	for _, path := range paths {
		t, label, err := c.load(path)
		if err != nil {
			return nil, err
		}
		tables = append(tables, t)
		sources = append(sources, Source{Path: path, Label: label, Rows: t.Len()})
	}

	schema := CanonicalSchema(tables[0])
	merged, err := Merge(schema, tables)
	if err != nil {
		return nil, err
	}

	for i, t := range tables {
		sources[i].Dropped = t.Extra(schema)
		sources[i].Missing = t.Missing(schema)
		if len(sources[i].Dropped) > 0 || len(sources[i].Missing) > 0 {
			c.logger.Warn("file schema differs from canonical schema",
				zap.String("path", sources[i].Path),
				zap.Strings("dropped", sources[i].Dropped),
				zap.Strings("missing", sources[i].Missing))
		}
	}

	return &Result{Table: merged, Schema: schema, Sources: sources}, nil
}

// Run collects the files beneath root and writes the unified table to
// outputPath. Nothing is written if collection fails or finds no files.
func (c *Collector) Run(root, outputPath string) (*Result, error) {
	res, err := c.Collect(root)
	if err != nil {
		return nil, err
	}
	if err := sheet.Write(outputPath, res.Table); err != nil {
		return nil, fmt.Errorf("write merged table: %w", err)
	}
	c.logger.Info("merged annotation files",
		zap.Int("files", len(res.Sources)),
		zap.Int("rows", res.Table.Len()),
		zap.String("output", outputPath))
	return res, nil
}

// load reads one annotation file and prepends its sample label column.
func (c *Collector) load(path string) (*table.Table, string, error) {
	t, err := sheet.Read(path)
	if err != nil {
		return nil, "", fmt.Errorf("read %s: %w", path, err)
	}

	label := c.labeler.Label(path)
	if label == "" {
		c.logger.Debug("no sample label in file name", zap.String("path", path))
	}
	if err := t.InsertColumn(0, LabelColumn, label); err != nil {
		return nil, "", fmt.Errorf("read %s: %w", path, err)
	}

	c.logger.Debug("loaded annotation file",
		zap.String("path", path),
		zap.String("label", label),
		zap.Int("rows", t.Len()))
	return t, label, nil
}

// CanonicalSchema returns the column schema every merged table is aligned to:
// the columns of the first file read.
func CanonicalSchema(first *table.Table) []string {
	return slices.Clone(first.Columns)
}

// Merge reindexes each table to schema and concatenates them in order.
func Merge(schema []string, tables []*table.Table) (*table.Table, error) {
	aligned := make([]*table.Table, len(tables))
	for i, t := range tables {
		aligned[i] = t.Reindex(schema)
	}
	merged, err := table.Concat(aligned...)
	if err != nil {
		return nil, fmt.Errorf("merge tables: %w", err)
	}
	return merged, nil
}
