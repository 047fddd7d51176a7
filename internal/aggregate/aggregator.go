// Package aggregate summarizes a merged observation table into one row per
// variant, with occurrence counts, evidence statistics and a per-sample
// evidence string.
package aggregate

import (
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/inodb/vibe-varsum/internal/sheet"
	"github.com/inodb/vibe-varsum/internal/table"
)

// Config names the columns the aggregator reads and writes.
type Config struct {
	KeyColumn      string
	EvidenceColumn string
	LabelColumn    string
	InfoColumns    []string
	// NoCall is the key value of rows without a usable variant identifier.
	NoCall       string
	CountColumn  string
	DetailColumn string
}

// DefaultConfig returns the column layout of ANNOVAR multianno tables merged
// by the collect package.
func DefaultConfig() Config {
	return Config{
		KeyColumn:      "HGVS",
		EvidenceColumn: "AF_UMI",
		LabelColumn:    "Sample label",
		InfoColumns:    []string{"gnomAD3.1", "avsnp150", "CLNSIG", "ExonicFunc_refGeneWithVer"},
		NoCall:         ".",
		CountColumn:    "Occurrences",
		DetailColumn:   "Occurrences detail",
	}
}

// Spec is one aggregation: a reducer applied to each group, producing the
// column Flatten(Source, Stat).
type Spec struct {
	Source string
	Stat   string
	Reduce Reducer
}

// Flatten joins a source column and statistic name with an underscore,
// trimming trailing underscores left by empty statistic names.
func Flatten(source, stat string) string {
	return strings.TrimRight(source+"_"+stat, "_")
}

// Specs returns the aggregations for cfg, in output column order.
func (cfg Config) Specs() []Spec {
	specs := []Spec{
		{Source: cfg.EvidenceColumn, Stat: "count", Reduce: Count},
		{Source: cfg.EvidenceColumn, Stat: "mean", Reduce: Mean(cfg.EvidenceColumn)},
		{Source: cfg.EvidenceColumn, Stat: "max", Reduce: Max(cfg.EvidenceColumn)},
		{Source: cfg.LabelColumn, Reduce: Evidence(cfg.LabelColumn, cfg.EvidenceColumn)},
	}
	for _, c := range cfg.InfoColumns {
		specs = append(specs, Spec{Source: c, Reduce: First(c)})
	}
	return specs
}

// Renames maps flattened column names to their output names.
func (cfg Config) Renames() map[string]string {
	return map[string]string{
		Flatten(cfg.EvidenceColumn, "count"): cfg.CountColumn,
		Flatten(cfg.LabelColumn, ""):         cfg.DetailColumn,
	}
}

// Aggregator builds per-variant summary tables.
type Aggregator struct {
	cfg    Config
	logger *zap.Logger
}

// NewAggregator creates an aggregator with the given column configuration.
func NewAggregator(cfg Config) *Aggregator {
	return &Aggregator{
		cfg:    cfg,
		logger: zap.NewNop(),
	}
}

// SetLogger sets the logger for warning and info messages.
func (a *Aggregator) SetLogger(l *zap.Logger) {
	a.logger = l
}

// Columns returns the summary table's columns.
func (a *Aggregator) Columns() []string {
	renames := a.cfg.Renames()
	columns := []string{a.cfg.KeyColumn}
	for _, s := range a.cfg.Specs() {
		name := Flatten(s.Source, s.Stat)
		if r, ok := renames[name]; ok {
			name = r
		}
		columns = append(columns, name)
	}
	return columns
}

// Aggregate returns one summary row per distinct variant identifier, sorted by
// identifier. Rows with a no-call or missing identifier are ignored.
func (a *Aggregator) Aggregate(t *table.Table) (*table.Table, error) {
	required := append([]string{a.cfg.KeyColumn, a.cfg.EvidenceColumn, a.cfg.LabelColumn}, a.cfg.InfoColumns...)
	if err := t.Require(required...); err != nil {
		return nil, err
	}

	rows, err := Filter(t, a.cfg.KeyColumn, a.cfg.NoCall)
	if err != nil {
		return nil, err
	}
	if skipped := t.Len() - len(rows); skipped > 0 {
		a.logger.Debug("skipped rows without variant identifier", zap.Int("rows", skipped))
	}

	groups, err := GroupBy(t, a.cfg.KeyColumn, rows)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(groups, func(i, j int) bool { return groups[i].Key < groups[j].Key })

	specs := a.cfg.Specs()
	out := table.New(a.Columns())
	out.Rows = make([][]string, 0, len(groups))
	for _, g := range groups {
		row := make([]string, 0, len(out.Columns))
		row = append(row, g.Key)
		for _, s := range specs {
			v, err := s.Reduce(g)
			if err != nil {
				return nil, fmt.Errorf("aggregate %s: %w", Flatten(s.Source, s.Stat), err)
			}
			row = append(row, v)
		}
		out.Rows = append(out.Rows, row)
	}

	a.logger.Info("aggregated variants",
		zap.Int("rows", len(rows)),
		zap.Int("variants", len(groups)))
	return out, nil
}

// Run reads the merged table at inputPath and writes the summary to outputPath.
func (a *Aggregator) Run(inputPath, outputPath string) (*table.Table, error) {
	t, err := sheet.Read(inputPath)
	if err != nil {
		return nil, fmt.Errorf("read merged table: %w", err)
	}

	summary, err := a.Aggregate(t)
	if err != nil {
		return nil, err
	}

	if err := sheet.Write(outputPath, summary); err != nil {
		return nil, fmt.Errorf("write summary table: %w", err)
	}
	a.logger.Info("wrote summary table",
		zap.String("output", outputPath),
		zap.Int("variants", summary.Len()))
	return summary, nil
}
