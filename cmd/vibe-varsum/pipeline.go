package main

import (
	"errors"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/inodb/vibe-varsum/internal/aggregate"
	"github.com/inodb/vibe-varsum/internal/collect"
	"github.com/inodb/vibe-varsum/internal/duckdb"
	"github.com/inodb/vibe-varsum/internal/table"
)

// Fixed artifact names
const (
	defaultMergedFile  = "merged_file.xlsx"
	defaultSummaryFile = "processed_file.xlsx"
)

// Viper keys
const (
	keySuffixes       = "collect.suffixes"
	keyLabelPattern   = "collect.label_pattern"
	keyMergedOutput   = "collect.output"
	keySummaryInput   = "aggregate.input"
	keySummaryOutput  = "aggregate.output"
	keyKeyColumn      = "aggregate.key_column"
	keyEvidenceColumn = "aggregate.evidence_column"
	keyInfoColumns    = "aggregate.info_columns"
)

func setDefaults() {
	aggDefaults := aggregate.DefaultConfig()
	viper.SetDefault(keySuffixes, []string{collect.DefaultSuffix})
	viper.SetDefault(keyLabelPattern, collect.DefaultLabelPattern)
	viper.SetDefault(keyMergedOutput, defaultMergedFile)
	viper.SetDefault(keySummaryInput, defaultMergedFile)
	viper.SetDefault(keySummaryOutput, defaultSummaryFile)
	viper.SetDefault(keyKeyColumn, aggDefaults.KeyColumn)
	viper.SetDefault(keyEvidenceColumn, aggDefaults.EvidenceColumn)
	viper.SetDefault(keyInfoColumns, aggDefaults.InfoColumns)
}

func addMergeFlags(cmd *cobra.Command) {
	cmd.Flags().StringSlice("suffix", []string{collect.DefaultSuffix}, "File name suffix of annotation files (repeatable)")
	cmd.Flags().String("label-pattern", collect.DefaultLabelPattern, "Regular expression extracting the sample label from file names")
	cmd.Flags().String("merged", defaultMergedFile, "Merged table path (.xlsx or .tsv)")
}

func addCountFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("output", "o", defaultSummaryFile, "Summary table path (.xlsx or .tsv)")
	cmd.Flags().String("key-column", aggregate.DefaultConfig().KeyColumn, "Variant identifier column")
	cmd.Flags().String("evidence-column", aggregate.DefaultConfig().EvidenceColumn, "Numeric evidence column")
	cmd.Flags().StringSlice("info-columns", aggregate.DefaultConfig().InfoColumns, "Informational columns carried into the summary")
}

var mergeFlagKeys = map[string]string{
	keySuffixes:     "suffix",
	keyLabelPattern: "label-pattern",
	keyMergedOutput: "merged",
}

var countFlagKeys = map[string]string{
	keySummaryOutput:  "output",
	keyKeyColumn:      "key-column",
	keyEvidenceColumn: "evidence-column",
	keyInfoColumns:    "info-columns",
}

func newMergeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "merge [dir]",
		Short: "Merge per-sample annotation spreadsheets into one table",
		Long: `Merge walks dir (default: current directory) recursively, reads every file
whose name ends with the annotation suffix, tags each row with the sample label
taken from the file name and writes one merged table. The columns of the first
file (in sorted path order) define the merged schema.`,
		Example: `  vibe-varsum merge
  vibe-varsum merge /data/pools --merged pools.xlsx
  vibe-varsum merge --suffix hg38_multianno.xlsx --suffix hg38_multianno.txt`,
		Args: cobra.MaximumNArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return bindFlags(cmd, mergeFlagKeys)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger(cmd.ErrOrStderr(), viper.GetBool("verbose"))
			defer logger.Sync()

			_, err := runMerge(rootDir(args), logger)
			if errors.Is(err, collect.ErrNoInputFiles) {
				return nil
			}
			return err
		},
	}
	addMergeFlags(cmd)
	return cmd
}

func newCountCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "count",
		Short: "Summarize the merged table into one row per variant",
		Long: `Count reads the merged table, drops rows without a variant identifier,
groups the rest by identifier and writes occurrence counts, evidence mean and
maximum, a per-sample evidence string and the first-seen informational values.`,
		Example: `  vibe-varsum count
  vibe-varsum count --merged pools.xlsx -o summary.xlsx`,
		Args: cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return bindFlags(cmd, map[string]string{
				keySummaryInput:   "merged",
				keySummaryOutput:  "output",
				keyKeyColumn:      "key-column",
				keyEvidenceColumn: "evidence-column",
				keyInfoColumns:    "info-columns",
			})
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger(cmd.ErrOrStderr(), viper.GetBool("verbose"))
			defer logger.Sync()

			_, err := runCount(viper.GetString(keySummaryInput), logger)
			return err
		},
	}
	cmd.Flags().String("merged", defaultMergedFile, "Merged table path")
	addCountFlags(cmd)
	return cmd
}

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [dir]",
		Short: "Merge annotation spreadsheets and summarize them",
		Args:  cobra.MaximumNArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if err := bindFlags(cmd, mergeFlagKeys); err != nil {
				return err
			}
			return bindFlags(cmd, countFlagKeys)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger(cmd.ErrOrStderr(), viper.GetBool("verbose"))
			defer logger.Sync()

			merged, err := runMerge(rootDir(args), logger)
			if errors.Is(err, collect.ErrNoInputFiles) {
				return nil
			}
			if err != nil {
				return err
			}
			_, err = runCount(merged, logger)
			return err
		},
	}
	addMergeFlags(cmd)
	addCountFlags(cmd)
	return cmd
}

func rootDir(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return "."
}

// runMerge runs the collect stage and returns the merged table path.
func runMerge(dir string, logger *zap.Logger) (string, error) {
	c := collect.NewCollector()
	c.SetLogger(logger)
	c.SetSuffixes(viper.GetStringSlice(keySuffixes))
	if err := c.SetLabelPattern(viper.GetString(keyLabelPattern)); err != nil {
		return "", err
	}

	output := viper.GetString(keyMergedOutput)
	res, err := c.Run(dir, output)
	if errors.Is(err, collect.ErrNoInputFiles) {
		logger.Info("no annotation files found, nothing to merge",
			zap.String("dir", dir),
			zap.Strings("suffixes", viper.GetStringSlice(keySuffixes)))
		return "", err
	}
	if err != nil {
		return "", err
	}

	// The merged table is already on disk; a failed export does not undo it.
	if err := exportMerge(res, logger); err != nil {
		logger.Warn("duckdb export failed", zap.String("db", viper.GetString("db")), zap.Error(err))
	}
	return output, nil
}

// runCount runs the aggregate stage on the merged table at input.
func runCount(input string, logger *zap.Logger) (*table.Table, error) {
	cfg := aggregate.DefaultConfig()
	cfg.KeyColumn = viper.GetString(keyKeyColumn)
	cfg.EvidenceColumn = viper.GetString(keyEvidenceColumn)
	cfg.InfoColumns = viper.GetStringSlice(keyInfoColumns)

	a := aggregate.NewAggregator(cfg)
	a.SetLogger(logger)

	summary, err := a.Run(input, viper.GetString(keySummaryOutput))
	if err != nil {
		return nil, err
	}

	if err := exportSummary(summary, logger); err != nil {
		logger.Warn("duckdb export failed", zap.String("db", viper.GetString("db")), zap.Error(err))
	}
	return summary, nil
}

// exportSummary writes the summary table to DuckDB if configured.
func exportSummary(summary *table.Table, logger *zap.Logger) error {
	dbPath := viper.GetString("db")
	if dbPath == "" {
		return nil
	}

	store, err := duckdb.Open(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.WriteTable(duckdb.SummaryTable, summary); err != nil {
		return err
	}
	logger.Info("exported summary to duckdb", zap.String("db", dbPath))
	return nil
}

// exportMerge writes the merged table and its sources to DuckDB if configured.
func exportMerge(res *collect.Result, logger *zap.Logger) error {
	dbPath := viper.GetString("db")
	if dbPath == "" {
		return nil
	}

	store, err := duckdb.Open(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.WriteTable(duckdb.ObservationsTable, res.Table); err != nil {
		return err
	}

	sources := make([]duckdb.SourceFile, 0, len(res.Sources))
	for _, src := range res.Sources {
		fp, err := duckdb.StatFile(src.Path)
		if err != nil {
			return err
		}
		sources = append(sources, duckdb.SourceFile{FileFingerprint: fp, Label: src.Label, Rows: src.Rows})
	}
	if err := store.WriteSources(sources); err != nil {
		return err
	}

	logger.Info("exported merged table to duckdb",
		zap.String("db", dbPath),
		zap.Int("rows", res.Table.Len()))
	return nil
}
