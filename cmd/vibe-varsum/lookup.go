package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/inodb/vibe-varsum/internal/aggregate"
	"github.com/inodb/vibe-varsum/internal/duckdb"
)

func newLookupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lookup <variant>",
		Short: "Show the exported summary row of a variant",
		Long:  "Look up a variant identifier in the summary table exported with --db.",
		Example: `  vibe-varsum lookup --db varsum.duckdb 'NM_004333:c.1799T>A'
  vibe-varsum lookup --db varsum.duckdb --observations 'NM_004333:c.1799T>A'`,
		Args: cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return bindFlags(cmd, map[string]string{keyKeyColumn: "key-column"})
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			observations, _ := cmd.Flags().GetBool("observations")
			return runLookup(cmd, args[0], observations)
		},
	}
	cmd.Flags().Bool("observations", false, "Show the merged per-sample rows instead of the summary")
	cmd.Flags().String("key-column", aggregate.DefaultConfig().KeyColumn, "Variant identifier column")
	return cmd
}

func runLookup(cmd *cobra.Command, key string, observations bool) error {
	dbPath := viper.GetString("db")
	if dbPath == "" {
		return &usageError{err: errors.New("--db is required")}
	}

	store, err := duckdb.Open(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	name := duckdb.SummaryTable
	if observations {
		name = duckdb.ObservationsTable
	}

	rows, err := store.Lookup(name, viper.GetString(keyKeyColumn), key)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return fmt.Errorf("variant %q not found in %s", key, name)
	}

	out, err := yaml.Marshal(rows)
	if err != nil {
		return fmt.Errorf("marshaling rows: %w", err)
	}
	fmt.Fprint(cmd.OutOrStdout(), string(out))
	return nil
}
