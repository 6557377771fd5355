package main

import (
	"fmt"
	"io"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/inodb/syntenyfinder/internal/duckdb"
)

func newRunsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs [run-id]",
		Short: "List stored runs, print the blocks of one or delete one",
		Long: `List stored runs, print the blocks of one or delete one. Inputs whose
size or modification time changed since the run are marked "(changed)".`,
		Example: `  synteny runs --duckdb runs.duckdb
  synteny runs --duckdb runs.duckdb 0b7c6a52-...
  synteny runs --duckdb runs.duckdb --delete 0b7c6a52-...`,
		Args: cobra.MaximumNArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return bindFlags(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			dbPath := viper.GetString("duckdb")
			if dbPath == "" {
				return fmt.Errorf("no database given: use --duckdb or set duckdb in the config")
			}
			store, err := duckdb.Open(dbPath)
			if err != nil {
				return err
			}
			defer store.Close()

			if id := viper.GetString("delete"); id != "" {
				return deleteRun(cmd.OutOrStdout(), store, id)
			}
			if len(args) == 1 {
				return printRunBlocks(cmd.OutOrStdout(), store, args[0])
			}
			return printRuns(cmd.OutOrStdout(), store)
		},
	}

	cmd.Flags().String("duckdb", "", "DuckDB database holding the runs")
	cmd.Flags().String("delete", "", "Delete the run with this id")

	return cmd
}

func printRuns(w io.Writer, store *duckdb.Store) error {
	runs, err := store.Runs()
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN\tCREATED\tK\tTRIM_K\tMIN_SIZE\tSHARED_ONLY\tBLOCKS\tINPUTS")
	for _, r := range runs {
		inputs := make([]string, len(r.Inputs))
		for i, in := range r.Inputs {
			inputs[i] = in.Path
			if !in.Matches() {
				inputs[i] += " (changed)"
			}
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%t\t%d\t%s\n",
			r.ID, r.CreatedAt.Format("2006-01-02 15:04:05"), r.K, r.TrimK, r.MinSize, r.SharedOnly,
			r.BlockCount, strings.Join(inputs, ","))
	}
	return tw.Flush()
}

func printRunBlocks(w io.Writer, store *duckdb.Store, runID string) error {
	blocks, err := store.LoadBlocks(runID)
	if err != nil {
		return err
	}
	if len(blocks) == 0 {
		return fmt.Errorf("run %q has no blocks", runID)
	}
	fmt.Fprintln(w, "#Block_id\tSeq_id\tChromosome\tStrand\tStart\tEnd\tLength")
	for _, b := range blocks {
		id, strand := b.BlockID, "+"
		if id < 0 {
			id, strand = -id, "-"
		}
		fmt.Fprintf(w, "%d\t%d\t%s\t%s\t%d\t%d\t%d\n", id, b.SeqID, b.Chromosome, strand, b.Start+1, b.End, b.End-b.Start)
	}
	return nil
}

func deleteRun(w io.Writer, store *duckdb.Store, runID string) error {
	runs, err := store.Runs()
	if err != nil {
		return err
	}
	if !slices.ContainsFunc(runs, func(r duckdb.Run) bool { return r.ID == runID }) {
		return fmt.Errorf("no run %q in %s", runID, store.Path())
	}
	if err := store.DeleteRun(runID); err != nil {
		return err
	}
	fmt.Fprintf(w, "Deleted run %s\n", runID)
	return nil
}
