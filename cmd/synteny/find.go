package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/inodb/syntenyfinder/internal/duckdb"
	"github.com/inodb/syntenyfinder/internal/genome"
	"github.com/inodb/syntenyfinder/internal/output"
	"github.com/inodb/syntenyfinder/internal/synteny"
)

func newFindCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "find [flags] <fasta>...",
		Short: "Find synteny blocks in FASTA files",
		Long: `Find synteny blocks shared by the sequences of one or more FASTA files
(optionally gzipped). Every record is one chromosome.`,
		Example: `  synteny find genomes.fa
  synteny find -k 15 -m 200 --shared-only a.fa b.fa.gz
  synteny find -f coords -o blocks_coords.txt --duckdb runs.duckdb genomes.fa`,
		Args: cobra.MinimumNArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return bindFlags(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFind(cmd, args)
		},
	}

	f := cmd.Flags()
	f.IntP("k", "k", 25, "K-mer size of the bifurcation index")
	f.Int("trim-k", 0, "K-mer size used to align block ends (default: k)")
	f.IntP("min-size", "m", 500, "Minimum block length")
	f.Bool("shared-only", false, "Only report blocks found exactly once on every chromosome")
	f.StringP("format", "f", "tab", "Output format: tab, coords")
	f.StringP("output", "o", "", "Output file (default: stdout)")
	f.String("duckdb", "", "Store the run in this DuckDB database")
	f.Int("max-trim-rounds", 0, "Trimming rounds per block before giving up (default: derived)")
	f.Bool("coverage", false, "Write a coverage report to stderr")
	return cmd
}

func findConfig(logger *zap.Logger) synteny.Config {
	return synteny.Config{
		K:             viper.GetInt("k"),
		TrimK:         viper.GetInt("trim-k"),
		MinSize:       viper.GetInt("min-size"),
		SharedOnly:    viper.GetBool("shared-only"),
		MaxTrimRounds: viper.GetInt("max-trim-rounds"),
		Progress:      progressLogger(logger),
	}
}

// progressLogger reports group processing in steps of about ten percent.
func progressLogger(logger *zap.Logger) synteny.ProgressFunc {
	return func(done, total int) {
		step := max(total/10, 1)
		if done%step == 0 || done == total {
			logger.Info("processing edge groups", zap.Int("done", done), zap.Int("total", total))
		}
	}
}

func runFind(cmd *cobra.Command, paths []string) error {
	logger, err := newLogger()
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer logger.Sync()

	var out io.Writer = cmd.OutOrStdout()
	if path := viper.GetString("output"); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer f.Close()
		out = f
	}
	writer, err := output.NewBlockWriter(viper.GetString("format"), out)
	if err != nil {
		return err
	}

	chrs, err := genome.LoadFASTA(paths...)
	if err != nil {
		return err
	}
	logger.Info("loaded chromosomes", zap.Int("count", len(chrs)), zap.Strings("files", paths))

	cfg := findConfig(logger)
	finder := synteny.NewFinder(chrs)
	finder.SetLogger(logger)
	blocks, err := finder.GenerateSyntenyBlocks(cfg)
	if err != nil {
		return err
	}

	if err := writer.WriteBlocks(chrs, blocks); err != nil {
		return fmt.Errorf("writing blocks: %w", err)
	}
	if viper.GetBool("coverage") {
		if err := output.WriteCoverage(cmd.ErrOrStderr(), chrs, blocks); err != nil {
			return fmt.Errorf("writing coverage: %w", err)
		}
	}

	if dbPath := viper.GetString("duckdb"); dbPath != "" {
		return storeRun(logger, dbPath, paths, cfg, blocks)
	}
	return nil
}

func storeRun(logger *zap.Logger, dbPath string, paths []string, cfg synteny.Config, blocks []synteny.BlockInstance) error {
	store, err := duckdb.Open(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	run := duckdb.Run{
		K:          cfg.K,
		TrimK:      cfg.TrimK,
		MinSize:    cfg.MinSize,
		SharedOnly: cfg.SharedOnly,
	}
	if run.TrimK == 0 {
		run.TrimK = cfg.K
	}
	for _, p := range paths {
		fp, err := duckdb.StatFile(p)
		if err != nil {
			return fmt.Errorf("stat input: %w", err)
		}
		run.Inputs = append(run.Inputs, fp)
	}

	run, err = store.WriteRun(run, blocks)
	if err != nil {
		return fmt.Errorf("storing run: %w", err)
	}
	logger.Info("run stored",
		zap.String("run_id", run.ID),
		zap.String("database", store.Path()),
		zap.Int("blocks", run.BlockCount))
	return nil
}
