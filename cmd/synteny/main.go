// Package main provides the synteny command-line tool.
package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/inodb/syntenyfinder/internal/synteny"
)

// Exit codes
const (
	ExitSuccess = 0
	ExitError   = 1
	ExitUsage   = 2
)

// Version information (set at build time)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const configName = ".synteny"

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	root := newRootCmd()
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if errors.Is(err, synteny.ErrInvalidConfig) {
			return ExitUsage
		}
		return ExitError
	}
	return ExitSuccess
}

func newRootCmd() *cobra.Command {
	var cfgFile string

	cmd := &cobra.Command{
		Use:   "synteny",
		Short: "Find synteny blocks shared by a set of genomes",
		Long: `synteny finds segments that several genomes share in the same order and
orientation, without overlap, using the branch points of their de Bruijn graph.`,
		Version:       fmt.Sprintf("%s (%s) built %s", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig(cfgFile)
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default: ~/"+configName+".yaml)")
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Log debug messages")
	viper.BindPFlag("verbose", cmd.PersistentFlags().Lookup("verbose"))

	cmd.AddCommand(newFindCmd())
	cmd.AddCommand(newRunsCmd())
	cmd.AddCommand(newConfigCmd())

	return cmd
}

// initConfig layers the config file and SYNTENY_* environment variables
// under the command line flags.
func initConfig(cfgFile string) error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
		}
		viper.SetConfigName(configName)
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("SYNTENY")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("reading config: %w", err)
		}
	}
	return nil
}

// bindFlags binds the local flags of the running command to viper keys of
// the same name. Commands share keys, so binding waits until one is chosen.
func bindFlags(cmd *cobra.Command) error {
	if err := viper.BindPFlags(cmd.LocalNonPersistentFlags()); err != nil {
		return fmt.Errorf("binding flags: %w", err)
	}
	return nil
}

// configPath returns the file config changes are written to.
func configPath() (string, error) {
	if f := viper.ConfigFileUsed(); f != "" {
		return f, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, configName+".yaml"), nil
}

// newLogger builds the stderr logger for a command.
func newLogger() (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.EncoderConfig = zap.NewDevelopmentEncoderConfig()
	cfg.DisableStacktrace = true
	if viper.GetBool("verbose") {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	return cfg.Build()
}
