package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage synteny configuration",
		Long: `Show, get, or set configuration values. Config is stored in ~/.synteny.yaml.
Keys match the find flags (k, trim-k, min-size, shared-only, format, duckdb, ...).`,
		Example: `  synteny config                  # show all config
  synteny config set min-size 200  # default minimum block length
  synteny config get min-size      # get a value`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigShow(cmd.OutOrStdout())
		},
	}

	cmd.AddCommand(newConfigSetCmd())
	cmd.AddCommand(newConfigGetCmd())

	return cmd
}

func newConfigSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigSet(cmd.OutOrStdout(), args[0], args[1])
		},
	}
}

func newConfigGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Get a configuration value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigGet(cmd.OutOrStdout(), args[0])
		},
	}
}

// fileConfig loads the config file alone, without the flag defaults and
// environment layered on the global viper.
func fileConfig() (*viper.Viper, string, error) {
	path, err := configPath()
	if err != nil {
		return nil, "", err
	}
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, "", fmt.Errorf("reading config: %w", err)
	}
	return v, path, nil
}

func runConfigShow(w io.Writer) error {
	v, _, err := fileConfig()
	if err != nil {
		return err
	}
	settings := v.AllSettings()
	if len(settings) == 0 {
		fmt.Fprintln(w, "# No configuration set. Config file: ~/"+configName+".yaml")
		return nil
	}

	out, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	fmt.Fprint(w, string(out))
	return nil
}

func runConfigSet(w io.Writer, key, value string) error {
	v, cfgFile, err := fileConfig()
	if err != nil {
		return err
	}

	// Parse boolean-like values
	switch value {
	case "true", "yes", "on":
		v.Set(key, true)
	case "false", "no", "off":
		v.Set(key, false)
	default:
		v.Set(key, value)
	}

	if err := v.WriteConfigAs(cfgFile); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	fmt.Fprintf(w, "Set %s = %s in %s\n", key, value, cfgFile)
	return nil
}

func runConfigGet(w io.Writer, key string) error {
	val := viper.Get(key)
	if val == nil {
		return fmt.Errorf("key %q is not set", key)
	}
	fmt.Fprintln(w, val)
	return nil
}
