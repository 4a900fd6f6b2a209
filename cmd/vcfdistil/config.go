package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func (a *app) newConfigCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage vcfdistil configuration",
		Long:  "Show, get, or set configuration values. Config is stored in ~/.vcfdistil.yaml.",
		Example: `  vcfdistil config                          # show all config
  vcfdistil config --format toml            # show all config as TOML
  vcfdistil config set filter vep-csq       # use a filter by default
  vcfdistil config get filter               # get a value`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runConfigShow(cmd.OutOrStdout(), format)
		},
	}
	cmd.Flags().StringVar(&format, "format", "yaml", "output format: yaml or toml")

	cmd.AddCommand(a.newConfigSetCmd())
	cmd.AddCommand(a.newConfigGetCmd())

	return cmd
}

func (a *app) newConfigSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runConfigSet(cmd.OutOrStdout(), args[0], args[1])
		},
	}
}

func (a *app) newConfigGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Get a configuration value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runConfigGet(cmd.OutOrStdout(), args[0])
		},
	}
}

// settings returns the values set in the config file or environment,
// leaving out flags that were never given.
func (a *app) settings() map[string]any {
	out := make(map[string]any)
	for _, key := range a.v.AllKeys() {
		if !a.v.IsSet(key) {
			continue
		}
		switch val := a.v.Get(key); v := val.(type) {
		case string:
			if v != "" {
				out[key] = v
			}
		case bool:
			if v {
				out[key] = v
			}
		default:
			out[key] = val
		}
	}
	return out
}

func (a *app) runConfigShow(w io.Writer, format string) error {
	settings := a.settings()
	if len(settings) == 0 {
		fmt.Fprintln(w, "# No configuration set. Config file: ~/.vcfdistil.yaml")
		return nil
	}

	var (
		out []byte
		err error
	)
	switch format {
	case "yaml":
		out, err = yaml.Marshal(settings)
	case "toml":
		out, err = toml.Marshal(settings)
	default:
		return withExit(ExitUsage, fmt.Errorf("unknown format %q (want yaml or toml)", format))
	}
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	_, err = w.Write(out)
	return err
}

func (a *app) runConfigSet(w io.Writer, key, value string) error {
	// Parse boolean-like values
	switch value {
	case "true", "yes", "on":
		a.v.Set(key, true)
	case "false", "no", "off":
		a.v.Set(key, false)
	default:
		a.v.Set(key, value)
	}

	cfgFile := a.v.ConfigFileUsed()
	if cfgFile == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return withExit(ExitFileIO, fmt.Errorf("cannot determine home directory: %w", err))
		}
		cfgFile = filepath.Join(home, ".vcfdistil.yaml")
	}

	if err := a.v.WriteConfigAs(cfgFile); err != nil {
		return withExit(ExitFileIO, fmt.Errorf("writing config: %w", err))
	}

	fmt.Fprintf(w, "Set %s = %s in %s\n", key, value, cfgFile)
	return nil
}

func (a *app) runConfigGet(w io.Writer, key string) error {
	val := a.v.Get(key)
	if val == nil {
		return withExit(ExitUsage, fmt.Errorf("key %q is not set", key))
	}
	fmt.Fprintln(w, val)
	return nil
}
