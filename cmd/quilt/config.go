package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"

	"github.com/pthm/quilt/internal/cli"
	"github.com/pthm/quilt/pkg/fragfile"
)

var configShowSource bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration utilities",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	Long: `Show the effective configuration after merging defaults, config file, and
environment variables.

With --source, also show which config file was read and which fragment file
it points at.`,
	Example: `  # Show effective configuration
  quilt config show

  # Show where the configuration and fragments come from
  quilt config show --source`,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if configShowSource {
			writeSources(out, configPath, cfg)
		}

		data, err := yaml.Marshal(cfg)
		if err != nil {
			return err
		}
		_, err = out.Write(data)
		return err
	},
}

func init() {
	configShowCmd.Flags().BoolVar(&configShowSource, "source", false, "show config and fragment file sources")
	configCmd.AddCommand(configShowCmd)
}

// writeSources describes the config file and the fragment file it selects.
func writeSources(w io.Writer, path string, c *cli.Config) {
	if path == "" {
		path = "(none, using defaults)"
	}
	_, _ = fmt.Fprintf(w, "Config file:    %s\n", path)

	fragments := c.ResolvedFragments("")
	f, err := fragfile.Load(fragments)
	switch {
	case err != nil:
		_, _ = fmt.Fprintf(w, "Fragment file:  %s (%v)\n", fragments, err)
	default:
		_, _ = fmt.Fprintf(w, "Fragment file:  %s (%d fragments, %d aliases)\n",
			fragments, len(f.Fragments), len(f.Aliases))
	}
	_, _ = fmt.Fprintln(w)
}
