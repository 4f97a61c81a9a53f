package main

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/pthm/quilt"
	"github.com/pthm/quilt/internal/cli"
	"github.com/pthm/quilt/pkg/fragfile"
)

var (
	// Global state set during PersistentPreRunE
	cfg        *cli.Config
	configPath string
	logger     = zerolog.Nop()

	// Persistent flags
	cfgFile string
	verbose int
	quiet   bool
)

var rootCmd = &cobra.Command{
	Use:   "quilt",
	Short: "Compose SQL queries from named fragments",
	Long: `quilt - Compose SQL queries from named fragments

Quilt assembles a query out of independently defined fragments, nesting each
dependency as a derived table or publishing it as a common table expression.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip config loading for help/completion/version commands
		if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "version" {
			return nil
		}

		var err error
		cfg, configPath, err = cli.LoadConfig(cfgFile)
		if err != nil {
			return cli.ConfigError("loading configuration", err)
		}

		logger, err = cli.NewLogger(os.Stderr, cli.LogOptions{
			Level:     cfg.Log.Level,
			Verbosity: verbose,
			Quiet:     quiet,
			Console:   true,
		})
		if err != nil {
			return cli.ConfigError("configuring logging", err)
		}
		logger.Debug().Str("config", configPath).Msg("loaded configuration")

		return nil
	},
	SilenceUsage:  true, // Don't show usage on errors
	SilenceErrors: true, // We handle errors ourselves
}

// Command group IDs
const (
	groupFragments = "fragments"
	groupUtility   = "utility"
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: auto-discover quilt.yaml)")
	rootCmd.PersistentFlags().CountVarP(&verbose, "verbose", "v", "increase verbosity (can be repeated)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress non-error output")

	rootCmd.AddGroup(
		&cobra.Group{ID: groupFragments, Title: "Fragments:"},
		&cobra.Group{ID: groupUtility, Title: "Utility:"},
	)

	buildCmd.GroupID = groupFragments
	orderCmd.GroupID = groupFragments
	doctorCmd.GroupID = groupFragments
	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(orderCmd)
	rootCmd.AddCommand(doctorCmd)

	initCmd.GroupID = groupUtility
	configCmd.GroupID = groupUtility
	versionCmd.GroupID = groupUtility
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		cli.ExitWithError(err)
	}
}

// resolveString returns the first non-empty string from the provided values.
// Used to implement precedence: flag > config > default.
func resolveString(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// resolveBool returns true if any of the provided values is true.
// Used for boolean flags where any true value should win.
func resolveBool(values ...bool) bool {
	for _, v := range values {
		if v {
			return true
		}
	}
	return false
}

// strategyFlags are the assembly flags shared by build and order.
type strategyFlags struct {
	cte       bool
	fullNames bool
	fragments string
}

func (f *strategyFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&f.cte, "cte", false, "assemble dependencies as CTEs (default from build.use_cte)")
	cmd.Flags().BoolVar(&f.fullNames, "full-names", false, "alias dependencies by fragment name (default from build.use_aliases)")
	cmd.Flags().StringVarP(&f.fragments, "fragments", "f", "", "path to fragment file")
}

// buildOptions turns explicitly set flags into per-call overrides of the
// configured composer defaults.
func (f *strategyFlags) buildOptions(cmd *cobra.Command) []quilt.BuildOption {
	var opts []quilt.BuildOption
	if cmd.Flags().Changed("cte") {
		opts = append(opts, quilt.UseCTE(f.cte))
	}
	if cmd.Flags().Changed("full-names") {
		opts = append(opts, quilt.UseAliases(!f.fullNames))
	}
	return opts
}

// composerOptions returns the composer defaults from configuration.
func composerOptions() []quilt.Option {
	return []quilt.Option{
		quilt.WithDefaultCTE(cfg.Build.UseCTE),
		quilt.WithDefaultAliases(cfg.Build.UseAliases),
		quilt.WithLogger(logger),
	}
}

// loadComposer loads the fragment file and returns a composer over it.
func loadComposer(fragmentsFlag string) (*quilt.Composer, error) {
	path := resolveString(fragmentsFlag, cfg.Fragments)
	logger.Debug().Str("path", path).Msg("loading fragments")

	reg, err := fragfile.Registry(path)
	if err != nil {
		return nil, cli.FragmentsError("loading fragments", err)
	}
	return quilt.New(reg, composerOptions()...), nil
}
