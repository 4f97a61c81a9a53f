package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	_ "github.com/lib/pq"
	"github.com/spf13/cobra"

	"github.com/pthm/quilt/internal/cli"
	"github.com/pthm/quilt/internal/doctor"
)

var (
	doctorDB          string
	doctorFragments   string
	doctorVerbose     bool
	doctorRoots       []string
	doctorSampleLimit int
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Run health checks",
	Long: `Run health checks on a fragment file.

Checks that the file loads, that every fragment resolves and renders with
both assembly strategies and, when a database is configured, that both
renderings return the same rows.`,
	Example: `  # Check the fragment file only
  quilt doctor

  # Also compare strategies against a database
  quilt doctor --db postgres://localhost/mydb

  # Compare a single root with verbose output
  quilt doctor --db postgres://localhost/mydb --root joined --verbose`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := resolveString(doctorFragments, cfg.ResolvedFragments(cfg.Doctor.Fragments))
		verboseFlag := resolveBool(doctorVerbose, cfg.Doctor.Verbose)

		roots := cfg.Doctor.Roots
		if len(doctorRoots) > 0 {
			roots = doctorRoots
		}
		sampleLimit := cfg.Doctor.SampleLimit
		if cmd.Flags().Changed("sample-limit") {
			sampleLimit = doctorSampleLimit
		}

		opts := []doctor.Option{
			doctor.WithRoots(roots...),
			doctor.WithSampleLimit(sampleLimit),
			doctor.WithComposerOptions(composerOptions()...),
			doctor.WithLogger(logger),
		}

		if doctorDB != "" || cfg.HasDatabase() {
			dsn, err := resolveDSN(doctorDB)
			if err != nil {
				return err
			}
			db, err := sql.Open("postgres", dsn)
			if err != nil {
				return cli.DBConnectError("connecting to database", err)
			}
			defer func() { _ = db.Close() }()
			opts = append(opts, doctor.WithDB(db))
		}

		return runDoctor(cmd.Context(), path, verboseFlag, opts)
	},
}

func init() {
	f := doctorCmd.Flags()
	f.StringVar(&doctorDB, "db", "", "database URL")
	f.StringVarP(&doctorFragments, "fragments", "f", "", "path to fragment file")
	f.BoolVar(&doctorVerbose, "verbose", false, "show detailed output")
	f.StringSliceVar(&doctorRoots, "root", nil, "fragments to compare against the database (default: all)")
	f.IntVar(&doctorSampleLimit, "sample-limit", doctor.DefaultSampleLimit, "largest result compared row by row")
}

// resolveDSN returns the database URL from the flag or configuration.
func resolveDSN(flagDSN string) (string, error) {
	if flagDSN != "" {
		return flagDSN, nil
	}

	dsn, err := cfg.DSN()
	if err != nil {
		return "", cli.ConfigError("database configuration", err)
	}
	return dsn, nil
}

func runDoctor(ctx context.Context, path string, verboseFlag bool, opts []doctor.Option) error {
	if ctx == nil {
		ctx = context.Background()
	}

	if !quiet {
		fmt.Println(titleStyle.Render("quilt doctor - Health Check"))
	}

	report, err := doctor.New(path, opts...).Run(ctx)
	if err != nil {
		return cli.GeneralError("running doctor", err)
	}

	report.Print(os.Stdout, verboseFlag)

	if report.HasErrors() {
		fmt.Println(failureStyle.Render("Health checks failed."))
		return cli.GeneralError("health checks failed", nil)
	}
	if !quiet {
		fmt.Println(successStyle.Render("All health checks passed."))
	}
	return nil
}
