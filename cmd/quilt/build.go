package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pthm/quilt/internal/cli"
)

var buildFlags strategyFlags

var buildCmd = &cobra.Command{
	Use:   "build ROOT",
	Short: "Assemble a fragment into a SQL query",
	Long:  `Resolve ROOT's dependencies and print the assembled SQL query.`,
	Example: `  # Nest dependencies as derived tables
  quilt build joined

  # Publish dependencies as CTEs named after their fragments
  quilt build joined --cte --full-names

  # Use a specific fragment file
  quilt build joined -f sql/fragments.toml`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadComposer(buildFlags.fragments)
		if err != nil {
			return err
		}

		q, err := c.Build(args[0], buildFlags.buildOptions(cmd)...)
		if err != nil {
			return cli.FragmentsError(fmt.Sprintf("building %q", args[0]), err)
		}

		_, err = fmt.Fprintln(cmd.OutOrStdout(), q.SQL())
		return err
	},
}

func init() {
	buildFlags.register(buildCmd)
}
