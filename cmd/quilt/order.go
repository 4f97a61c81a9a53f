package main

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/pthm/quilt/internal/cli"
)

var orderFlags strategyFlags

var orderCmd = &cobra.Command{
	Use:   "order ROOT",
	Short: "Show the build order of a fragment",
	Long: `Show the fragments ROOT depends on in the order they are assembled,
with the alias each one is referenced by.`,
	Example: `  # Show build order with generated aliases
  quilt order joined

  # Show build order with fragment-name aliases
  quilt order joined --full-names`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadComposer(orderFlags.fragments)
		if err != nil {
			return err
		}

		plan, err := c.Plan(args[0], orderFlags.buildOptions(cmd)...)
		if err != nil {
			return cli.FragmentsError(fmt.Sprintf("resolving %q", args[0]), err)
		}

		rows := make([][]string, 0, len(plan.Order)+1)
		for i, name := range plan.Order {
			rows = append(rows, []string{strconv.Itoa(i + 1), name, plan.Aliases[name]})
		}
		rows = append(rows, []string{"-", plan.Root, "(root)"})

		_, _ = fmt.Fprintln(cmd.OutOrStdout(), planTable(rows).String())

		if !quiet {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "\nStrategy: %s\n", plan.Strategy)
		}
		return nil
	},
}

func init() {
	orderFlags.register(orderCmd)
}

// planTable lays out plan rows in plain, border-less columns so the output
// stays readable when piped.
func planTable(rows [][]string) *table.Table {
	const lastCol = 2
	return table.New().
		Headers("#", "FRAGMENT", "ALIAS").
		Rows(rows...).
		BorderTop(false).
		BorderBottom(false).
		BorderLeft(false).
		BorderRight(false).
		BorderHeader(false).
		BorderColumn(false).
		BorderRow(false).
		StyleFunc(func(row, col int) lipgloss.Style {
			if col == lastCol {
				return lipgloss.NewStyle()
			}
			return lipgloss.NewStyle().PaddingRight(2)
		})
}
