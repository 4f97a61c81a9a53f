package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pthm/quilt/internal/update"
	"github.com/pthm/quilt/internal/version"
)

var (
	versionShort bool
	versionCheck bool
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if versionShort {
			_, _ = fmt.Fprintln(out, version.Short())
		} else {
			_, _ = fmt.Fprintln(out, version.Info())
		}
		if !versionCheck {
			return nil
		}

		info, err := update.NewChecker().Check(cmd.Context(), version.Version)
		if err != nil {
			return fmt.Errorf("checking for updates: %w", err)
		}
		if info.UpdateAvailable {
			_, _ = fmt.Fprintln(out, hintStyle.Render(
				fmt.Sprintf("quilt %s is available (you have %s)", info.LatestVersion, info.CurrentVersion)))
		} else {
			_, _ = fmt.Fprintln(out, successStyle.Render("quilt is up to date"))
		}
		return nil
	},
}

func init() {
	versionCmd.Flags().BoolVar(&versionShort, "short", false, "print only the version number")
	versionCmd.Flags().BoolVar(&versionCheck, "check", false, "check GitHub for a newer release")
}
