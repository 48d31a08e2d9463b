package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/CaptShanks/cuprism/internal/updater"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version and check for updates",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "cuprism %s\n", version)

		c := updateChecker()
		if c == nil {
			return nil
		}
		st, err := c.Check(version)
		if err != nil {
			logger.Debug("update check failed", "error", err)
			return nil
		}
		if st.HasUpdate {
			fmt.Fprintf(out, "\nUpdate available: v%s. Run 'cuprism upgrade' to update (or re-run the install script).\n", st.Latest)
		}
		return nil
	},
}

var upgradeCmd = &cobra.Command{
	Use:   "upgrade",
	Short: "Replace this binary with the latest release",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if updater.IsDevBuild(version) {
			return fmt.Errorf("cannot upgrade a development build (%s)", version)
		}

		dir, err := updater.DefaultCacheDir()
		if err != nil {
			return err
		}
		// Always ask GitHub, the cached answer may be stale
		st, err := updater.NewChecker(dir, cfg.Update.IntervalDays).Fresh().Check(version)
		if err != nil {
			fmt.Fprintln(cmd.ErrOrStderr(), updater.FallbackMessage(err))
			return fmt.Errorf("error checking for updates: %w", err)
		}
		if !st.HasUpdate {
			fmt.Fprintln(cmd.OutOrStdout(), "Already up to date.")
			return nil
		}

		newVer, err := updater.Upgrade(version)
		if err != nil {
			fmt.Fprintln(cmd.ErrOrStderr(), updater.FallbackMessage(err))
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Upgraded to v%s. Restart cuprism to use the new version.\n", newVer)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(versionCmd, upgradeCmd)
}
