package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/visavoyage/visavoyage/internal/utils"
	"github.com/visavoyage/visavoyage/pkg/storage"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete the profile, all stays and all cached visa rules",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		yes, _ := cmd.Flags().GetBool("yes")
		if !yes {
			return fmt.Errorf("this deletes all local data; rerun with --yes to confirm")
		}
		return withWriteLock(func(db *storage.DB) error {
			if err := db.ClearAll(cmd.Context()); err != nil {
				return err
			}
			utils.Log.Info("All local data deleted.")
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(resetCmd)
	resetCmd.Flags().Bool("yes", false, "Confirm deletion of all local data")
}
