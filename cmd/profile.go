package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/visavoyage/visavoyage/internal/utils"
	"github.com/visavoyage/visavoyage/pkg/storage"
	"github.com/visavoyage/visavoyage/pkg/travel"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Show or edit your name and citizenships",
}

var profileShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the saved profile",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		profile, ok, err := db.GetUserProfile(cmd.Context())
		if err != nil {
			return err
		}
		if !ok {
			fmt.Println("No profile saved yet. Use 'visavoyage profile set --name <name> --citizenship <CODE>'.")
			return nil
		}

		cache, err := db.GetRuleCache(cmd.Context())
		if err != nil {
			return err
		}
		missing := travel.RulesNeeded(profile.Citizenships, cache)

		fmt.Printf("Name:         %s\n", profile.Name)
		fmt.Printf("Citizenships: %s\n", strings.Join(profile.Citizenships, ", "))
		if len(missing) > 0 {
			fmt.Printf("Not synced:   %s\n", strings.Join(missing, ", "))
		}
		return nil
	},
}

var profileSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Save your name and citizenships, then sync their visa rules",
	Example: `  visavoyage profile set --name "Jane Doe" --citizenship US
  visavoyage profile set --name "Jane Doe" -c US -c FR`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")
		codes, _ := cmd.Flags().GetStringSlice("citizenship")
		noSync, _ := cmd.Flags().GetBool("no-sync")

		profile := travel.UserProfile{
			Name:         strings.TrimSpace(name),
			Citizenships: travel.UniqueCodes(codes),
		}
		if profile.Name == "" {
			return &travel.ValidationError{Kind: travel.MissingField, Field: "name"}
		}
		if len(profile.Citizenships) == 0 {
			return &travel.ValidationError{Kind: travel.MissingField, Field: "citizenship"}
		}

		src, err := newSource()
		if err != nil {
			return err
		}
		if err := checkCodes(profile.Citizenships, loadCountries(cmd.Context(), src)); err != nil {
			return err
		}

		return withWriteLock(func(db *storage.DB) error {
			if err := db.SetUserProfile(cmd.Context(), profile); err != nil {
				return err
			}
			utils.Log.Infof("Profile saved for %s (%s).", profile.Name, strings.Join(profile.Citizenships, ", "))
			if noSync {
				return nil
			}
			return runSync(cmd.Context(), db, profile.Citizenships)
		})
	},
}

func init() {
	rootCmd.AddCommand(profileCmd)
	profileCmd.AddCommand(profileShowCmd)
	profileCmd.AddCommand(profileSetCmd)

	profileSetCmd.Flags().StringP("name", "n", "", "Your name")
	profileSetCmd.Flags().StringSliceP("citizenship", "c", nil, "Citizenship country code, repeatable or comma-separated (e.g. US,FR)")
	profileSetCmd.Flags().Bool("no-sync", false, "Save without fetching visa rules")
}
