package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/visavoyage/visavoyage/internal/utils"
	"github.com/visavoyage/visavoyage/pkg/refdata"
	"github.com/visavoyage/visavoyage/pkg/report"
	"github.com/visavoyage/visavoyage/pkg/storage"
	"github.com/visavoyage/visavoyage/pkg/travel"
)

var stayCmd = &cobra.Command{
	Use:     "stay",
	Aliases: []string{"stays"},
	Short:   "Log, list and delete stays abroad",
}

var stayAddCmd = &cobra.Command{
	Use:     "add",
	Short:   "Log a stay",
	Example: `  visavoyage stay add --country FR --entry 2024-06-01 --exit 2024-06-10`,
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		country, _ := cmd.Flags().GetString("country")
		entry, _ := cmd.Flags().GetString("entry")
		exit, _ := cmd.Flags().GetString("exit")

		stay, err := travel.ValidateNewStay(strings.ToUpper(strings.TrimSpace(country)), entry, exit)
		if err != nil {
			return err
		}

		src, err := newSource()
		if err != nil {
			return err
		}
		if err := checkCodes([]string{stay.CountryCode}, loadCountries(cmd.Context(), src)); err != nil {
			return err
		}

		return withWriteLock(func(db *storage.DB) error {
			stays, err := db.AddStay(cmd.Context(), stay)
			if err != nil {
				return err
			}
			days, _ := stay.Duration()
			utils.Log.Infof("Logged %d day(s) in %s as %s (%d stay(s) total).", days, stay.CountryCode, stay.ID, len(stays))
			return nil
		})
	},
}

var stayRmCmd = &cobra.Command{
	Use:     "rm <id>",
	Aliases: []string{"delete"},
	Short:   "Delete a stay by id",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withWriteLock(func(db *storage.DB) error {
			stays, err := db.RemoveStay(cmd.Context(), args[0])
			if errors.Is(err, storage.ErrStayNotFound) {
				return fmt.Errorf("no stay with id %s (see 'visavoyage stay list')", args[0])
			}
			if err != nil {
				return err
			}
			utils.Log.Infof("Deleted stay %s (%d stay(s) left).", args[0], len(stays))
			return nil
		})
	},
}

var stayListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List stays, newest first, with the visa status for each citizenship",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		output, _ := cmd.Flags().GetString("output")
		delimiter, _ := cmd.Flags().GetString("delimiter")
		if output != "" {
			if err := report.ValidateOutputFlags(output); err != nil {
				return err
			}
		}

		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		ctx := cmd.Context()
		profile, _, err := db.GetUserProfile(ctx)
		if err != nil {
			return err
		}
		stays, err := db.GetStays(ctx)
		if err != nil {
			return err
		}
		cache, err := db.GetRuleCache(ctx)
		if err != nil {
			return err
		}
		if len(stays) == 0 {
			utils.Log.Info("No stays logged yet. Use 'visavoyage stay add'.")
			return nil
		}

		var countries map[string]travel.Country
		if src, err := newSource(); err != nil {
			utils.Log.Warnf("Could not open reference data: %v", err)
		} else {
			countries = refdata.Lookup(loadCountries(ctx, src))
		}

		rows := report.BuildRows(stays, countries, profile, cache)
		if output == "" {
			return report.PrintTable(os.Stdout, rows)
		}
		return report.PrintRows(os.Stdout, rows, output, delimiter)
	},
}

func init() {
	rootCmd.AddCommand(stayCmd)
	stayCmd.AddCommand(stayAddCmd)
	stayCmd.AddCommand(stayRmCmd)
	stayCmd.AddCommand(stayListCmd)

	stayAddCmd.Flags().String("country", "", "Country code of the destination (e.g. FR)")
	stayAddCmd.Flags().String("entry", "", "Entry date (YYYY-MM-DD)")
	stayAddCmd.Flags().String("exit", "", "Exit date (YYYY-MM-DD)")

	stayListCmd.Flags().StringP("output", "o", "", "Output flags instead of a table. Supported: i (id), c (country), e (entry), x (exit), d (days), s (status). Example: -o cexs")
	stayListCmd.Flags().StringP("delimiter", "d", " ", "Delimiter character to use with --output")
}
