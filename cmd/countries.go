package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/visavoyage/visavoyage/pkg/refdata"
)

var countriesCmd = &cobra.Command{
	Use:   "countries",
	Short: "List the countries known to the reference data, sorted by name",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		delimiter, _ := cmd.Flags().GetString("delimiter")

		src, err := newSource()
		if err != nil {
			return err
		}
		countries, err := src.Countries(cmd.Context())
		if err != nil {
			return fmt.Errorf("could not load countries: %w", err)
		}
		refdata.SortCountries(countries)

		for _, c := range countries {
			fmt.Println(strings.Join([]string{c.Code, c.Flag, c.Name}, delimiter))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(countriesCmd)
	countriesCmd.Flags().StringP("delimiter", "d", " ", "Delimiter between code, flag and name")
}
