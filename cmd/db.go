package cmd

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/visavoyage/visavoyage/pkg/storage"
)

// dbCmd represents the db command
var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Interact with the local visavoyage database",
}

// shellCmd represents the shell command
var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Start an interactive shell to the database",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := dbPath()
		if err != nil {
			return err
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			return fmt.Errorf("database file not found: %s", path)
		}

		// Check if sqlite3 is in PATH
		sqlitePath, err := exec.LookPath("sqlite3")
		if err != nil {
			return fmt.Errorf("sqlite3 command not found in your PATH. Please install it to use the db shell")
		}

		// Print schema first
		fmt.Println("--> Database schema:")
		schemaCmd := exec.Command(sqlitePath, path, ".schema")
		schemaCmd.Stdout = os.Stdout
		schemaCmd.Stderr = os.Stderr
		if err := schemaCmd.Run(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: couldn't retrieve schema: %v\n", err)
		}
		fmt.Println("\n--> Starting interactive shell... (Ctrl+D to exit)")

		c := exec.Command(sqlitePath, path)
		c.Stdin = os.Stdin
		c.Stdout = os.Stdout
		c.Stderr = os.Stderr

		return c.Run()
	},
}

// statsCmd represents the stats command
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Prints statistics about the profile, stays and cached rules in the database.",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		stats, err := db.GetStats(cmd.Context())
		if err != nil {
			return err
		}

		if !stats.HasProfile && stats.Stays == 0 && len(stats.RuleSets) == 0 {
			fmt.Println("No data in the database to generate stats.")
			return nil
		}

		return printStats(os.Stdout, stats)
	},
}

func printStats(out io.Writer, stats storage.Stats) error {
	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', tabwriter.AlignRight)
	fmt.Fprintf(w, "PROFILE\t%s\t\n", yesNo(stats.HasProfile))
	fmt.Fprintf(w, "CITIZENSHIPS\t%d\t\n", stats.Citizenships)
	fmt.Fprintf(w, "STAYS\t%d\t\n", stats.Stays)
	fmt.Fprintf(w, "COUNTRIES VISITED\t%d\t\n", stats.Countries)

	if len(stats.RuleSets) > 0 {
		fmt.Fprintln(w, " \t \t \t")
		fmt.Fprintln(w, "RULE SET\tRULES\tFETCHED\t")
		total := 0
		for _, rs := range stats.RuleSets {
			fmt.Fprintf(w, "%s\t%d\t%s\t\n", rs.Citizenship, rs.RuleCount, rs.FetchedAt.Local().Format("2006-01-02 15:04"))
			total += rs.RuleCount
		}
		fmt.Fprintln(w, " \t \t \t")
		fmt.Fprintf(w, "TOTAL\t%d\t \t\n", total)
	}

	return w.Flush()
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func init() {
	rootCmd.AddCommand(dbCmd)
	dbCmd.AddCommand(shellCmd)
	dbCmd.AddCommand(statsCmd)
}
