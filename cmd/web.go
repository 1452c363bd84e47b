package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/visavoyage/visavoyage/internal/server"
)

// webCmd represents the web command
var webCmd = &cobra.Command{
	Use:   "web",
	Short: "Start a local read-only JSON view of your stays",
	Long: `Start a web server exposing the profile, stays with their visa status, the
countries catalog and database stats as JSON. Nothing can be changed through it.
It has no authentication, so keep it bound to localhost.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("bind")
		ttl, _ := cmd.Flags().GetDuration("catalog-ttl")
		if ttl <= 0 {
			return fmt.Errorf("--catalog-ttl must be positive, got %s", ttl)
		}

		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		src, err := newSource()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return server.New(db, src, ttl).Start(ctx, addr)
	},
}

func init() {
	rootCmd.AddCommand(webCmd)

	webCmd.Flags().StringP("bind", "b", "127.0.0.1:9999", "Address to bind the server to")
	webCmd.Flags().Duration("catalog-ttl", time.Hour, "How long the countries catalog is cached before it is reloaded")
}
