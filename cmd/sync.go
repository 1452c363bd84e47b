package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/time/rate"

	"github.com/visavoyage/visavoyage/internal/utils"
	"github.com/visavoyage/visavoyage/pkg/rulesync"
	"github.com/visavoyage/visavoyage/pkg/storage"
)

// syncCmd fetches the rule sets missing for the saved citizenships.
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Fetch visa rules for citizenships that have none cached yet",
	Long: `Fetch visa rules for every citizenship of the profile that has no cached rule
set yet. Rule sets already cached are never refetched; a citizenship whose
fetch failed is retried on the next sync.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withWriteLock(func(db *storage.DB) error {
			profile, ok, err := db.GetUserProfile(cmd.Context())
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("no profile saved yet, run 'visavoyage profile set' first")
			}
			return runSync(cmd.Context(), db, profile.Citizenships)
		})
	},
}

func init() {
	rootCmd.AddCommand(syncCmd)
	rootCmd.PersistentFlags().Int("concurrency", 3, "Number of concurrent rule set fetches")
	rootCmd.PersistentFlags().Float64("rate", 0, "Maximum rule set fetches per second (0 = unlimited)")
	_ = viper.BindPFlag("sync.concurrency", rootCmd.PersistentFlags().Lookup("concurrency"))
	_ = viper.BindPFlag("sync.rate", rootCmd.PersistentFlags().Lookup("rate"))
}

// runSync fetches the sync gap for citizenships into db. Fetch failures are
// logged; only an unreadable cache or source setup error is returned.
func runSync(ctx context.Context, db *storage.DB, citizenships []string) error {
	s, err := loadSettings()
	if err != nil {
		return err
	}
	src, err := newSource()
	if err != nil {
		return err
	}

	cfg := rulesync.Config{
		Source:      src,
		Store:       db,
		Concurrency: s.Concurrency,
		Log:         utils.Log,
	}
	if s.Rate > 0 {
		cfg.Limiter = rate.NewLimiter(rate.Limit(s.Rate), 1)
	}

	res, err := rulesync.Sync(ctx, cfg, citizenships)
	if err != nil {
		return err
	}

	switch {
	case len(res.Needed) == 0:
		utils.Log.Info("Visa rules are up to date.")
	case res.Complete():
		utils.Log.Infof("Fetched visa rules for %d citizenship(s).", len(res.Fetched))
	default:
		utils.Log.Warnf("Fetched %d of %d rule set(s); run 'visavoyage sync' later to retry the rest.", len(res.Fetched), len(res.Needed))
	}
	return nil
}
