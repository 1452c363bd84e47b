package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/visavoyage/visavoyage/internal/utils"
	"github.com/visavoyage/visavoyage/pkg/refdata"
	"github.com/visavoyage/visavoyage/pkg/storage"
	"github.com/visavoyage/visavoyage/pkg/travel"
	"github.com/visavoyage/visavoyage/pkg/whttp"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "visavoyage",
	Short: "Track your stays abroad and the visa rules that applied to them.",
	Long: `visavoyage keeps a local log of the countries you stayed in and, for every
citizenship you hold, tells you whether each stay was visa-free, required a
visa, or is not covered by the rules synced so far.

Rules are read from static JSON files (a URL or a local directory, see --data)
and cached locally, so everything keeps working offline once synced.`,
	SilenceUsage: true,
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		levelString, _ := cmd.Flags().GetString("loglevel")
		return utils.SetLogLevel(levelString)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.visavoyage.yaml)")

	// Global flags
	rootCmd.PersistentFlags().StringP("loglevel", "l", "info", "Set log level. Available: debug, info, warn, error, fatal")
	rootCmd.PersistentFlags().String("dbpath", "", "Path to SQLite DB file (default: ~/.config/visavoyage/visavoyage.sqlite)")
	rootCmd.PersistentFlags().String("data", "", "Reference data location: a URL or a directory holding countries.json and rules/<CODE>.json")
	rootCmd.PersistentFlags().StringP("proxy", "", "", "HTTP Proxy (Useful for debugging. Example: http://127.0.0.1:8080)")

	_ = viper.BindPFlag("db.path", rootCmd.PersistentFlags().Lookup("dbpath"))
	_ = viper.BindPFlag("data.source", rootCmd.PersistentFlags().Lookup("data"))
	_ = viper.BindPFlag("http.proxy", rootCmd.PersistentFlags().Lookup("proxy"))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := homedir.Dir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		viper.AddConfigPath(home)
		viper.SetConfigName(".visavoyage")
		viper.SetConfigType("yaml")
	}

	// VISAVOYAGE_* variables may also come from a .env file in the working directory.
	_ = godotenv.Load(".env")

	viper.SetEnvPrefix("visavoyage")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok && cfgFile == "" {
			// Config file not found; create it with defaults.
			home, _ := homedir.Dir()
			configPath := filepath.Join(home, ".visavoyage.yaml")
			if err := viper.SafeWriteConfigAs(configPath); err != nil {
				utils.Log.Debugf("Could not create config file: %v", err)
			}
		} else {
			utils.Log.Warnf("Could not read config file: %v", err)
		}
	}
}

func setDefaults() {
	viper.SetDefault("db.path", "")
	viper.SetDefault("data.source", "~/.config/visavoyage/data")
	viper.SetDefault("sync.concurrency", 3)
	viper.SetDefault("sync.rate", 0)
	viper.SetDefault("http.retries", 3)
	viper.SetDefault("http.timeout", "30s")
	viper.SetDefault("http.proxy", "")
}

func expandPath(p string) (string, error) {
	expanded, err := homedir.Expand(p)
	if err != nil {
		return "", err
	}
	return utils.GetAbsDBPath(expanded)
}

func dbPath() (string, error) {
	return expandPath(viper.GetString("db.path"))
}

func openDB() (*storage.DB, error) {
	path, err := dbPath()
	if err != nil {
		return nil, err
	}
	utils.Log.Debugf("Opening database %s", path)
	return storage.Open(path, storage.DefaultDBTimeout)
}

// withWriteLock opens the database under the advisory write lock and runs fn.
func withWriteLock(fn func(db *storage.DB) error) error {
	path, err := dbPath()
	if err != nil {
		return err
	}
	lock, err := utils.NewDBLock(path)
	if err != nil {
		return err
	}
	if err := lock.Lock(); err != nil {
		return err
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			utils.Log.Warnf("%v", err)
		}
	}()

	db, err := storage.Open(path, storage.DefaultDBTimeout)
	if err != nil {
		return err
	}
	defer db.Close()
	return fn(db)
}

func newSource() (refdata.Source, error) {
	s, err := loadSettings()
	if err != nil {
		return nil, err
	}
	client, err := whttp.NewClient(whttp.Options{
		Retries: s.Retries,
		Timeout: s.Timeout,
		Proxy:   s.Proxy,
		Logger:  utils.Log,
	})
	if err != nil {
		return nil, err
	}

	location := s.DataSource
	if !strings.Contains(location, "://") {
		if location, err = homedir.Expand(location); err != nil {
			return nil, err
		}
	}
	return refdata.New(location, client)
}

// loadCountries fetches the catalog sorted by name. A catalog that cannot be
// loaded is logged and returned empty so offline commands keep working.
func loadCountries(ctx context.Context, src refdata.Source) []travel.Country {
	countries, err := src.Countries(ctx)
	if err != nil {
		utils.Log.Warnf("Could not load countries catalog: %v", err)
		return nil
	}
	refdata.SortCountries(countries)
	return countries
}

// checkCodes rejects codes missing from a non-empty catalog.
func checkCodes(codes []string, countries []travel.Country) error {
	if len(countries) == 0 {
		return nil
	}
	known := refdata.Lookup(countries)
	var unknown []string
	for _, c := range codes {
		if _, ok := known[c]; !ok {
			unknown = append(unknown, c)
		}
	}
	if len(unknown) > 0 {
		return fmt.Errorf("unknown country code(s): %s (see 'visavoyage countries')", strings.Join(unknown, ", "))
	}
	return nil
}
