package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"vagahunter-engine/internal/config"
)

var version = "dev"

var (
	dataDir     string
	userCfgPath string
	cfgVal      atomic.Value // config.Config
)

var rootCmd = &cobra.Command{
	Use:   "vagahunter",
	Short: "Job board scraper with AI match scoring",
	Long:  "Searches several job boards concurrently, scores each new posting against the query with an LLM, and keeps the results in a local database.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loadDotEnv(dataDir)

		p, err := config.EnsureUserConfig(dataDir)
		if err != nil {
			return fmt.Errorf("bootstrap config: %w", err)
		}
		userCfgPath = p

		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfgVal.Store(cfg)

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
	SilenceUsage: true,
}

// loadDotEnv reads .env from the data dir and the working dir. Variables
// already set win.
func loadDotEnv(dir string) {
	for _, p := range []string{filepath.Join(dir, ".env"), ".env"} {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "warning: %s: %v\n", p, err)
		}
	}
}

func loadConfig() (config.Config, error) {
	c, err := config.Load(userCfgPath)
	if err != nil {
		return config.Config{}, err
	}
	if err := config.OverlayQueries(c, filepath.Join(dataDir, "queries.yml")); err != nil {
		return config.Config{}, err
	}
	if c.App.DataDir == "" || c.App.DataDir == "." {
		c.App.DataDir = dataDir
	}
	return *c, nil
}

func currentConfig() config.Config {
	return cfgVal.Load().(config.Config)
}

func defaultDataDir() string {
	if d := os.Getenv("VAGAHUNTER_DATA_DIR"); d != "" {
		return d
	}
	return "."
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", defaultDataDir(), "directory holding config.yml, the database and the lock file")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
