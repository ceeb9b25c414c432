// Package cli provides the ghminer command line.
package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ghminer/internal/adapters/driven/config/file"
	"github.com/custodia-labs/ghminer/internal/core/domain"
	"github.com/custodia-labs/ghminer/internal/logger"
)

// version is set at build time with -ldflags "-X .../cli.version=...".
var version = "dev"

var (
	configPath string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "ghminer",
	Short: "Harvest the GitHub social graph into a graph store",
	Long: `ghminer harvests repositories, issues, pull requests, users and
organizations from both GitHub API generations and records them as typed
vertices and edges. Only resources older than the configured refresh age
are fetched again.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		if verbose {
			logger.SetVerbose(true)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		"configuration file (default ~/.ghminer/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// Execute runs the root command and exits with status 1 on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// resolveConfigPath returns the --config flag or the default location.
func resolveConfigPath() (string, error) {
	if configPath != "" {
		return configPath, nil
	}
	return file.DefaultPath()
}

// loadConfig reads the configuration and applies its log settings. The
// --verbose flag wins over the configured level.
func loadConfig() (domain.Config, error) {
	path, err := resolveConfigPath()
	if err != nil {
		return domain.Config{}, err
	}
	cfg, err := file.Load(path)
	if err != nil {
		return domain.Config{}, err
	}
	if err := logger.Configure(cfg.Log.Level, cfg.Log.Format); err != nil {
		logger.Warn("%v, using info", err)
	}
	if verbose {
		logger.SetVerbose(true)
	}
	return cfg, nil
}
