package cli

import (
	"github.com/spf13/cobra"

	"github.com/custodia-labs/ghminer/internal/adapters/driven/config/file"
	"github.com/custodia-labs/ghminer/internal/core/domain"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the configuration file",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter configuration file",
	Long: `Writes a commented starter configuration to the --config path, or to
~/.ghminer/config.toml. An existing file is never overwritten.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		path, err := resolveConfigPath()
		if err != nil {
			return err
		}
		if err := file.WriteDefault(path); err != nil {
			return err
		}
		cmd.Printf("Wrote %s\n", path)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		cmd.Printf("database:      %s %s\n", cfg.Database.Engine, cfg.Database.URL)
		cmd.Printf("refresh days:  %g\n", cfg.Harvest.RefreshDays)
		cmd.Printf("projects:      %d\n", len(cfg.Harvest.Projects))
		cmd.Printf("users:         %d\n", len(cfg.Harvest.Users))
		cmd.Printf("organizations: %d\n", len(cfg.Harvest.Organizations))
		for _, id := range []string{domain.ChannelV2, domain.ChannelV3} {
			l := cfg.Throttle[id]
			if l.Enabled() {
				cmd.Printf("throttle %s:   %d calls per %s\n", id, l.MaxCalls, l.Interval)
			} else {
				cmd.Printf("throttle %s:   off\n", id)
			}
		}
		if cfg.GitHub.Token != "" {
			cmd.Println("token:         set")
		} else {
			cmd.Println("token:         not set")
		}
		return cfg.Validate()
	},
}

func init() {
	configCmd.AddCommand(configInitCmd, configShowCmd)
	rootCmd.AddCommand(configCmd)
}
