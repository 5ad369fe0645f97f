// Package app implements the main application commands.
package app

import (
	"github.com/spf13/cobra"

	"github.com/tenantdesk/tenantdesk/internal/config"
	"github.com/tenantdesk/tenantdesk/internal/logger"
)

var (
	configPath string // Path to the configuration directory
	devMode    bool

	cfg config.Config
)

var rootCmd = &cobra.Command{
	Use:   "tenantdesk",
	Short: "TenantDesk is the access control API of a multi tenant HR and CRM suite",
	Long: `TenantDesk serves role assignments, menu grants and record capabilities
for the HRMS and CRM applications of every tenant.`,
	Args:              cobra.OnlyValidArgs,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

func init() { //nolint: gochecknoinits
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "./etc/", "directory holding main.toml")
	rootCmd.PersistentFlags().BoolVar(&devMode, "dev", false, "Enable dev mode")
}

// loadConfig reads the configuration and starts the logger before any command runs.
func loadConfig(_ *cobra.Command, _ []string) error {
	var err error

	if cfg, err = config.ReadConfig(configPath); err != nil {
		return err //nolint:wrapcheck
	}

	if devMode {
		cfg.DevMode = true
	}

	return logger.Init(cfg.Log) //nolint:wrapcheck
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute() //nolint:wrapcheck
}
