package app

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/tenantdesk/tenantdesk/internal/daemon"
)

func init() { //nolint: gochecknoinits
	rootCmd.AddCommand(migrateCmd, seedCmd)
}

var (
	migrateCmd = &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database tables",
		RunE: func(_ *cobra.Command, _ []string) error {
			db, err := daemon.OpenDB(&cfg)
			if err != nil {
				return err //nolint:wrapcheck
			}

			if err := daemon.Migrate(db); err != nil {
				return err //nolint:wrapcheck
			}

			log.Info().Msg("database migrated")

			return nil
		},
	}

	seedCmd = &cobra.Command{
		Use:   "seed",
		Short: "Migrate and seed system roles, menu items and the bootstrap administrator",
		RunE: func(_ *cobra.Command, _ []string) error {
			db, err := daemon.OpenDB(&cfg)
			if err != nil {
				return err //nolint:wrapcheck
			}

			if err := daemon.Migrate(db); err != nil {
				return err //nolint:wrapcheck
			}

			res, err := daemon.Seed(&cfg, db)
			if err != nil {
				return err //nolint:wrapcheck
			}

			log.Info().Uint("tenant_id", res.TenantID).Uint64("admin_id", res.AdminID).Msg("database seeded")

			return nil
		},
	}
)
