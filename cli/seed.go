package cli

import (
	"github.com/ABFerraz00/mandacafe/config"
	"github.com/ABFerraz00/mandacafe/services"

	"github.com/spf13/cobra"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load the starter menu into an empty database",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := bootstrap()
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()

		db, err := config.OpenDB(cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer config.Close(db)

		if err := config.Migrate(db); err != nil {
			return err
		}
		seeded, err := services.SeedMenu(cmd.Context(), db, services.NewMenuService(db))
		if err != nil {
			return err
		}
		if seeded {
			logger.Info("starter menu loaded")
		} else {
			logger.Info("database already has categories, nothing seeded")
		}
		return nil
	},
}
