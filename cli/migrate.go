package cli

import (
	"github.com/ABFerraz00/mandacafe/config"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the categorias and pratos tables",
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
		logger.Info("schema migrated", zap.String("database", config.Driver(cfg.DatabaseURL)))
		return nil
	},
}
