package cli

import (
	"github.com/ABFerraz00/mandacafe/config"
	"github.com/ABFerraz00/mandacafe/utils"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const serviceName = "mandacafe-api"

var configPath string

var rootCmd = &cobra.Command{
	Use:           "mandacafe",
	Short:         "Manda Café menu API",
	Long:          "Public menu and administrative dish management API for Manda Café",
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "optional YAML config file")
	rootCmd.AddCommand(serveCmd, migrateCmd, seedCmd)
}

// Execute runs the CLI
func Execute() error {
	return rootCmd.Execute()
}

// bootstrap loads and validates configuration and builds the logger.
func bootstrap() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	logger, err := utils.NewLogger(cfg.LogLevel, cfg.Env)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}
