package main

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/deppfellow/calculator-api/internal/config"
	"github.com/deppfellow/calculator-api/internal/logger"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "calcapi",
		Short:        "Calculator HTTP API",
		SilenceUsage: true,
	}

	root.AddCommand(
		newServeCmd(),
		newMigrateCmd(),
		newCalcCmd(),
		newSmokeCmd(),
	)
	return root
}

// runtime is what serve and migrate share: validated config plus the
// logging stack built from it.
type runtime struct {
	cfg           *config.Config
	logger        zerolog.Logger
	loggerService *logger.LoggerService
}

func loadRuntime() (*runtime, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}

	loggerService := logger.NewLoggerService(cfg.Observability)
	return &runtime{
		cfg:           cfg,
		logger:        logger.NewLoggerWithService(cfg.Observability, loggerService),
		loggerService: loggerService,
	}, nil
}
