package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/cognicore/mycin/pkg/mycin/config"
)

// cli holds the global flags and the logger shared by every subcommand.
type cli struct {
	verbose bool
	logger  *zap.Logger
}

func main() {
	config.LoadEnv()
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	c := &cli{logger: zap.NewNop()}

	root := &cobra.Command{
		Use:   "mycin",
		Short: "Certainty-factor backward-chaining expert system shell",
		Long: `mycin runs consultations over a YAML knowledge base.

Goal parameters are resolved by backward chaining: the rules concluding a
parameter are tried, and whatever they need is asked for. Answers and
conclusions carry certainty factors in [-1, 1].`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg := zap.NewProductionConfig()
			level, err := zapcore.ParseLevel(config.LogLevel())
			if err != nil {
				level = zapcore.InfoLevel
			}
			if c.verbose {
				level = zapcore.DebugLevel
			}
			cfg.Level = zap.NewAtomicLevelAt(level)
			logger, err := cfg.Build()
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			c.logger = logger
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = c.logger.Sync()
		},
	}
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(
		c.consultCmd(),
		c.rulesCmd(),
		c.checkCmd(),
		c.sessionsCmd(),
		c.showCmd(),
	)
	return root
}
