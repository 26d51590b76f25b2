package cmd

import (
	"context"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/yewpar-go/yewpar/pkg/config"
	"github.com/yewpar-go/yewpar/pkg/telemetry"
	"github.com/yewpar-go/yewpar/pkg/utils"
)

var (
	// Global flags
	verbose    bool
	configPath string
	otelFlag   bool

	logger    utils.Logger
	appConfig *config.Config
	otelStop  telemetry.ShutdownFunc
)

// rootCmd represents the base command.
var rootCmd = &cobra.Command{
	Use:   "treesearch",
	Short: "Run parallel tree-search skeletons over example problems",
	Long: `treesearch runs one of the YewPar-style parallel tree-search skeletons
(sequential, depth-bounded with work-stealing, or branch-and-bound) against
one of the bundled example problems: UTS (binomial/geometric), 0/1
knapsack, or maximum clique.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logLevel := utils.LevelInfo
		if verbose {
			logLevel = utils.LevelDebug
		}
		logger = utils.NewDefaultLogger(logLevel, os.Stdout)

		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		appConfig = cfg

		if otelFlag {
			os.Setenv("OTEL_ENABLED", "true")
		}
		stop, err := telemetry.Init(context.Background())
		if err != nil {
			return err
		}
		otelStop = stop

		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if otelStop != nil {
			return otelStop(context.Background())
		}
		return nil
	},
}

// Execute adds all child commands to the root command and runs it.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (defaults to ./config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&otelFlag, "otel", false, "Enable OpenTelemetry tracing for this run")

	binName := BinName()
	rootCmd.Example = `  # Count nodes in a binomial UTS tree
  ` + binName + ` run --problem uts --skeleton-type seq --until-depth 10

  # Same tree, distributed across simulated localities with work-stealing
  ` + binName + ` run --problem uts --skeleton-type dist --spawn-depth 2 --until-depth 10

  # Branch-and-bound a knapsack instance, persisting the result
  ` + binName + ` run --problem knapsack --skeleton-type bnb --persist`
}

// GetLogger returns the configured logger.
func GetLogger() utils.Logger {
	return logger
}

// GetConfig returns the loaded application configuration.
func GetConfig() *config.Config {
	return appConfig
}

// BinName returns the base name of the current executable.
func BinName() string {
	return filepath.Base(os.Args[0])
}
