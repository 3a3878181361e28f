package main

import (
	"fmt"
	"log"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourusername/keiba-stats/internal/calculator"
	"github.com/yourusername/keiba-stats/internal/config"
	applog "github.com/yourusername/keiba-stats/internal/logger"
	"github.com/yourusername/keiba-stats/internal/metrics"
	"github.com/yourusername/keiba-stats/internal/parser"
	"github.com/yourusername/keiba-stats/internal/service"
	"github.com/yourusername/keiba-stats/internal/stats"
	"github.com/yourusername/keiba-stats/internal/store"
)

// Build information - set via ldflags
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

var (
	configFile string
	jsonOutput bool
	logger     *logrus.Logger
	cfg        *config.Config

	datasets   *store.FileStore
	audit      *applog.AuditLogger
	ingestor   *service.Ingestor
	reconciler *service.Reconciler
	engine     *stats.Engine
	calc       *calculator.Calculator
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "./config/config.yaml", "Path to configuration file")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Print results as JSON")

	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(updatePayoutsCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(calcCmd)
	rootCmd.AddCommand(compareCmd)
	rootCmd.AddCommand(rollingCmd)
	rootCmd.AddCommand(datasetsCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

var rootCmd = &cobra.Command{
	Use:   "keiba",
	Short: "JRA race-card and payout statistics",
	Long: `Parses pasted JRA race results and payout listings into per-meeting datasets and
computes win rates and expected values by market popularity for every ticket type.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd == versionCmd {
			return nil
		}
		if err := loadConfig(); err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		if err := setupDependencies(); err != nil {
			return fmt.Errorf("failed to setup dependencies: %w", err)
		}
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print build information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("keiba %s (commit %s, built %s)\n", Version, GitCommit, BuildDate)
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Error: %v", err)
	}
}

func loadConfig() error {
	var err error
	cfg, err = config.LoadWithDefaults(configFile)
	if err != nil {
		return err
	}
	if err := config.Validate(cfg); err != nil {
		return err
	}
	return config.ValidateEnvironment(cfg)
}

func setupDependencies() error {
	logger = applog.NewLogger(cfg.App.LogLevel, cfg.App.Environment)
	metrics.InitRegistry()

	validator := service.NewDataValidator(logger)
	normalizer := service.NewDataNormalizer(logger)
	audit = applog.NewAuditLogger(logger)

	var err error
	datasets, err = store.NewFileStore(cfg.StoragePath(), validator, audit, logger)
	if err != nil {
		return fmt.Errorf("failed to open dataset store: %w", err)
	}

	parserOpts := parser.DefaultOptions()
	parserOpts.FloorYear = cfg.Parser.FloorYear
	parserOpts.MaxHorseNumber = cfg.Parser.MaxHorseNumber
	payouts := parser.NewPayoutParser(logger)

	ingestor = service.NewIngestor(
		parser.NewRaceCardParser(logger, parserOpts),
		payouts,
		validator,
		normalizer,
		applog.NewIngestionLogger(logger),
	)
	reconciler = service.NewReconciler(payouts, normalizer, logger)

	statsLogger := applog.NewStatsLogger(logger)
	cache := stats.NewTableCache(
		time.Duration(cfg.Stats.CacheTTLSeconds)*time.Second,
		time.Duration(cfg.Stats.CacheCleanupSeconds)*time.Second,
	)
	engine = stats.NewEngine(stats.Options{
		MaxRank:           cfg.Stats.MaxRank,
		TrendThreshold:    cfg.Stats.TrendThreshold,
		RecentRaces:       cfg.Stats.RecentRaces,
		RollingWindowDays: cfg.Stats.RollingWindowDays,
		RollingStepDays:   cfg.Stats.RollingStepDays,
		RollingMinRaces:   cfg.Stats.RollingMinRaces,
	}, cache, statsLogger)
	calc = calculator.NewCalculator(cfg.Calculator.WarnThreshold, statsLogger)

	logger.WithFields(logrus.Fields{
		"store":   datasets.Path(),
		"version": Version,
	}).Debug("Dependencies initialized")
	return nil
}
