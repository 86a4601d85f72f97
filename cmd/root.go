package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/TruWeaveTrader/pairs-gym/internal/alpaca"
	"github.com/TruWeaveTrader/pairs-gym/internal/cache"
	"github.com/TruWeaveTrader/pairs-gym/internal/config"
	"github.com/TruWeaveTrader/pairs-gym/internal/market"
	"github.com/TruWeaveTrader/pairs-gym/internal/risk"
)

var (
	// Global instances
	cfg         *config.Config
	client      *alpaca.Client
	dataCache   *cache.Cache
	loader      *market.Loader
	riskManager *risk.Manager
	logger      *zap.Logger
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "pairs-gym",
	Short: "Statistical arbitrage research harness for pairs trading",
	Long: `pairs-gym tests two instruments for cointegration, turns their spread
into a z-score signal and trains or backtests trading agents against a
step-driven pairs trading environment.`,
	PersistentPreRunE: initializeApp,
	SilenceUsage:      true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().String("config", "", "config file (yaml, json or toml)")
	rootCmd.PersistentFlags().Bool("verbose", false, "verbose output")
	rootCmd.PersistentFlags().String("data", "", "read prices from a timestamp,A,B CSV instead of the API")
}

// initConfig sets up logging before any command runs.
func initConfig() {
	// Configure logger: default INFO, DEBUG if DEBUG env is truthy or --verbose
	verbose, _ := rootCmd.PersistentFlags().GetBool("verbose")
	if v := os.Getenv("DEBUG"); v == "true" || v == "1" || v == "yes" {
		verbose = true
	}

	zcfg := zap.NewProductionConfig()
	zcfg.EncoderConfig.TimeKey = "time"
	zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if verbose {
		zcfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	} else {
		zcfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}

	var err error
	logger, err = zcfg.Build()
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
}

// initializeApp sets up all dependencies
func initializeApp(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")

	// Load configuration
	var err error
	cfg, err = config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize components
	client = alpaca.NewClient(cfg)
	dataCache = cache.NewCache(cfg.CacheTTL)
	loader = market.NewLoader(client, dataCache, cfg.Timeframe, logger)
	riskManager = risk.NewManager(cfg)

	logger.Debug("configuration loaded",
		zap.String("pair", cfg.TickerA+"/"+cfg.TickerB),
		zap.String("timeframe", cfg.Timeframe),
		zap.Float64("initial_balance", cfg.InitialBalance))

	return nil
}
