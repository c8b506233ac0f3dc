// Package cmd implements the leggio command line interface.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dodogabrie/image-processing-leggio/internal/config"
	"github.com/dodogabrie/image-processing-leggio/internal/scanner"
)

var (
	// Global configuration loader.
	configLoader *config.Loader
	// Global configuration.
	globalConfig *config.Config
	// Configuration file path.
	cfgFile string
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "leggio",
	Short: "Document scan engine for photographed books and pages",
	Long: `leggio turns photos of documents on a book cradle into clean page scans.

It detects the page boundary on the capture surface, finds the book fold,
classifies the document (single page, book spread, or partial page), applies
perspective correction and splits spreads into left and right pages.

Examples:
  leggio scan photo.jpg -o pages/
  leggio batch captures/ --recursive --output-dir pages/
  leggio serve --port 8080`,
	RunE: func(cmd *cobra.Command, args []string) error {
		v, _ := cmd.PersistentFlags().GetBool("version")
		if v {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "leggio version %s\n", version)
			return nil
		}
		return cmd.Help()
	},
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// GetRootCommand returns the root command for testing purposes.
func GetRootCommand() *cobra.Command {
	return rootCmd
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default is search in ., $HOME, $HOME/.config/leggio, /etc/leggio)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output (equivalent to --log-level=debug)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("version", false, "print version information and exit")

	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))

	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if globalConfig == nil {
			initConfig()
		}

		var logLevel slog.Level
		if globalConfig.Verbose {
			logLevel = slog.LevelDebug
		} else {
			switch globalConfig.LogLevel {
			case "debug":
				logLevel = slog.LevelDebug
			case "warn":
				logLevel = slog.LevelWarn
			case "error":
				logLevel = slog.LevelError
			default:
				logLevel = slog.LevelInfo
			}
		}

		logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
			Level: logLevel,
		}))
		slog.SetDefault(logger)
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	configLoader = config.NewLoader()

	var err error
	if cfgFile != "" {
		globalConfig, err = configLoader.LoadWithFile(cfgFile)
	} else {
		globalConfig, err = configLoader.Load()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}
}

// GetConfig returns the resolved configuration including CLI flag overrides.
func GetConfig() *config.Config {
	if globalConfig == nil {
		initConfig()
	}

	// Flag binding happens after the initial load, so re-unmarshal to pick
	// up flag values.
	loader := GetConfigLoader()
	var cfg config.Config
	if err := loader.GetViper().Unmarshal(&cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error unmarshaling updated configuration: %v\n", err)
		return globalConfig
	}
	return &cfg
}

// GetConfigLoader returns the global configuration loader.
func GetConfigLoader() *config.Loader {
	if configLoader == nil {
		configLoader = config.NewLoader()
	}
	return configLoader
}

// scannerConfigFromFlags maps the resolved configuration to scanner.Config,
// letting changed CLI flags win over config file values.
func scannerConfigFromFlags(cfg *config.Config, cmd *cobra.Command) scanner.Config {
	sc := cfg.Scanner

	if cmd.Flags().Changed("quality-threshold") {
		sc.QualityThreshold, _ = cmd.Flags().GetFloat64("quality-threshold")
	}
	if cmd.Flags().Changed("contour-border") {
		sc.ContourBorder, _ = cmd.Flags().GetInt("contour-border")
	}
	if cmd.Flags().Changed("fold-border") {
		sc.FoldBorder, _ = cmd.Flags().GetInt("fold-border")
	}
	if cmd.Flags().Changed("center-search-ratio") {
		sc.CenterSearchRatio, _ = cmd.Flags().GetFloat64("center-search-ratio")
	}
	if cmd.Flags().Changed("jpeg-quality") {
		sc.JPEGQuality, _ = cmd.Flags().GetInt("jpeg-quality")
	}
	if cmd.Flags().Changed("debug") {
		sc.Debug, _ = cmd.Flags().GetBool("debug")
	}
	return sc
}

// addScannerFlags registers the pipeline tuning flags shared by scan,
// batch and serve.
func addScannerFlags(cmd *cobra.Command) {
	defaults := scanner.DefaultConfig()
	cmd.Flags().Float64("quality-threshold", defaults.QualityThreshold,
		"minimum fold quality for spread splitting (0.0-1.0)")
	cmd.Flags().Int("contour-border", defaults.ContourBorder,
		"pixel margin kept around the corrected page")
	cmd.Flags().Int("fold-border", defaults.FoldBorder,
		"pixel overlap each half keeps past the fold")
	cmd.Flags().Float64("center-search-ratio", defaults.CenterSearchRatio,
		"width of the central fold search band as a fraction of image width")
	cmd.Flags().Int("jpeg-quality", defaults.JPEGQuality, "JPEG quality for saved pages (0-100)")
	cmd.Flags().Bool("debug", false, "enable per-stage debug logging")
}
