package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var version = "0.2.0"

var (
	cfgFile  string
	logStyle string
	logLevel string
	verbose  bool
)

var rootCmd = &cobra.Command{
	Use:   "palimpsest",
	Short: "Palimpsest - document text extraction with OCR reconciliation",
	Long: `Palimpsest extracts text from PDFs and scanned images by reconciling
the embedded text layer with OCR output, page by page.

Pages with a rich text layer are taken as-is; sparse or empty pages are
rasterized and recognized under several preprocessing and segmentation
configurations, and the most plausible reading wins.`,
	Version: version,
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		var perr processingError
		if errors.As(err, &perr) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

// processingError marks failures of the pipeline itself, as opposed to
// usage errors; main maps it to a distinct exit code.
type processingError struct{ err error }

func (e processingError) Error() string { return e.err.Error() }
func (e processingError) Unwrap() error { return e.err }

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default $HOME/.palimpsest.yaml)")
	rootCmd.PersistentFlags().StringVar(&logStyle, "log", "console", "log style: console, json, noop")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "shorthand for --log-level debug")

	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("palimpsest", version)
	},
}

// initConfig loads processing defaults from the config file and the
// PALIMPSEST_* environment, in that precedence order below flags.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(home)
		}
		viper.AddConfigPath(".")
		viper.SetConfigName(".palimpsest")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("PALIMPSEST")
	viper.AutomaticEnv()

	// A missing config file is fine; the defaults stand.
	_ = viper.ReadInConfig()
}

// newLogger builds the CLI logger in the requested style. All styles
// write to stderr so stdout stays clean for extracted text.
func newLogger() *zap.Logger {
	level := zapcore.WarnLevel
	if lvl, err := zapcore.ParseLevel(logLevel); err == nil {
		level = lvl
	}
	if verbose {
		level = zapcore.DebugLevel
	}

	var cfg zap.Config
	switch logStyle {
	case "noop":
		return zap.NewNop()
	case "json":
		cfg = zap.NewProductionConfig()
	default:
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(level)

	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}
