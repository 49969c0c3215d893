// Command redraft rewrites prose and referenced images inside markup
// documents using external generation capabilities.
//
// Usage:
//
//	redraft run doc.html other.html         # rewrite documents in place
//	redraft run --workspace ./site doc.html # resolve image refs against ./site
//	redraft serve --listen :8086            # expose POST /rewrite over HTTP
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	flagConfig   string
	flagLogLevel string
)

var rootCmd = &cobra.Command{
	Use:   "redraft",
	Short: "redraft — regenerate prose and images inside markup documents",
	Long: `redraft parses markup documents, walks their node trees under a
generation budget, rephrases prose text nodes and regenerates referenced
raster images through external capabilities, and writes the documents back
with untouched regions preserved byte-for-byte.`,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		setupLogging(flagLogLevel)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "path to redraft.yaml config file")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "log level: debug, info, warn, error")
}

func setupLogging(level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)
}

func main() {
	// API keys commonly live in a .env next to the binary; absence is fine.
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
