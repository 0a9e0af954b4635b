package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"ottermap/internal/logging"

	"github.com/spf13/cobra"
)

var (
	verbose   bool
	logFormat string
	logger    = slog.New(slog.DiscardHandler)
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "replay",
	Short: "Replay polygon editing scenarios headlessly",
	Long: `Replay drives the map surface and interaction controller from YAML
scenario files: mode commands and pointer events at pixel positions. The
polygons left in the store are printed as a GeoJSON FeatureCollection.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := "warn"
		if verbose {
			level = "debug"
		}
		logger = logging.Setup(logging.Config{Level: level, Format: logFormat})
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main().
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "Log format: text, json")
}
