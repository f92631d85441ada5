// Command m2c2 plays, records, replays and inspects m2c2 sessions.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/m2c2kit/m2c2"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		logFormat string
		logLevel  string
	)
	root := &cobra.Command{
		Use:           "m2c2",
		Short:         "Play, record and replay m2c2 assessments",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			l, err := newLogger(logFormat, logLevel)
			if err != nil {
				return err
			}
			m2c2.SetLogger(l)
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			m2c2.Logger().Sync()
		},
	}
	root.PersistentFlags().String("config", "", "YAML config file (game options, event log, debug server)")
	root.PersistentFlags().StringVar(&logFormat, "log-format", "console", "log format: console or json")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn or error")

	root.AddCommand(
		newPlayCmd(),
		newReplayCmd(),
		newSnapshotCmd(),
		newInspectCmd(),
		newSessionsCmd(),
	)
	return root
}

// newLogger builds a development logger for console output or a
// production logger for JSON.
func newLogger(format, level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid --log-level: %w", err)
	}
	var cfg zap.Config
	switch strings.ToLower(format) {
	case "console":
		cfg = zap.NewDevelopmentConfig()
	case "json":
		cfg = zap.NewProductionConfig()
	default:
		return nil, fmt.Errorf("invalid --log-format %q", format)
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	return cfg.Build()
}
