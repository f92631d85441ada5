package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/m2c2kit/m2c2"
	"github.com/m2c2kit/m2c2/debugserver"
	"github.com/m2c2kit/m2c2/ebitenkit"
	"github.com/m2c2kit/m2c2/eventlog"
	"github.com/m2c2kit/m2c2/internal/demo"
)

func newPlayCmd() *cobra.Command {
	var (
		seed     uint64
		locale   string
		noRecord bool
		showFPS  bool
		scale    float64
	)
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play the tap-the-dot assessment in a window and record the session",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if !noRecord {
				cfg.Game.EventStore = m2c2.EventStoreRecord
			}
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			var game *m2c2.Game
			game = m2c2.NewGame(cfg.Game, m2c2.Services{
				Images:     ebitenkit.NewImages(os.DirFS(cfg.Assets), func() (string, string) { return game.Locales() }),
				Fonts:      m2c2.NewDefaultFonts(),
				Sounds:     ebitenkit.NewSounds(ebitenkit.AudioContext(), os.DirFS(cfg.Assets)),
				Typesetter: ebitenkit.NewTypesetter(),
			})
			d := demo.Build(game, demo.Options{Seed: seed, Locale: locale})

			var log eventlog.Log
			var rec *eventlog.Recorder
			if !noRecord {
				log, err = eventlog.Open(ctx, cfg.EventLog)
				if err != nil {
					return err
				}
				defer log.Close()
				rec = eventlog.NewRecorder(log, game.UUID(), game.EventStore())
				rec.Attach(game)
			}
			if cfg.DebugAddr != "" {
				srv := debugserver.New(game, log)
				go func() {
					if err := srv.ListenAndServe(ctx, cfg.DebugAddr); err != nil {
						m2c2.Logger().Error("debug server stopped", zap.Error(err))
					}
				}()
			}

			runErr := ebitenkit.Run(game, ebitenkit.RunConfig{WindowScale: scale, ShowFPS: showFPS})
			if rec != nil {
				if err := rec.Flush(context.Background()); err != nil {
					return fmt.Errorf("save session: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "session %s: %d events, %d trials, mean reaction time %.0f ms\n",
					game.UUID(), rec.Written(), len(d.Results()), d.MeanReactionTime())
			}
			return runErr
		},
	}
	cmd.Flags().Uint64Var(&seed, "seed", 1, "seed for target positions")
	cmd.Flags().StringVar(&locale, "locale", "en-US", "locale for instructions")
	cmd.Flags().BoolVar(&noRecord, "no-record", false, "do not record the session")
	cmd.Flags().BoolVar(&showFPS, "fps", false, "show an FPS overlay")
	cmd.Flags().Float64Var(&scale, "scale", 1, "window scale")
	return cmd
}
