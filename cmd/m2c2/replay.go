package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/m2c2kit/m2c2"
	"github.com/m2c2kit/m2c2/ebitenkit"
	"github.com/m2c2kit/m2c2/eventlog"
	"github.com/m2c2kit/m2c2/ggcanvas"
)

func newReplayCmd() *cobra.Command {
	var (
		headless bool
		out      string
		through  int64
		settle   int
	)
	cmd := &cobra.Command{
		Use:   "replay <session-id>",
		Short: "Rebuild a recorded session from its events",
		Long: `Replay loads a session from the event log and materializes its events
at their recorded times. With --headless the result is rendered offscreen
and written as a PNG; otherwise it plays in a window.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			log, err := eventlog.Open(cmd.Context(), cfg.EventLog)
			if err != nil {
				return err
			}
			defer log.Close()
			events, err := log.Load(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("load session %s: %w", args[0], err)
			}

			if headless {
				c, g, err := replayHeadless(cfg.Game, cfg.Assets, events, through, settle)
				if err != nil {
					return err
				}
				f, err := os.Create(out)
				if err != nil {
					return err
				}
				defer f.Close()
				if err := c.EncodePNG(f); err != nil {
					return fmt.Errorf("write %s: %w", out, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "replayed %d events, %d nodes, wrote %s\n",
					len(events), g.Materializer().Len(), out)
				return nil
			}

			cfg.Game.EventStore = m2c2.EventStoreDisabled
			g := m2c2.NewGame(cfg.Game, m2c2.Services{
				Fonts:      m2c2.NewDefaultFonts(),
				Images:     ebitenkit.NewImages(os.DirFS(cfg.Assets), nil),
				Typesetter: ebitenkit.NewTypesetter(),
			})
			if through > 0 {
				g.EventStore().ReplayThroughSequence(through)
			}
			if err := g.Replay(events); err != nil {
				return err
			}
			return ebitenkit.Run(g, ebitenkit.RunConfig{Title: "replay " + args[0]})
		},
	}
	cmd.Flags().BoolVar(&headless, "headless", false, "render offscreen and write a PNG")
	cmd.Flags().StringVarP(&out, "out", "o", "replay.png", "PNG path for --headless")
	cmd.Flags().Int64Var(&through, "through", 0, "stop at this event sequence number (0 replays all)")
	cmd.Flags().IntVar(&settle, "settle", 60, "frames to run after the last event with --headless")
	return cmd
}

// headlessServices returns services for offscreen rendering with the
// bundled font.
func headlessServices(assets string) m2c2.Services {
	return m2c2.Services{
		Fonts:      m2c2.NewDefaultFonts(),
		Images:     ggcanvas.NewImages(os.DirFS(assets), nil),
		Typesetter: ggcanvas.NewTypesetter(),
	}
}

// replayHeadless replays events onto a gg canvas in stepped time until the
// replay queue drains, then runs settle more frames so actions started by
// the last events finish.
func replayHeadless(opts m2c2.GameOptions, assets string, events []m2c2.Event, through int64, settle int) (*ggcanvas.Canvas, *m2c2.Game, error) {
	if len(events) == 0 {
		return nil, nil, m2c2.ErrReplayEmpty
	}
	opts.TimeStepping = true
	opts.EventStore = m2c2.EventStoreDisabled
	g := m2c2.NewGame(opts, headlessServices(assets))
	if through > 0 {
		g.EventStore().ReplayThroughSequence(through)
	}
	if err := g.Replay(events); err != nil {
		return nil, nil, err
	}

	opts = g.Options()
	var span float64
	for _, e := range events {
		span = max(span, e.Timestamp-events[0].Timestamp)
	}
	limit := int(span/opts.FramePeriod()) + 2
	c := ggcanvas.New(int(opts.Width), int(opts.Height))
	frames := 0
	for ; g.EventStore().Pending() > 0 && frames < limit; frames++ {
		if err := g.Tick(c); err != nil {
			return nil, nil, fmt.Errorf("replay frame %d: %w", frames, err)
		}
	}
	for range settle {
		if err := g.Tick(c); err != nil {
			return nil, nil, fmt.Errorf("replay frame %d: %w", frames, err)
		}
		frames++
	}
	m2c2.Logger().Info("replay finished",
		zap.Int("events", len(events)),
		zap.Int("frames", frames),
		zap.Int("nodes", g.Materializer().Len()),
	)
	return c, g, nil
}
