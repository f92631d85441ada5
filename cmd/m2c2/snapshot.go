package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/m2c2kit/m2c2"
	"github.com/m2c2kit/m2c2/ggcanvas"
	"github.com/m2c2kit/m2c2/internal/demo"
)

func newSnapshotCmd() *cobra.Command {
	var (
		frames int
		script string
		out    string
		seed   uint64
		locale string
	)
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Run the assessment offscreen and write the last frame as a PNG",
		Long: `Snapshot runs the assessment headlessly for a number of frames. A JSON
test script can drive taps and take screenshots along the way; the run
then lasts until the script finishes.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			var runner *m2c2.TestRunner
			if script != "" {
				if runner, err = m2c2.LoadTestScriptFile(script); err != nil {
					return err
				}
			}
			c, err := runSnapshot(cfg, demo.Options{Seed: seed, Locale: locale}, runner, frames)
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
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", out)
			return nil
		},
	}
	cmd.Flags().IntVarP(&frames, "frames", "n", 1, "frames to run (minimum when a script is given)")
	cmd.Flags().StringVar(&script, "script", "", "JSON test script")
	cmd.Flags().StringVarP(&out, "out", "o", "snapshot.png", "PNG path")
	cmd.Flags().Uint64Var(&seed, "seed", 1, "seed for target positions")
	cmd.Flags().StringVar(&locale, "locale", "en-US", "locale for instructions")
	return cmd
}

// maxScriptFrames bounds a scripted snapshot run.
const maxScriptFrames = 60 * 60

func runSnapshot(cfg config, opts demo.Options, runner *m2c2.TestRunner, frames int) (*ggcanvas.Canvas, error) {
	cfg.Game.TimeStepping = true
	g := m2c2.NewGame(cfg.Game, headlessServices(cfg.Assets))
	demo.Build(g, opts)
	if runner != nil {
		g.SetTestRunner(runner)
	}
	c := ggcanvas.New(int(g.Width()), int(g.Height()))
	for i := 0; i < maxScriptFrames; i++ {
		if i >= frames && (runner == nil || runner.Done()) {
			break
		}
		if err := g.Tick(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}
