package m2c2

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// GameOptions configure a Game. They load from YAML with LoadGameOptions.
type GameOptions struct {
	Version         int     `yaml:"version"`
	Name            string  `yaml:"name"`
	Width           float64 `yaml:"width"`
	Height          float64 `yaml:"height"`
	FPS             int     `yaml:"fps"`
	BackgroundColor *Color  `yaml:"background_color"`
	// TimeStepping advances the game clock by exactly one frame period per
	// Update instead of reading wall time.
	TimeStepping bool           `yaml:"time_stepping"`
	EventStore   EventStoreMode `yaml:"event_store"`
	Debug        bool           `yaml:"debug"`
	// ScreenshotDir receives PNG files written by Screenshot.
	ScreenshotDir string `yaml:"screenshot_dir"`
	// DragDeadZone is the distance, in canvas units, a pointer must move
	// before a press on a draggable node becomes a drag.
	DragDeadZone float64 `yaml:"drag_dead_zone"`
}

const configVersion = 1

// UnmarshalYAML reads a color as a [r, g, b, a] sequence.
func (c *Color) UnmarshalYAML(value *yaml.Node) error {
	var v []float64
	if err := value.Decode(&v); err != nil {
		return err
	}
	if len(v) != 4 {
		return fmt.Errorf("m2c2: color needs 4 components, got %d", len(v))
	}
	*c = Color{v[0], v[1], v[2], v[3]}
	return nil
}

// MarshalYAML writes a color as a [r, g, b, a] sequence.
func (c Color) MarshalYAML() (any, error) {
	return []float64{c.R, c.G, c.B, c.A}, nil
}

// LoadGameOptions reads GameOptions from a YAML file.
func LoadGameOptions(path string) (GameOptions, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return GameOptions{}, err
	}
	return ParseGameOptions(b)
}

// ParseGameOptions decodes YAML game options and fills in defaults.
func ParseGameOptions(data []byte) (GameOptions, error) {
	var opts GameOptions
	if err := yaml.Unmarshal(data, &opts); err != nil {
		return GameOptions{}, fmt.Errorf("m2c2: parse game options: %w", err)
	}
	if opts.Version != configVersion {
		return GameOptions{}, fmt.Errorf("m2c2: unsupported game options version: %d", opts.Version)
	}
	return opts.withDefaults(), nil
}

// withDefaults fills unset fields.
func (o GameOptions) withDefaults() GameOptions {
	if o.Width <= 0 {
		o.Width = 400
	}
	if o.Height <= 0 {
		o.Height = 800
	}
	if o.FPS <= 0 {
		o.FPS = 60
	}
	if o.BackgroundColor == nil {
		o.BackgroundColor = Ptr(ColorWhite)
	}
	if o.ScreenshotDir == "" {
		o.ScreenshotDir = "screenshots"
	}
	if o.DragDeadZone <= 0 {
		o.DragDeadZone = defaultDragDeadZone
	}
	return o
}

// FramePeriod returns the length of one frame in milliseconds.
func (o GameOptions) FramePeriod() float64 {
	if o.FPS <= 0 {
		return 1000.0 / 60
	}
	return 1000.0 / float64(o.FPS)
}
