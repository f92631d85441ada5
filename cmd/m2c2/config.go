package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/m2c2kit/m2c2"
	"github.com/m2c2kit/m2c2/eventlog"
	"github.com/m2c2kit/m2c2/internal/demo"
)

// config is the CLI configuration file.
//
//	game:
//	  version: 1
//	  fps: 60
//	event_log:
//	  backend: redis
//	  addr: localhost:6379
//	debug_addr: localhost:6060
//	assets: ./assets
type config struct {
	Game      m2c2.GameOptions `yaml:"-"`
	EventLog  eventlog.Config  `yaml:"event_log"`
	DebugAddr string           `yaml:"debug_addr"`
	Assets    string           `yaml:"assets"`
}

func defaultConfig() config {
	game, _ := m2c2.ParseGameOptions([]byte("version: 1"))
	game.Name = "tap-the-dot"
	game.Width, game.Height = demo.Width, demo.Height
	return config{
		Game:     game,
		EventLog: eventlog.Config{Backend: "file", Dir: "sessions"},
		Assets:   ".",
	}
}

// parseConfig decodes a config file. The game section goes through
// m2c2.ParseGameOptions, so it needs a version; without a game section the
// defaults are kept.
func parseConfig(data []byte) (config, error) {
	cfg := defaultConfig()
	var raw struct {
		Game   yaml.Node `yaml:"game"`
		config `yaml:",inline"`
	}
	raw.config = cfg
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return config{}, fmt.Errorf("parse config: %w", err)
	}
	cfg = raw.config
	if !raw.Game.IsZero() {
		b, err := yaml.Marshal(&raw.Game)
		if err != nil {
			return config{}, fmt.Errorf("parse config: %w", err)
		}
		game, err := m2c2.ParseGameOptions(b)
		if err != nil {
			return config{}, err
		}
		cfg.Game = game
	}
	return cfg, nil
}

func loadConfig(cmd *cobra.Command) (config, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		return defaultConfig(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return config{}, err
	}
	return parseConfig(data)
}
