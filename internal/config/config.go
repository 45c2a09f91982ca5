// Package config loads the demo CLI's YAML configuration.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds everything the demo client needs to connect to a
// server and join a game.
type Config struct {
	ServerAddr  string `yaml:"server_addr"`
	PlayerName  string `yaml:"player_name"`
	Drone       bool   `yaml:"drone"`
	WadPath     string `yaml:"wad_path"`
	DehPath     string `yaml:"deh_path"`
	LogLevel    string `yaml:"log_level"`
	LogFile     string `yaml:"log_file"`
	MetricsAddr string `yaml:"metrics_addr"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		ServerAddr: "127.0.0.1:2342",
		PlayerName: "",
		LogLevel:   "info",
	}
}

// Load reads and parses a YAML config file, starting from Default so
// a partial file only overrides what it sets.
func Load(path string) (Config, error) {
	cfg := Default()

	f, err := os.Open(path)
	if err != nil {
		return cfg, fmt.Errorf("config: open %s: %w", path, err)
	}
	defer f.Close()

	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}
