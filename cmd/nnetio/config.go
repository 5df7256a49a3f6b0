package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

const envConfigPath = "NNETIO_CONFIG"

// Config represents the nnetio configuration file
// (~/.config/nnetio/config.yaml). Pointer fields distinguish "not set" from
// zero values.
type Config struct {
	MaxLayers     *int   `yaml:"max_layers"`
	LogLevel      string `yaml:"log_level"`
	LogFormat     string `yaml:"log_format"`
	ServerAddress string `yaml:"server_address"`
	OutputBinary  *bool  `yaml:"output_binary"`
}

func configPath() string {
	if p := os.Getenv(envConfigPath); p != "" {
		return p
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "nnetio", "config.yaml")
}

// LoadConfig reads the config file at path. A missing file yields a zero
// Config and no error.
func LoadConfig(path string) (Config, error) {
	if path == "" {
		return Config{}, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Config{}, nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// applyConfig applies config file defaults to the root flags that were not
// set on the command line.
func (g *globals) applyConfig(c *cli.Command) {
	if g.cfg.LogLevel != "" && !c.IsSet("log-level") {
		g.logLevel = g.cfg.LogLevel
	}
	if g.cfg.LogFormat != "" && !c.IsSet("log-format") {
		g.logFormat = g.cfg.LogFormat
	}
	if g.cfg.MaxLayers != nil && !c.IsSet("max-layers") {
		g.maxLayers = *g.cfg.MaxLayers
	}
}

// applyServeConfig applies config file defaults to serve command variables.
func (g *globals) applyServeConfig(c *cli.Command, addr *string) {
	if g.cfg.ServerAddress != "" && !c.IsSet("addr") {
		*addr = g.cfg.ServerAddress
	}
}
