// Package config loads the YAML configuration surface for dispatcher and
// worker processes, mirroring the nested-struct convention the rest of the
// pack uses for its own configuration files.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the on-disk configuration file shape. Fields not set by the
// operator fall back to the same defaults the CLI flags use.
type Config struct {
	Dispatcher struct {
		Port       int    `yaml:"port"`
		Cmd        string `yaml:"cmd"`
		InputsPath string `yaml:"inputs_path"`
		AllWorkers int    `yaml:"all_workers"`
		Start      int    `yaml:"start"`
	} `yaml:"dispatcher"`

	Worker struct {
		MotherSuperior string `yaml:"mother_superior"`
		Port           int    `yaml:"port"`
		Count          int    `yaml:"count"`
		WallTime       string `yaml:"wall_time"`
	} `yaml:"worker"`

	Metrics struct {
		Enabled bool `yaml:"enabled"`
		Port    int  `yaml:"port"`
	} `yaml:"metrics"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	cfg.Dispatcher.Port = 5555
	cfg.Dispatcher.AllWorkers = 1
	cfg.Dispatcher.Start = 1
	cfg.Worker.Port = 5555
	cfg.Worker.Count = 1
	cfg.Metrics.Enabled = true
	cfg.Metrics.Port = 9090
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return &cfg, nil
}
