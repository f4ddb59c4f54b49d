// Package config loads the server's YAML configuration file. Every field
// has a zero-config default matching the resolver's built-in behavior, so
// the file is optional.
package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// File is the on-disk YAML configuration for cmd/server.
type File struct {
	Listen        string `yaml:"listen"`
	MetricsListen string `yaml:"metrics_listen"`

	CacheCapacity int `yaml:"cache_capacity"`

	Workers         int           `yaml:"workers"`
	ExchangeTimeout time.Duration `yaml:"exchange_timeout"`
	CallTimeout     time.Duration `yaml:"call_timeout"`
}

// Default returns the configuration used when no file is given.
func Default() File {
	return File{
		Listen:        "127.0.0.1:3500",
		MetricsListen: "",
	}
}

// Load reads and parses the YAML file at path, starting from Default() so
// any field the file omits keeps its default.
func Load(path string) (File, error) {
	cfg := Default()

	b, err := os.ReadFile(path)
	if err != nil {
		return File{}, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return File{}, err
	}
	return cfg, nil
}
