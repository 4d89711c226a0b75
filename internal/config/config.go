// Package config holds the collector's persisted runtime defaults. Flags on
// the collect command override anything read from the file.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const DefaultPath = "collector.yaml"

const (
	DefaultOutDir     = "outputs"
	DefaultMaxVideos  = 20
	DefaultSleepSec   = 2.0
	DefaultJitterSec  = 1.5
	DefaultTimeoutSec = 120
)

type Config struct {
	Seed       string  `yaml:"seed,omitempty"`
	OutDir     string  `yaml:"out_dir"`
	MaxVideos  int     `yaml:"max_videos"`
	SleepSec   float64 `yaml:"sleep_sec"`
	JitterSec  float64 `yaml:"jitter_sec"`
	TimeoutSec int     `yaml:"timeout_sec"`
	UserAgent  string  `yaml:"user_agent,omitempty"`
	FailFast   bool    `yaml:"fail_fast"`
}

func Default() Config {
	return Config{
		OutDir:     DefaultOutDir,
		MaxVideos:  DefaultMaxVideos,
		SleepSec:   DefaultSleepSec,
		JitterSec:  DefaultJitterSec,
		TimeoutSec: DefaultTimeoutSec,
	}
}

func normalize(raw Config) Config {
	norm := raw
	if norm.OutDir == "" {
		norm.OutDir = DefaultOutDir
	}
	if norm.MaxVideos <= 0 {
		norm.MaxVideos = DefaultMaxVideos
	}
	if norm.SleepSec < 0 {
		norm.SleepSec = DefaultSleepSec
	}
	if norm.JitterSec < 0 {
		norm.JitterSec = DefaultJitterSec
	}
	if norm.TimeoutSec <= 0 {
		norm.TimeoutSec = DefaultTimeoutSec
	}
	return norm
}

func (c Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSec) * time.Second
}

// Load reads the config file at path. A missing file is not an error: the
// collector runs fine on built-in defaults.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return normalize(cfg), nil
}

func Save(path string, cfg Config) error {
	data, err := yaml.Marshal(normalize(cfg))
	if err != nil {
		return fmt.Errorf("marshal config %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config %s: %w", path, err)
	}
	return nil
}
