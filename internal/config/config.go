package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Storage struct {
		Backend string `yaml:"backend"` // file | redis | postgres
		File    struct {
			Path string `yaml:"path"`
		} `yaml:"file"`
		Redis struct {
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
		} `yaml:"redis"`
		Postgres struct {
			URL string `yaml:"url"`
		} `yaml:"postgres"`
	} `yaml:"storage"`
	Platform struct {
		Community  string `yaml:"community"`
		Token      string `yaml:"token"`
		AdminToken string `yaml:"admin_token"`
	} `yaml:"platform"`
	Directory struct {
		TTL string `yaml:"ttl"`
	} `yaml:"directory"`
}

// Load reads YAML config from path. The platform token may instead arrive
// via the PLATFORM_TOKEN environment variable (e.g. from a .env file).
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	if cfg.Platform.Token == "" {
		cfg.Platform.Token = os.Getenv("PLATFORM_TOKEN")
	}
	if cfg.Storage.File.Path == "" {
		cfg.Storage.File.Path = "scores.json"
	}
	return cfg, nil
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
