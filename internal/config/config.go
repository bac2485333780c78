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
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Quiz struct {
		QuestionTTL string `yaml:"question_ttl"`
	} `yaml:"quiz"`
	Admin struct {
		Token string `yaml:"token"`
	} `yaml:"admin"`
	Retry struct {
		Attempts int    `yaml:"attempts"`
		Backoff  string `yaml:"backoff"`
	} `yaml:"retry"`
}

// Load reads YAML config from path. The admin token may also come from the
// environment so it stays out of checked-in config files.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	if cfg.Admin.Token == "" {
		cfg.Admin.Token = os.Getenv("ADMIN_TOKEN")
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
