package main

import (
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/xraph/gridbill"
	"github.com/xraph/gridbill/bus"
)

// Config defines the daemon configuration.
type Config struct {
	Mongo struct {
		URI      string `yaml:"uri"`
		Database string `yaml:"database"`
	} `yaml:"mongo"`

	Bus bus.Config `yaml:"bus"`

	Correction struct {
		Day   float64 `yaml:"day"`
		Night float64 `yaml:"night"`
	} `yaml:"correction"`

	Metrics struct {
		Addr string `yaml:"addr"`
	} `yaml:"metrics"`

	LogLevel string `yaml:"log_level"`
}

// loadConfig loads config from yaml or env. Environment variables fill gaps
// the file leaves open.
func loadConfig() (Config, error) {
	var cfg Config

	cfg.Mongo.URI = getenvDefault("GRIDBILL_MONGO_URI", "mongodb://localhost:27017")
	cfg.Mongo.Database = getenvDefault("GRIDBILL_MONGO_DATABASE", "gridbill")
	cfg.Bus.Server.Host = getenvDefault("GRIDBILL_AMQP_HOST", "localhost")
	cfg.Bus.Server.Port = getenvIntDefault("GRIDBILL_AMQP_PORT", 5672)
	cfg.Bus.Server.Username = getenvDefault("GRIDBILL_AMQP_USERNAME", "guest")
	cfg.Bus.Server.Password = getenvDefault("GRIDBILL_AMQP_PASSWORD", "guest")
	cfg.Correction.Day = gridbill.DefaultDayIncrement
	cfg.Correction.Night = gridbill.DefaultNightIncrement
	cfg.Metrics.Addr = getenvDefault("GRIDBILL_METRICS_ADDR", "")
	cfg.LogLevel = getenvDefault("GRIDBILL_LOG_LEVEL", "info")

	if path := os.Getenv("GRIDBILL_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	}

	return cfg, nil
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvIntDefault(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}
