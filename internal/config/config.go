// Package config loads server and CLI settings from defaults, an optional
// YAML file and TICTACTOE_* environment variables, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds every tunable of the binaries.
type Config struct {
	Addr            string        `yaml:"addr"`
	LogLevel        string        `yaml:"log_level"`
	LogFormat       string        `yaml:"log_format"`
	AIDelayMin      time.Duration `yaml:"ai_delay_min"`
	AIDelayMax      time.Duration `yaml:"ai_delay_max"`
	EasyRandomRate  float64       `yaml:"easy_random_rate"`
	Seed            uint64        `yaml:"seed"`
	SSEHeartbeat    time.Duration `yaml:"sse_heartbeat"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// Errors returned by Validate.
var (
	ErrDelayRange = errors.New("ai_delay_min must not exceed ai_delay_max")
	ErrRandomRate = errors.New("easy_random_rate must be within [0, 1]")
	ErrLogFormat  = errors.New("log_format must be console or json")
)

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Addr:            ":8080",
		LogLevel:        "info",
		LogFormat:       "console",
		AIDelayMin:      200 * time.Millisecond,
		AIDelayMax:      600 * time.Millisecond,
		EasyRandomRate:  0.7,
		SSEHeartbeat:    15 * time.Second,
		ShutdownTimeout: 5 * time.Second,
	}
}

// Load builds a Config. An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	dur := func(key string, dst *time.Duration) error {
		v, ok := lookup(key)
		if !ok || v == "" {
			return nil
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = d
		return nil
	}

	str("TICTACTOE_ADDR", &c.Addr)
	str("TICTACTOE_LOG_LEVEL", &c.LogLevel)
	str("TICTACTOE_LOG_FORMAT", &c.LogFormat)
	for key, dst := range map[string]*time.Duration{
		"TICTACTOE_AI_DELAY_MIN":     &c.AIDelayMin,
		"TICTACTOE_AI_DELAY_MAX":     &c.AIDelayMax,
		"TICTACTOE_SSE_HEARTBEAT":    &c.SSEHeartbeat,
		"TICTACTOE_SHUTDOWN_TIMEOUT": &c.ShutdownTimeout,
	} {
		if err := dur(key, dst); err != nil {
			return err
		}
	}
	if v, ok := lookup("TICTACTOE_EASY_RANDOM_RATE"); ok && v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("TICTACTOE_EASY_RANDOM_RATE: %w", err)
		}
		c.EasyRandomRate = f
	}
	if v, ok := lookup("TICTACTOE_SEED"); ok && v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return fmt.Errorf("TICTACTOE_SEED: %w", err)
		}
		c.Seed = n
	}
	return nil
}

// Validate checks value ranges.
func (c Config) Validate() error {
	if c.AIDelayMin < 0 || c.AIDelayMin > c.AIDelayMax {
		return ErrDelayRange
	}
	if c.EasyRandomRate < 0 || c.EasyRandomRate > 1 {
		return ErrRandomRate
	}
	if c.LogFormat != "console" && c.LogFormat != "json" {
		return ErrLogFormat
	}
	return nil
}

// SeedOrNow returns Seed, or a time based seed when it is zero.
func (c Config) SeedOrNow() uint64 {
	if c.Seed != 0 {
		return c.Seed
	}
	return uint64(time.Now().UnixNano())
}
