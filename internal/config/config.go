// Goalpost - Stream Donation Goal Tracking Overlay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/goalpost

// Package config loads application configuration with Koanf v2 using layered
// sources, highest priority last:
//
//  1. built-in defaults (structs provider)
//  2. optional YAML config file
//  3. GOALPOST_* environment variables
//
// Examples: GOALPOST_STREAMELEMENTS_JWT_TOKEN -> streamelements.jwt_token,
// GOALPOST_LOG_LEVEL -> log.level.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/tomtom215/goalpost/internal/models"
	"github.com/tomtom215/goalpost/internal/period"
	"github.com/tomtom215/goalpost/internal/validation"
)

// DefaultConfigPaths lists where config files are searched, in order.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/goalpost/config.yaml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "GOALPOST_CONFIG"

// envPrefix namespaces all Goalpost environment variables.
const envPrefix = "GOALPOST_"

// Config is the root application configuration.
type Config struct {
	Log            LogConfig            `koanf:"log"`
	Server         ServerConfig         `koanf:"server"`
	Store          StoreConfig          `koanf:"store"`
	ExtraLife      ExtraLifeConfig      `koanf:"extralife"`
	StreamElements StreamElementsConfig `koanf:"streamelements"`

	// Tracker describes the tracking session started at boot. Inside a host
	// application this arrives from the effect trigger instead.
	Tracker models.TrackerConfig `koanf:"tracker"`
}

// LogConfig controls zerolog output.
type LogConfig struct {
	Level  string `koanf:"level" validate:"omitempty,oneof=trace debug info warn error disabled"`
	Format string `koanf:"format" validate:"omitempty,oneof=json console"`
}

// ServerConfig controls the standalone binary's listener, which exposes
// the overlay websocket and the metrics endpoint. Inside a host
// application the handlers are mounted on the host's router instead.
type ServerConfig struct {
	ListenAddr string `koanf:"listen_addr" validate:"required"`
}

// StoreConfig controls the embedded document store.
type StoreConfig struct {
	// Path is the BadgerDB directory. Ignored when InMemory is set.
	Path     string `koanf:"path" validate:"required_unless=InMemory true"`
	InMemory bool   `koanf:"in_memory"`
}

// ExtraLifeConfig controls the Extra Life client and its polling cadence.
type ExtraLifeConfig struct {
	BaseURL      string        `koanf:"base_url" validate:"required,url"`
	Timeout      time.Duration `koanf:"timeout" validate:"gt=0"`
	PollInterval time.Duration `koanf:"poll_interval" validate:"gte=1s"`
}

// StreamElementsConfig controls the StreamElements client, its polling
// cadence, and the dollar conversion rates for non-tip events.
type StreamElementsConfig struct {
	BaseURL      string        `koanf:"base_url" validate:"required,url"`
	JWTToken     string        `koanf:"jwt_token"`
	Timeout      time.Duration `koanf:"timeout" validate:"gt=0"`
	PollInterval time.Duration `koanf:"poll_interval" validate:"gte=1s"`

	// BitValue is the dollar value of a single bit.
	BitValue float64 `koanf:"bit_value" validate:"gt=0"`

	// Tier values are the dollar value credited per subscription by tier.
	TierOneValue   float64 `koanf:"tier_one_value" validate:"gte=0"`
	TierTwoValue   float64 `koanf:"tier_two_value" validate:"gte=0"`
	TierThreeValue float64 `koanf:"tier_three_value" validate:"gte=0"`
	PrimeValue     float64 `koanf:"prime_value" validate:"gte=0"`
}

// TierValue returns the configured dollar value for a subscription tier
// string as reported by StreamElements.
func (c StreamElementsConfig) TierValue(tier string) float64 {
	switch tier {
	case "2000":
		return c.TierTwoValue
	case "3000":
		return c.TierThreeValue
	case "prime":
		return c.PrimeValue
	default:
		return c.TierOneValue
	}
}

// Default returns the built-in defaults applied before file and env layers.
func Default() *Config {
	return &Config{
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Server: ServerConfig{
			ListenAddr: ":8196",
		},
		Store: StoreConfig{
			Path: "/data/goalpost",
		},
		ExtraLife: ExtraLifeConfig{
			BaseURL:      "https://www.extra-life.org/api",
			Timeout:      15 * time.Second,
			PollInterval: 30 * time.Second,
		},
		StreamElements: StreamElementsConfig{
			BaseURL:      "https://api.streamelements.com/kappa/v2",
			Timeout:      15 * time.Second,
			PollInterval: 20 * time.Second,
			BitValue:     0.01,
			// Roughly the streamer's cut of each tier.
			TierOneValue:   2.50,
			TierTwoValue:   5.00,
			TierThreeValue: 12.50,
			PrimeValue:     2.50,
		},
		Tracker: models.TrackerConfig{
			Source:           models.SourceLocal,
			AccountingPeriod: period.Month,
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file, and
// GOALPOST_* environment variables, then validates it.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration's validate tags plus the rules the tags
// cannot express.
func (c *Config) Validate() error {
	if err := validation.ValidateStruct(c); err != nil {
		return fmt.Errorf("configuration: %w", err)
	}
	if err := validation.ValidateStruct(&c.Tracker); err != nil {
		return fmt.Errorf("tracker configuration: %w", err)
	}
	if c.Tracker.Source == models.SourceStreamElements && c.StreamElements.JWTToken == "" {
		return fmt.Errorf("tracker configuration: streamelements source requires streamelements.jwt_token")
	}
	return nil
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// envTransform maps GOALPOST_SECTION_SOME_KEY to section.some_key: the first
// underscore after the prefix separates the section, the rest of the name is
// kept verbatim (lowercased) so multi-word keys survive.
func envTransform(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, envPrefix))
	parts := strings.SplitN(key, "_", 2)
	if len(parts) == 1 {
		return parts[0]
	}
	return parts[0] + "." + parts[1]
}
