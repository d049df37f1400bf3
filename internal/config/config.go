// Package config loads process-wide settings: the custodian organization
// metadata, the default specification release, and the serve options.
// Settings are established once before any build and are read-only from
// the engine's perspective; Reset exists only for test isolation.
package config

import (
	"fmt"
	"sync"

	"github.com/spf13/viper"
)

// Config holds all settings consumed by the document builders and the
// serve surface.
type Config struct {
	Port           string `mapstructure:"PORT"`
	Env            string `mapstructure:"ENV"`
	OrgName        string `mapstructure:"ORG_NAME"`
	OrgOID         string `mapstructure:"ORG_OID"`
	Release        string `mapstructure:"SPEC_RELEASE"`
	NarrativeStyle string `mapstructure:"NARRATIVE_STYLE"`
}

// Load reads configuration from the environment and an optional .env file.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("SPEC_RELEASE", "R2.1")
	v.SetDefault("NARRATIVE_STYLE", "table")

	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("ORG_NAME")
	v.BindEnv("ORG_OID")
	v.BindEnv("SPEC_RELEASE")
	v.BindEnv("NARRATIVE_STYLE")

	// A missing .env file is fine; the environment alone may be enough.
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the configuration can drive a conformant build.
func (c *Config) Validate() error {
	if c.OrgName == "" {
		return fmt.Errorf("ORG_NAME is required")
	}
	if c.OrgOID == "" {
		return fmt.Errorf("ORG_OID is required")
	}
	switch c.Release {
	case "R2.1", "R2.0":
	default:
		return fmt.Errorf("SPEC_RELEASE must be \"R2.1\" or \"R2.0\", got %q", c.Release)
	}
	switch c.NarrativeStyle {
	case "table", "list", "paragraph":
	default:
		return fmt.Errorf("NARRATIVE_STYLE must be \"table\", \"list\", or \"paragraph\", got %q", c.NarrativeStyle)
	}
	return nil
}

var (
	mu     sync.RWMutex
	active *Config
)

// Set establishes the process-wide configuration. It must be called before
// any build that relies on Current.
func Set(cfg *Config) {
	mu.Lock()
	defer mu.Unlock()
	active = cfg
}

// Current returns the established configuration, or an error if none was
// set.
func Current() (*Config, error) {
	mu.RLock()
	defer mu.RUnlock()
	if active == nil {
		return nil, fmt.Errorf("config: no configuration established")
	}
	return active, nil
}

// Reset clears the established configuration. Test isolation only; never
// part of production control flow.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	active = nil
}
