// Package config wraps viper with nil-safe accessors and the typed settings
// used by the daemon. A Config backed by a nil viper returns zero values
// everywhere, so optional sections need no guarding at call sites.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is a read-only view over a viper instance.
type Config struct {
	v *viper.Viper
}

// New wraps a viper instance. A nil viper yields a Config that returns zero
// values.
func New(v *viper.Viper) *Config {
	return &Config{v: v}
}

// Load reads the YAML config file at path (or the defaults when path is
// empty) with SWITCHSYNC_-prefixed environment overrides.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix("SWITCHSYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %q: %w", path, err)
		}
	}
	return New(v), nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("database.path", "switchsync.db")
	v.SetDefault("monitor.poll_interval", "30s")
	v.SetDefault("monitor.max_backoff", "5m")
	v.SetDefault("monitor.cable_diagnostics", false)
	v.SetDefault("monitor.probe_timeout", "3s")
	v.SetDefault("history.retention", "720h")
}

// Switch is one device entry from the `switches` list.
type Switch struct {
	Host     string `mapstructure:"host"`
	Name     string `mapstructure:"name"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// Switches returns the configured device list.
func (c *Config) Switches() ([]Switch, error) {
	if c.v == nil {
		return nil, nil
	}
	var switches []Switch
	if err := c.v.UnmarshalKey("switches", &switches); err != nil {
		return nil, fmt.Errorf("parse switches list: %w", err)
	}
	return switches, nil
}

// GetString returns the string at key, or "".
func (c *Config) GetString(key string) string {
	if c.v == nil {
		return ""
	}
	return c.v.GetString(key)
}

// GetInt returns the int at key, or 0.
func (c *Config) GetInt(key string) int {
	if c.v == nil {
		return 0
	}
	return c.v.GetInt(key)
}

// GetBool returns the bool at key, or false.
func (c *Config) GetBool(key string) bool {
	if c.v == nil {
		return false
	}
	return c.v.GetBool(key)
}

// GetDuration returns the duration at key, or 0.
func (c *Config) GetDuration(key string) time.Duration {
	if c.v == nil {
		return 0
	}
	return c.v.GetDuration(key)
}

// IsSet reports whether key has a value.
func (c *Config) IsSet(key string) bool {
	if c.v == nil {
		return false
	}
	return c.v.IsSet(key)
}

// Sub returns the subtree at key. Always non-nil; a missing subtree yields an
// empty Config.
func (c *Config) Sub(key string) *Config {
	if c.v == nil {
		return New(nil)
	}
	return New(c.v.Sub(key))
}

// Unmarshal decodes the whole config into target.
func (c *Config) Unmarshal(target any) error {
	if c.v == nil {
		return nil
	}
	return c.v.Unmarshal(target)
}
