// Package config loads tracker configuration from YAML, TOML or JSON
// files (or URLs), with environment variable overrides.
package config

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"reflect"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config is the tracker configuration
type Config struct {
	// Tracking settings
	Tracking struct {
		// ListReplies remaps list-reply numerics to mode letters for
		// daemons that renumber them, e.g. {"940": "b"}. Empty keeps
		// the Charybdis-family defaults.
		ListReplies map[string]string `yaml:"list_replies" toml:"list_replies" json:"list_replies" validate:"dive,len=1"`
	} `yaml:"tracking" toml:"tracking" json:"tracking"`

	// Channels to join after registration
	AutoJoin struct {
		Channels []struct {
			Name string `yaml:"name" toml:"name" json:"name" validate:"required"`
			Key  string `yaml:"key" toml:"key" json:"key"`
		} `yaml:"channels" toml:"channels" json:"channels" validate:"dive"`
		WaitStartMS int `yaml:"wait_start_ms" toml:"wait_start_ms" json:"wait_start_ms" env:"IRCSTATE_AUTOJOIN_WAIT_START_MS" validate:"gte=0"`
		IntervalMS  int `yaml:"interval_ms" toml:"interval_ms" json:"interval_ms" env:"IRCSTATE_AUTOJOIN_INTERVAL_MS" validate:"gte=0"`
	} `yaml:"autojoin" toml:"autojoin" json:"autojoin"`

	// Introspection API settings
	API struct {
		Enabled      bool     `yaml:"enabled" toml:"enabled" json:"enabled" env:"IRCSTATE_API_ENABLED"`
		Host         string   `yaml:"host" toml:"host" json:"host" env:"IRCSTATE_API_HOST"`
		Port         int      `yaml:"port" toml:"port" json:"port" env:"IRCSTATE_API_PORT" validate:"gte=0,lte=65535"`
		BearerTokens []string `yaml:"bearer_tokens" toml:"bearer_tokens" json:"bearer_tokens" env:"IRCSTATE_API_TOKENS"`
		Metrics      bool     `yaml:"metrics" toml:"metrics" json:"metrics" env:"IRCSTATE_API_METRICS"`
	} `yaml:"api" toml:"api" json:"api"`

	// Change journal settings
	Audit struct {
		Enabled bool   `yaml:"enabled" toml:"enabled" json:"enabled" env:"IRCSTATE_AUDIT_ENABLED"`
		Path    string `yaml:"path" toml:"path" json:"path" env:"IRCSTATE_AUDIT_PATH"`
	} `yaml:"audit" toml:"audit" json:"audit"`

	// Configuration source for rehashing
	Source string
}

// Load loads configuration from a file or URL
func Load(source string) (*Config, error) {
	cfg := &Config{
		Source: source,
	}
	cfg.setDefaults()

	// Load configuration from file or URL
	err := cfg.loadFromSource(source)
	if err != nil {
		return nil, err
	}

	// Apply environment variable overrides
	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Default returns a configuration with defaults and environment overrides
// applied, for running without a config file.
func Default() *Config {
	cfg := &Config{}
	cfg.setDefaults()
	applyEnvOverrides(cfg)
	return cfg
}

func (c *Config) setDefaults() {
	c.AutoJoin.WaitStartMS = 750
	c.AutoJoin.IntervalMS = 250
	c.API.Host = "127.0.0.1"
	c.API.Port = 8422
	c.Audit.Path = "ircstate-audit.db"
}

// Reload reloads the configuration from the original source or a new source
func (c *Config) Reload(newSource string) error {
	if newSource != "" {
		c.Source = newSource
	}

	newCfg := &Config{}
	newCfg.setDefaults()

	err := newCfg.loadFromSource(c.Source)
	if err != nil {
		return err
	}

	applyEnvOverrides(newCfg)

	if err := newCfg.Validate(); err != nil {
		return err
	}

	*c = *newCfg
	return nil
}

// Validate checks the configuration against its validate tags
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// loadFromSource loads configuration from a file or URL
func (c *Config) loadFromSource(source string) error {
	var data []byte
	var err error

	// Check if the source is a URL
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		resp, err := http.Get(source)
		if err != nil {
			return fmt.Errorf("failed to load config from URL: %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("failed to load config from URL, status: %s", resp.Status)
		}

		data, err = io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("failed to read config from URL: %v", err)
		}
	} else {
		data, err = os.ReadFile(source)
		if err != nil {
			return fmt.Errorf("failed to read config file: %v", err)
		}
	}

	// Determine the format based on file extension
	switch {
	case strings.HasSuffix(source, ".yaml") || strings.HasSuffix(source, ".yml"):
		err = yaml.Unmarshal(data, c)
	case strings.HasSuffix(source, ".toml"):
		err = toml.Unmarshal(data, c)
	case strings.HasSuffix(source, ".json"):
		err = json.Unmarshal(data, c)
	default:
		// Default to YAML
		err = yaml.Unmarshal(data, c)
	}

	if err != nil {
		return fmt.Errorf("failed to parse config: %v", err)
	}

	c.Source = source
	return nil
}

// applyEnvOverrides applies environment variable overrides to the configuration
func applyEnvOverrides(cfg *Config) {
	applyEnvOverridesRecursive(reflect.ValueOf(cfg).Elem())
}

// applyEnvOverridesRecursive recursively applies environment variable overrides
func applyEnvOverridesRecursive(v reflect.Value) {
	t := v.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		fieldValue := v.Field(i)

		// Skip unexported fields
		if field.PkgPath != "" {
			continue
		}

		envTag := field.Tag.Get("env")

		if envTag != "" {
			if envValue, exists := os.LookupEnv(envTag); exists {
				setFieldFromEnv(fieldValue, envValue)
			}
		} else if field.Type.Kind() == reflect.Struct {
			applyEnvOverridesRecursive(fieldValue)
		}
	}
}

// setFieldFromEnv sets a field's value from an environment variable
func setFieldFromEnv(field reflect.Value, envValue string) {
	switch field.Kind() {
	case reflect.String:
		field.SetString(envValue)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if v, err := parseInt(envValue); err == nil {
			field.SetInt(v)
		}
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if v, err := parseUint(envValue); err == nil {
			field.SetUint(v)
		}
	case reflect.Bool:
		if v, err := parseBool(envValue); err == nil {
			field.SetBool(v)
		}
	case reflect.Slice:
		// Handle string slices
		if field.Type().Elem().Kind() == reflect.String {
			values := strings.Split(envValue, ",")
			slice := reflect.MakeSlice(field.Type(), len(values), len(values))
			for i, v := range values {
				slice.Index(i).SetString(strings.TrimSpace(v))
			}
			field.Set(slice)
		}
	}
}

// Helper functions for parsing different types
func parseInt(s string) (int64, error) {
	var v int64
	_, err := fmt.Sscanf(s, "%d", &v)
	return v, err
}

func parseUint(s string) (uint64, error) {
	var v uint64
	_, err := fmt.Sscanf(s, "%d", &v)
	return v, err
}

func parseBool(s string) (bool, error) {
	s = strings.ToLower(s)
	return s == "true" || s == "1" || s == "yes" || s == "y", nil
}

// GetAPIListenAddress returns the formatted listen address for the API
func (c *Config) GetAPIListenAddress() string {
	return fmt.Sprintf("%s:%d", c.API.Host, c.API.Port)
}

// ListReplies converts the configured numeric overrides to the rune table
// the tracker wants, nil when none are configured.
func (c *Config) ListReplies() map[string]rune {
	if len(c.Tracking.ListReplies) == 0 {
		return nil
	}
	replies := make(map[string]rune, len(c.Tracking.ListReplies))
	for numeric, letter := range c.Tracking.ListReplies {
		for _, r := range letter {
			replies[numeric] = r
			break
		}
	}
	return replies
}
