package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultEndpoint = "https://api.apiopen.top/searchMusic"
	DefaultTerm     = "黑色毛衣"
)

// Config is the msearch settings file, $HOME/.msearch/config.yaml by default.
type Config struct {
	Endpoint       string `yaml:"endpoint"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	DefaultTerm    string `yaml:"default_term"`
	Output         string `yaml:"output"`
	Policy         string `yaml:"policy"`
	NATSURL        string `yaml:"nats_url"`
	path           string
}

func Default() *Config {
	return &Config{
		Endpoint:       DefaultEndpoint,
		TimeoutSeconds: 10,
		DefaultTerm:    DefaultTerm,
		Output:         "table",
		Policy:         "concurrent",
		NATSURL:        "nats://localhost:4222",
	}
}

// DefaultPath returns $HOME/.msearch/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".msearch", "config.yaml"), nil
}

// Load reads cfgFile over the defaults. A missing file yields the defaults.
func Load(cfgFile string) (*Config, error) {
	if cfgFile == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		cfgFile = p
	}

	cfg := Default()
	cfg.path = cfgFile

	data, err := os.ReadFile(cfgFile)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", cfgFile, err)
	}

	return cfg, nil
}

// Path returns the file the config was loaded from.
func (c *Config) Path() string { return c.path }

// Timeout returns the per-request timeout.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

func (c *Config) Save() error {
	if c.path == "" {
		p, err := DefaultPath()
		if err != nil {
			return err
		}
		c.path = p
	}

	dir := filepath.Dir(c.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(c.path, data, 0600)
}

// Keys lists the settable keys in sorted order.
func Keys() []string {
	keys := make([]string, 0, len(setters))
	for k := range setters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

var setters = map[string]func(*Config, string) error{
	"endpoint": func(c *Config, v string) error {
		c.Endpoint = v
		return nil
	},
	"timeout_seconds": func(c *Config, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return fmt.Errorf("timeout_seconds must be a non-negative integer, got %q", v)
		}
		c.TimeoutSeconds = n
		return nil
	},
	"default_term": func(c *Config, v string) error {
		c.DefaultTerm = v
		return nil
	},
	"output": func(c *Config, v string) error {
		switch v {
		case "table", "json", "yaml":
			c.Output = v
			return nil
		}
		return fmt.Errorf("output must be table, json or yaml, got %q", v)
	},
	"policy": func(c *Config, v string) error {
		switch v {
		case "concurrent", "coalesce":
			c.Policy = v
			return nil
		}
		return fmt.Errorf("policy must be concurrent or coalesce, got %q", v)
	},
	"nats_url": func(c *Config, v string) error {
		c.NATSURL = v
		return nil
	},
}

// Set assigns value to key, validating it.
func (c *Config) Set(key, value string) error {
	set, ok := setters[key]
	if !ok {
		return fmt.Errorf("unknown config key '%s'", key)
	}
	return set(c, value)
}
