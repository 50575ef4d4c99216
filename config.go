package main

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

type Config struct {
	SearchAppID string `yaml:"search_app_id"`

	MaxConcurrent int           `yaml:"max_concurrent"`
	Proxies       []ProxyConfig `yaml:"proxies"`

	Headless bool `yaml:"headless"`

	MinDelaySeconds float64 `yaml:"min_delay_seconds"`
	MaxDelaySeconds float64 `yaml:"max_delay_seconds"`

	AuthTimeoutSeconds     int `yaml:"auth_timeout_seconds"`
	SearchTimeoutSeconds   int `yaml:"search_timeout_seconds"`
	PageLoadTimeoutSeconds int `yaml:"page_load_timeout_seconds"`

	InputFile      string `yaml:"input_file"`
	OutputFile     string `yaml:"output_file"`
	TempOutputFile string `yaml:"temp_output_file"`

	DebugMode bool `yaml:"debug_mode"`
}

// ProxyConfig describes one upstream proxy. Immutable after load.
type ProxyConfig struct {
	Server   string `yaml:"server" json:"server"`
	Username string `yaml:"username,omitempty" json:"username,omitempty"`
	Password string `yaml:"password,omitempty" json:"password,omitempty"`
}

func DefaultConfig() *Config {
	return &Config{
		SearchAppID:            "932747118",
		MaxConcurrent:          3,
		Proxies:                nil,
		Headless:               true,
		MinDelaySeconds:        5,
		MaxDelaySeconds:        10,
		AuthTimeoutSeconds:     15,
		SearchTimeoutSeconds:   30,
		PageLoadTimeoutSeconds: 30,
		InputFile:              "accounts.json",
		OutputFile:             "accounts_checked.json",
		TempOutputFile:         "accounts_checked_temp.json",
		DebugMode:              false,
	}
}

// LoadConfig reads the yaml config at path. A missing file writes a
// template next to it and runs on defaults; an unreadable or invalid
// file also degrades to defaults, with a warning. Config problems never
// abort a run.
func LoadConfig(path string) *Config {
	config := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		templatePath := filepath.Join(filepath.Dir(path), "config_template.yaml")
		if err := config.Save(templatePath); err == nil {
			fmt.Printf(T("config_template_hint")+"\n", templatePath, path)
		}
		return config
	}

	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Printf(T("config_load_failed")+"\n", err)
		return DefaultConfig()
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		fmt.Printf(T("config_load_failed")+"\n", err)
		return DefaultConfig()
	}

	if config.MinDelaySeconds > config.MaxDelaySeconds {
		config.MinDelaySeconds, config.MaxDelaySeconds = config.MaxDelaySeconds, config.MinDelaySeconds
	}

	fmt.Printf(T("config_loaded")+"\n", path)
	return config
}

func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// EffectiveConcurrency collapses to 1 when no proxies are configured:
// parallel sessions from a single origin trip the site's abuse defenses.
func (c *Config) EffectiveConcurrency() int {
	if len(c.Proxies) == 0 {
		return 1
	}
	if c.MaxConcurrent < 1 {
		return 1
	}
	return c.MaxConcurrent
}

// UseProxies reports whether accounts should be routed through the pool.
func (c *Config) UseProxies() bool {
	return len(c.Proxies) > 0 && c.EffectiveConcurrency() > 1
}
