package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var DefaultConfigYAML []byte

type Config struct {
	Service   Service   `yaml:"service"`
	Dashboard Dashboard `yaml:"dashboard"`
	Output    Output    `yaml:"output"`
	Server    Server    `yaml:"server"`
	Logging   Logging   `yaml:"logging"`
}

// Service configures the remote content data service.
type Service struct {
	BaseURL           string  `yaml:"base_url"`
	TimeoutSeconds    int     `yaml:"timeout_seconds"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
}

// Dashboard configures the default feed query.
type Dashboard struct {
	FetchLimit int     `yaml:"fetch_limit"`
	MinScore   float64 `yaml:"min_score"`
}

type Output struct {
	DataDir string `yaml:"data_dir"`
}

type Server struct {
	Port int `yaml:"port"`
}

type Logging struct {
	Level string `yaml:"level"`
}

// ConfigDir returns the XDG config directory for contentdesk.
func ConfigDir() string {
	return filepath.Join(homeDir(), ".config", "contentdesk")
}

// DataDir returns the XDG data directory for contentdesk.
func DataDir() string {
	return filepath.Join(homeDir(), ".local", "share", "contentdesk")
}

// ResolveConfigPath finds the config file following priority:
// explicit path > ~/.config/contentdesk/config.yaml > ./config.yaml
func ResolveConfigPath(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	xdgConfig := filepath.Join(ConfigDir(), "config.yaml")
	if _, err := os.Stat(xdgConfig); err == nil {
		return xdgConfig, nil
	}

	cwdConfig := "config.yaml"
	if _, err := os.Stat(cwdConfig); err == nil {
		return cwdConfig, nil
	}

	return "", fmt.Errorf(
		"no config file found; searched:\n  %s\n  ./config.yaml\n\nRun 'contentdesk init' to create a default config",
		xdgConfig,
	)
}

// Load reads and parses a config YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return parse(data)
}

// parse parses YAML bytes into a Config, applying defaults.
func parse(data []byte) (*Config, error) {
	cfg := &Config{
		Service: Service{
			BaseURL:           "http://localhost:8000",
			TimeoutSeconds:    15,
			RequestsPerSecond: 5,
		},
		Dashboard: Dashboard{FetchLimit: 24},
		Server:    Server{Port: 8020},
		Logging:   Logging{Level: "info"},
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// GetDataDir returns the effective data directory from config or XDG default.
func (c *Config) GetDataDir() string {
	if c.Output.DataDir != "" {
		return c.Output.DataDir
	}
	return DataDir()
}

// ServiceTimeout returns the configured service timeout as a duration.
func (c *Config) ServiceTimeout() time.Duration {
	return time.Duration(c.Service.TimeoutSeconds) * time.Second
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
