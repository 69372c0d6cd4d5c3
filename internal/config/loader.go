package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"

	"termagent/internal/fileutil"
)

// Load loads configuration from path (or the default location when empty),
// then applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		path = getConfigPath()
	}
	if path != "" {
		if err := loadFromFile(cfg, path); err != nil {
			// Config file is optional
			if !os.IsNotExist(err) {
				return nil, err
			}
		}
	}

	loadFromEnv(cfg)

	return cfg, nil
}

// getConfigPath returns the path to the config file.
func getConfigPath() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "termagent", "config.yaml")
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(homeDir, ".config", "termagent", "config.yaml")
}

// loadFromFile loads configuration from a YAML file.
func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	expanded := os.ExpandEnv(string(data))

	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	return nil
}

// loadFromEnv loads configuration from environment variables.
func loadFromEnv(cfg *Config) {
	if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
		cfg.OpenAI.APIKey = apiKey
	}
	if baseURL := os.Getenv("OPENAI_BASE_URL"); baseURL != "" {
		cfg.OpenAI.BaseURL = baseURL
	}
	if model := os.Getenv("TERMAGENT_HEAVY_MODEL"); model != "" {
		cfg.OpenAI.HeavyModel = model
	}
	if model := os.Getenv("TERMAGENT_LIGHT_MODEL"); model != "" {
		cfg.OpenAI.LightModel = model
	}

	if host := os.Getenv("OLLAMA_HOST"); host != "" {
		cfg.Ollama.Host = host
		cfg.Ollama.Enabled = true
	}

	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		cfg.Gemini.APIKey = key
		cfg.Gemini.Enabled = true
	}

	if v := os.Getenv("TERMAGENT_DEBUG"); v != "" {
		if debug, err := strconv.ParseBool(v); err == nil {
			cfg.Debug = debug
		}
	}
}

// Validate validates the configuration for model-backed use.
func (c *Config) Validate() error {
	if c.OpenAI.APIKey == "" {
		return ErrMissingAuth
	}
	if c.Router.ScoreThreshold < 0 || c.Router.WordThreshold < 0 || c.Router.LongInputWords < 0 {
		return ErrInvalidRouter
	}
	return nil
}

// HasModel reports whether any model backend is configured.
func (c *Config) HasModel() bool {
	return c.OpenAI.APIKey != "" || c.Ollama.Enabled || (c.Gemini.Enabled && c.Gemini.APIKey != "")
}

// Error types for configuration validation.
type ConfigError string

func (e ConfigError) Error() string {
	return string(e)
}

const (
	ErrMissingAuth   ConfigError = "missing authentication: set the OPENAI_API_KEY environment variable to use model-backed features"
	ErrInvalidRouter ConfigError = "invalid router policy: thresholds must not be negative"
)

// GetConfigPath returns the path to the config file.
func GetConfigPath() string {
	return getConfigPath()
}

// Save writes the configuration to path (or the default location).
func (c *Config) Save(path string) error {
	if path == "" {
		path = getConfigPath()
	}
	if path == "" {
		return fmt.Errorf("could not determine config path")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// 0600: the file may hold API keys
	if err := fileutil.AtomicWrite(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
