// Package config loads the studio configuration file. A missing file is
// not an error; every key has a default.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Backend BackendConfig `yaml:"backend"`
	Intake  IntakeConfig  `yaml:"intake"`
	MCP     MCPConfig     `yaml:"mcp"`
	Server  ServerConfig  `yaml:"server"`
}

// BackendConfig points at the HTTP services behind the transform actions,
// the AI modifier and the chat.
type BackendConfig struct {
	TransformURL      string        `yaml:"transformURL"`
	ModifierURL       string        `yaml:"modifierURL"`
	ChatURL           string        `yaml:"chatURL"`
	ImageURL          string        `yaml:"imageURL"`
	APIKey            string        `yaml:"apiKey"`
	Timeout           time.Duration `yaml:"timeout"`
	GenerationTimeout time.Duration `yaml:"generationTimeout"`
}

type IntakeConfig struct {
	WatchDir     string `yaml:"watchDir"`
	Sweep        string `yaml:"sweep"`
	MaxDimension int    `yaml:"maxDimension"`
}

type MCPConfig struct {
	Addr string `yaml:"addr"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		Backend: BackendConfig{
			Timeout:           30 * time.Second,
			GenerationTimeout: 5 * time.Minute,
		},
		Intake: IntakeConfig{
			Sweep:        "@every 1m",
			MaxDimension: 1200,
		},
		Server: ServerConfig{Addr: ":8088"},
	}
}

// Dir returns ~/.config/studio.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".config", "studio"), nil
}

// DataDir returns ~/.local/share/studio, creating it if needed.
func DataDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	dir := filepath.Join(home, ".local", "share", "studio")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create data dir: %w", err)
	}
	return dir, nil
}

// Load reads the config file at path. An empty path means the default
// location.
func Load(path string) (Config, error) {
	if path == "" {
		dir, err := Dir()
		if err != nil {
			return Default(), err
		}
		path = filepath.Join(dir, "config.yaml")
	}

	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return Default(), fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	return Parse(f)
}

// Parse decodes YAML over the defaults. Keys not present keep their
// default values.
func Parse(r io.Reader) (Config, error) {
	cfg := Default()
	data, err := io.ReadAll(r)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Default(), fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Default(), err
	}
	return cfg, nil
}

// Validate rejects values that would break the services at runtime.
func (c Config) Validate() error {
	if c.Backend.Timeout < 0 || c.Backend.GenerationTimeout < 0 {
		return fmt.Errorf("validate config: negative backend timeout")
	}
	if c.Intake.MaxDimension < 0 {
		return fmt.Errorf("validate config: intake.maxDimension must not be negative")
	}
	return nil
}
