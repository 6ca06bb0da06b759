// Package config handles application configuration
package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"todolist/backend"
	"todolist/backend/keyring"
	"todolist/internal/list"
	"todolist/internal/utils"
)

//go:embed config.sample.yaml
var sampleConfig string

// GetSampleConfig returns the embedded sample configuration content
func GetSampleConfig() string {
	return sampleConfig
}

// Config represents the application configuration
type Config struct {
	Storage      StorageConfig `yaml:"storage" toml:"storage"`
	UI           UIConfig      `yaml:"ui" toml:"ui"`
	Logging      LoggingConfig `yaml:"logging" toml:"logging"`
	NoPrompt     bool          `yaml:"no_prompt" toml:"no_prompt"`
	OutputFormat string        `yaml:"output_format" toml:"output_format"`
}

// StorageConfig selects the backend the list is persisted in
type StorageConfig struct {
	Backend string        `yaml:"backend" toml:"backend"`
	Key     string        `yaml:"key" toml:"key"` // storage key of the list (default: myList)
	SQLite  SQLiteConfig  `yaml:"sqlite" toml:"sqlite"`
	File    FileConfig    `yaml:"file" toml:"file"`
	Keyring KeyringConfig `yaml:"keyring" toml:"keyring"`
}

// SQLiteConfig holds SQLite backend configuration
type SQLiteConfig struct {
	Path string `yaml:"path" toml:"path"`
}

// FileConfig holds file backend configuration
type FileConfig struct {
	Path string `yaml:"path" toml:"path"`
}

// KeyringConfig holds keyring backend configuration
type KeyringConfig struct {
	Service string `yaml:"service" toml:"service"`
}

// UIConfig holds user interface settings
type UIConfig struct {
	MaxItemLength int    `yaml:"max_item_length" toml:"max_item_length"`
	Title         string `yaml:"title" toml:"title"`
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Verbose   bool   `yaml:"verbose" toml:"verbose"`
	File      string `yaml:"file" toml:"file"`               // rotating log file, empty disables it
	MaxSizeMB int    `yaml:"max_size_mb" toml:"max_size_mb"` // rotate after this many megabytes (default: 10)
}

const defaultLogMaxSizeMB = 10

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Storage: StorageConfig{
			Backend: backend.TypeSQLite,
			Key:     list.DefaultKey,
			SQLite:  SQLiteConfig{Path: filepath.Join(GetDataDir(), "todolist.db")},
			File:    FileConfig{Path: filepath.Join(GetDataDir(), "todolist.json")},
			Keyring: KeyringConfig{Service: keyring.DefaultService},
		},
		UI: UIConfig{
			MaxItemLength: utils.DefaultMaxItemLength,
		},
		Logging: LoggingConfig{
			MaxSizeMB: defaultLogMaxSizeMB,
		},
		OutputFormat: "text",
	}
}

// Load loads configuration from the specified path, or the default XDG path if empty.
// If the config file doesn't exist, it creates one with defaults.
// Files ending in .toml are parsed as TOML, everything else as YAML.
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = filepath.Join(GetConfigDir(), "config.yaml")
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		cfg := DefaultConfig()
		if err := cfg.save(configPath); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return Parse(data, isTOML(configPath))
}

// Parse decodes configuration bytes and fills in defaults for unset fields.
func Parse(data []byte, asTOML bool) (*Config, error) {
	cfg := &Config{}
	if asTOML {
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return nil, fmt.Errorf("invalid TOML in config file: %w", err)
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("invalid YAML in config file: %w", err)
	}

	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Storage.Backend == "" {
		c.Storage.Backend = backend.TypeSQLite
	}
	if c.OutputFormat == "" {
		c.OutputFormat = "text"
	}
	c.Storage.SQLite.Path = ExpandPath(c.Storage.SQLite.Path)
	c.Storage.File.Path = ExpandPath(c.Storage.File.Path)
	c.Logging.File = ExpandPath(c.Logging.File)
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}

// save writes the configuration to the specified path
func (c *Config) save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// YAML uses the embedded sample, which includes all documentation and comments
	content := []byte(sampleConfig)
	if isTOML(path) {
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(c); err != nil {
			return fmt.Errorf("failed to encode config: %w", err)
		}
		content = buf.Bytes()
	}

	if err := os.WriteFile(path, content, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.OutputFormat != "text" && c.OutputFormat != "json" {
		return fmt.Errorf("invalid output_format: %q (must be 'text' or 'json')", c.OutputFormat)
	}

	if _, err := backend.ValidateType(c.Storage.Backend); err != nil {
		return utils.ErrBackendNotConfigured(c.Storage.Backend, backend.Types())
	}

	if c.UI.MaxItemLength < 0 {
		return fmt.Errorf("ui.max_item_length must not be negative, got %d", c.UI.MaxItemLength)
	}

	if c.Logging.MaxSizeMB < 0 {
		return fmt.Errorf("logging.max_size_mb must not be negative, got %d", c.Logging.MaxSizeMB)
	}

	return nil
}

// ApplyFlags applies CLI flag overrides to the configuration
func (c *Config) ApplyFlags(backendName, key string, verbose, noPrompt bool, outputFormat string) {
	if backendName != "" {
		c.Storage.Backend = backendName
	}
	if key != "" {
		c.Storage.Key = key
	}
	if verbose {
		c.Logging.Verbose = true
	}
	if noPrompt {
		c.NoPrompt = true
	}
	if outputFormat != "" {
		c.OutputFormat = outputFormat
	}
}

// GetBackend returns the canonical backend type name.
// Returns "sqlite" if not configured or unknown.
func (c *Config) GetBackend() string {
	name, err := backend.ValidateType(c.Storage.Backend)
	if err != nil {
		return backend.TypeSQLite
	}
	return name
}

// GetKey returns the storage key of the list.
// Returns "myList" if not configured.
func (c *Config) GetKey() string {
	if c.Storage.Key == "" {
		return list.DefaultKey
	}
	return c.Storage.Key
}

// GetDatabasePath returns the path to the SQLite database
func (c *Config) GetDatabasePath() string {
	if c.Storage.SQLite.Path == "" {
		return filepath.Join(GetDataDir(), "todolist.db")
	}
	return c.Storage.SQLite.Path
}

// GetFilePath returns the path of the file backend's storage file
func (c *Config) GetFilePath() string {
	if c.Storage.File.Path == "" {
		return filepath.Join(GetDataDir(), "todolist.json")
	}
	return c.Storage.File.Path
}

// GetKeyringService returns the keyring service name.
// Returns "todolist" if not configured.
func (c *Config) GetKeyringService() string {
	if c.Storage.Keyring.Service == "" {
		return keyring.DefaultService
	}
	return c.Storage.Keyring.Service
}

// GetMaxItemLength returns the item text limit.
// Returns 40 if not configured.
func (c *Config) GetMaxItemLength() int {
	if c.UI.MaxItemLength <= 0 {
		return utils.DefaultMaxItemLength
	}
	return c.UI.MaxItemLength
}

// GetTitle returns the list heading.
// Returns "List" if not configured.
func (c *Config) GetTitle() string {
	if c.UI.Title == "" {
		return "List"
	}
	return c.UI.Title
}

// GetLogMaxSizeMB returns the log rotation size in megabytes.
// Returns 10 if not configured.
func (c *Config) GetLogMaxSizeMB() int {
	if c.Logging.MaxSizeMB <= 0 {
		return defaultLogMaxSizeMB
	}
	return c.Logging.MaxSizeMB
}

// getXDGDir returns a directory path following XDG spec.
// envVar is the XDG environment variable (e.g., "XDG_CONFIG_HOME").
// fallbackPath is the relative path from home (e.g., ".config").
func getXDGDir(envVar, fallbackPath string) string {
	if xdgDir := os.Getenv(envVar); xdgDir != "" {
		return filepath.Join(xdgDir, "todolist")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", fallbackPath, "todolist")
	}
	return filepath.Join(home, fallbackPath, "todolist")
}

// GetConfigDir returns the configuration directory following XDG spec
func GetConfigDir() string {
	return getXDGDir("XDG_CONFIG_HOME", ".config")
}

// GetDataDir returns the data directory following XDG spec
func GetDataDir() string {
	return getXDGDir("XDG_DATA_HOME", filepath.Join(".local", "share"))
}

// GetStateDir returns the state directory following XDG spec. Log files go here.
func GetStateDir() string {
	return getXDGDir("XDG_STATE_HOME", filepath.Join(".local", "state"))
}

// ExpandPath expands ~ and environment variables in a path
func ExpandPath(path string) string {
	if path == "" {
		return path
	}

	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(home, path[2:])
		}
	}

	return os.ExpandEnv(path)
}
