package model

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Duplicate-policy values for the ingestion coordinator.
const (
	// OnDuplicateReject keeps the first persisted record for a
	// (suite, executed-at) key and counts later arrivals as duplicates.
	OnDuplicateReject = "reject"

	// OnDuplicateRefresh replaces the persisted record with the newly
	// extracted one (e.g., a corrected report resent under the same
	// execution timestamp).
	OnDuplicateRefresh = "refresh"
)

// MailboxConfig holds the mail-API side of the ingestion pipeline.
// The three client-credential secrets are deliberately not part of the
// config file; they come from the keyring or the environment.
type MailboxConfig struct {
	// Folder is the display name of the inbox child folder that
	// receives the report emails.
	Folder string `mapstructure:"folder" yaml:"folder"`

	// FetchLimit is the maximum number of most-recent messages pulled
	// per ingestion run.
	FetchLimit int `mapstructure:"fetch_limit" yaml:"fetch_limit"`

	// GraphBaseURL and LoginBaseURL override the mail API and token
	// endpoints. Empty means the public Microsoft endpoints.
	GraphBaseURL string `mapstructure:"graph_base_url" yaml:"graph_base_url"`
	LoginBaseURL string `mapstructure:"login_base_url" yaml:"login_base_url"`
}

// IngestConfig holds ingestion policy knobs.
type IngestConfig struct {
	// OnDuplicate selects the duplicate-HistoryKey policy
	// (OnDuplicateReject or OnDuplicateRefresh).
	OnDuplicate string `mapstructure:"on_duplicate" yaml:"on_duplicate"`
}

// DisplayConfig holds viewer preferences.
type DisplayConfig struct {
	Theme string `mapstructure:"theme" yaml:"theme"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	// DBPath is the SQLite database file. Empty means the default
	// location next to the config file.
	DBPath string `mapstructure:"db_path" yaml:"db_path"`

	Mailbox MailboxConfig `mapstructure:"mailbox" yaml:"mailbox"`
	Ingest  IngestConfig  `mapstructure:"ingest" yaml:"ingest"`
	Display DisplayConfig `mapstructure:"display" yaml:"display"`
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/reportdash/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(home, ".config", "reportdash", "config.yaml")
}

// DefaultDBPath returns the default SQLite database location,
// ~/.config/reportdash/results.db.
func DefaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "results.db")
	}
	return filepath.Join(home, ".config", "reportdash", "results.db")
}

// defaultAppConfig returns a sensible default configuration.
func defaultAppConfig() *AppConfig {
	return &AppConfig{
		DBPath: DefaultDBPath(),
		Mailbox: MailboxConfig{
			Folder:     "Smoke-setup1",
			FetchLimit: 5,
		},
		Ingest: IngestConfig{
			OnDuplicate: OnDuplicateReject,
		},
		Display: DisplayConfig{
			Theme: "default",
		},
	}
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// If the file does not exist, it returns a default configuration.
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	// Set defaults so missing keys resolve to sensible values.
	v.SetDefault("db_path", DefaultDBPath())
	v.SetDefault("mailbox.folder", "Smoke-setup1")
	v.SetDefault("mailbox.fetch_limit", 5)
	v.SetDefault("ingest.on_duplicate", OnDuplicateReject)
	v.SetDefault("display.theme", "default")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(*os.PathError); ok {
			return defaultAppConfig(), nil
		}
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return defaultAppConfig(), nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := defaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}

	return cfg, nil
}

// Validate checks the configuration for values the pipeline cannot run
// with. Called once at load time rather than ad hoc by each component.
func (c *AppConfig) Validate() error {
	if c.Mailbox.Folder == "" {
		return fmt.Errorf("mailbox.folder must not be empty")
	}
	if c.Mailbox.FetchLimit < 1 {
		return fmt.Errorf("mailbox.fetch_limit must be at least 1, got %d", c.Mailbox.FetchLimit)
	}
	switch c.Ingest.OnDuplicate {
	case OnDuplicateReject, OnDuplicateRefresh:
	default:
		return fmt.Errorf("ingest.on_duplicate must be %q or %q, got %q",
			OnDuplicateReject, OnDuplicateRefresh, c.Ingest.OnDuplicate)
	}
	return nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("db_path", cfg.DBPath)
	v.Set("mailbox", cfg.Mailbox)
	v.Set("ingest", cfg.Ingest)
	v.Set("display", cfg.Display)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
