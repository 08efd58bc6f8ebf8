package model

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// APIConfig holds the connection settings for the task API.
type APIConfig struct {
	// BaseURL is the API root, e.g. http://localhost:8000/api.
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`

	// TimeoutSec bounds each request; 0 leaves requests unbounded.
	TimeoutSec int `mapstructure:"timeout_sec" yaml:"timeout_sec"`
}

// CredentialConfig selects where the auth token is persisted.
type CredentialConfig struct {
	// Backend is "keyring" (OS keychain with file fallback) or "memory".
	Backend string `mapstructure:"backend" yaml:"backend"`

	// FileDir is used by the keyring file backend.
	FileDir string `mapstructure:"file_dir" yaml:"file_dir"`
}

// DisplayConfig holds UI/rendering preferences.
type DisplayConfig struct {
	Theme       string `mapstructure:"theme" yaml:"theme"`
	DefaultSort string `mapstructure:"default_sort" yaml:"default_sort"`
}

// LogConfig controls the structured log sink.
type LogConfig struct {
	File  string `mapstructure:"file" yaml:"file"`
	Level string `mapstructure:"level" yaml:"level"`
}

// ServerConfig holds reference API server settings.
type ServerConfig struct {
	Addr string `mapstructure:"addr" yaml:"addr"`
}

// DatabaseConfig selects the reference server's store.
type DatabaseConfig struct {
	// Driver is "sqlite" or "postgres".
	Driver string `mapstructure:"driver" yaml:"driver"`
	DSN    string `mapstructure:"dsn" yaml:"dsn"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	API        APIConfig        `mapstructure:"api" yaml:"api"`
	Credential CredentialConfig `mapstructure:"credential" yaml:"credential"`
	Display    DisplayConfig    `mapstructure:"display" yaml:"display"`
	Log        LogConfig        `mapstructure:"log" yaml:"log"`
	Server     ServerConfig     `mapstructure:"server" yaml:"server"`
	Database   DatabaseConfig   `mapstructure:"database" yaml:"database"`
}

// ConfigDir returns ~/.config/taskboard, or the working directory when the
// home directory cannot be determined.
func ConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "taskboard")
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/taskboard/config.yaml.
func DefaultConfigPath() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// DefaultAppConfig returns a sensible default configuration.
func DefaultAppConfig() *AppConfig {
	dir := ConfigDir()
	return &AppConfig{
		API: APIConfig{
			BaseURL: "http://localhost:8000/api",
		},
		Credential: CredentialConfig{
			Backend: "keyring",
			FileDir: filepath.Join(dir, "credentials"),
		},
		Display: DisplayConfig{
			Theme:       "default",
			DefaultSort: "due_date",
		},
		Log: LogConfig{
			File:  filepath.Join(dir, "taskboard.log"),
			Level: "info",
		},
		Server: ServerConfig{
			Addr: ":8000",
		},
		Database: DatabaseConfig{
			Driver: "sqlite",
			DSN:    filepath.Join(dir, "taskboard.db"),
		},
	}
}

func setDefaults(v *viper.Viper, cfg *AppConfig) {
	v.SetDefault("api.base_url", cfg.API.BaseURL)
	v.SetDefault("api.timeout_sec", cfg.API.TimeoutSec)
	v.SetDefault("credential.backend", cfg.Credential.Backend)
	v.SetDefault("credential.file_dir", cfg.Credential.FileDir)
	v.SetDefault("display.theme", cfg.Display.Theme)
	v.SetDefault("display.default_sort", cfg.Display.DefaultSort)
	v.SetDefault("log.file", cfg.Log.File)
	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("server.addr", cfg.Server.Addr)
	v.SetDefault("database.driver", cfg.Database.Driver)
	v.SetDefault("database.dsn", cfg.Database.DSN)
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// If the file does not exist, defaults are used. Every key can be
// overridden from the environment with a TASKBOARD_ prefix, e.g.
// TASKBOARD_API_BASE_URL.
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("taskboard")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v, DefaultAppConfig())

	if err := v.ReadInConfig(); err != nil {
		var pathErr *os.PathError
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &pathErr) && !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	cfg := &AppConfig{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	cfg.API.BaseURL = strings.TrimRight(cfg.API.BaseURL, "/")

	return cfg, nil
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

	v.Set("api", cfg.API)
	v.Set("credential", cfg.Credential)
	v.Set("display", cfg.Display)
	v.Set("log", cfg.Log)
	v.Set("server", cfg.Server)
	v.Set("database", cfg.Database)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
