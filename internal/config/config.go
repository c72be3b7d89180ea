package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	Database DatabaseConfig
	Manifest ManifestConfig
	UI       UIConfig
}

// DatabaseConfig holds sqlite settings for local navigation state.
type DatabaseConfig struct {
	Path           string
	MigrationsPath string `mapstructure:"migrations_path"`
}

// ManifestConfig locates the declarative unit manifests.
type ManifestConfig struct {
	Dir string
}

// UIConfig holds presentation settings.
type UIConfig struct {
	PlatformVersion string `mapstructure:"platform_version"`
	LogDir          string `mapstructure:"log_dir"`
}

// Load reads configuration from file and env. Env var overrides use prefix OPSDECK_.
func Load() (Config, error) {
	v := viper.New()

	// default values
	v.SetDefault("database.path", filepath.Join(os.Getenv("HOME"), ".local", "share", "opsdeck", "opsdeck.db"))
	v.SetDefault("database.migrations_path", "internal/store/migrations")
	v.SetDefault("manifest.dir", filepath.Join(os.Getenv("HOME"), ".config", "opsdeck", "units"))
	v.SetDefault("ui.platform_version", "0.8.3-demo")
	v.SetDefault("ui.log_dir", filepath.Join(os.Getenv("HOME"), ".local", "share", "opsdeck", "logs"))

	v.SetConfigType("toml")

	cfgPath := os.Getenv("OPSDECK_CONFIG")
	if cfgPath != "" {
		v.SetConfigFile(cfgPath)
	} else {
		v.AddConfigPath(filepath.Join(os.Getenv("HOME"), ".config", "opsdeck"))
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("OPSDECK")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// read config file if present
	_ = v.ReadInConfig()

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return c, nil
}

// Save writes the provided config to disk, creating the config directory if needed.
func Save(cfg Config) error {
	path := os.Getenv("OPSDECK_CONFIG")
	if path == "" {
		path = filepath.Join(os.Getenv("HOME"), ".config", "opsdeck", "config.toml")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}

	v := viper.New()
	v.SetConfigType("toml")
	v.Set("database.path", cfg.Database.Path)
	v.Set("database.migrations_path", cfg.Database.MigrationsPath)
	v.Set("manifest.dir", cfg.Manifest.Dir)
	v.Set("ui.platform_version", cfg.UI.PlatformVersion)
	v.Set("ui.log_dir", cfg.UI.LogDir)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
