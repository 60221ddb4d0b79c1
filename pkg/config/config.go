// Package config loads the layered helper configuration: embedded
// defaults, then the host config file, then APPKIT_* environment
// variables. Later layers win.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	apperrors "github.com/selfhostd/appkit/pkg/errors"
)

// EnvConfigDir overrides where the host config file is looked up
const EnvConfigDir = "APPKIT_CONFIG_DIR"

const (
	systemConfigDir = "/etc/appkit"
	configFileName  = "appkit.toml"
	envPrefix       = "APPKIT_"
)

// Config holds the merged helper configuration
type Config struct {
	k *koanf.Koanf
}

// Load builds the configuration from all layers
func Load() (*Config, error) {
	k := koanf.New(".")

	// 1. Embedded defaults
	if err := k.Load(&rawBytesProvider{bytes: defaultConfig}, toml.Parser()); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrConfigLoad, "failed to load defaults")
	}

	// 2. Host config file if it exists
	configDir := os.Getenv(EnvConfigDir)
	if configDir == "" {
		configDir = systemConfigDir
	}
	path := filepath.Join(configDir, configFileName)
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
			return nil, apperrors.Wrapf(err, apperrors.ErrConfigParse, "failed to load config from %s", path)
		}
	}

	// 3. Environment: APPKIT_MYSQL_SOCKET -> mysql.socket
	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, envPrefix)), "_", ".")
	}), nil); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrConfigLoad, "failed to load environment overrides")
	}

	return &Config{k: k}, nil
}

// Get returns a string value by dotted key
func (c *Config) Get(key string) string { return c.k.String(key) }

// MySQLSocket returns the MySQL/MariaDB unix socket path
func (c *Config) MySQLSocket() string { return c.k.String("mysql.socket") }

// MySQLAdminUser returns the administrative user for provisioning
func (c *Config) MySQLAdminUser() string { return c.k.String("mysql.user") }

// MySQLAdminPassword returns the admin password, usually empty with
// unix socket auth
func (c *Config) MySQLAdminPassword() string { return c.k.String("mysql.password") }

// RuntimeRepo returns the git repository of the Go version manager
func (c *Config) RuntimeRepo() string { return c.k.String("goruntime.repo") }

// RuntimePluginRepo returns the git repository of the version resolver plugin
func (c *Config) RuntimePluginRepo() string { return c.k.String("goruntime.plugin") }

// DefaultOwner returns the owner applied during permission hardening
func (c *Config) DefaultOwner() string { return c.k.String("permissions.owner") }
