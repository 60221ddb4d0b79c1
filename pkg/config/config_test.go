package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv(EnvConfigDir, t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/run/mysqld/mysqld.sock", cfg.MySQLSocket())
	assert.Equal(t, "root", cfg.MySQLAdminUser())
	assert.Equal(t, "https://github.com/go-nv/goenv.git", cfg.RuntimeRepo())
	assert.Equal(t, "https://github.com/momo-lab/xxenv-latest.git", cfg.RuntimePluginRepo())
	assert.Equal(t, "root", cfg.DefaultOwner())
}

func TestLoadHostConfigOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	content := "[mysql]\nsocket = \"/var/lib/mysql/mysql.sock\"\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "appkit.toml"), []byte(content), 0644))
	t.Setenv(EnvConfigDir, dir)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/mysql/mysql.sock", cfg.MySQLSocket())
	// untouched keys keep their defaults
	assert.Equal(t, "root", cfg.MySQLAdminUser())
}

func TestEnvOverridesEverything(t *testing.T) {
	dir := t.TempDir()
	content := "[mysql]\nsocket = \"/from/file.sock\"\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "appkit.toml"), []byte(content), 0644))
	t.Setenv(EnvConfigDir, dir)
	t.Setenv("APPKIT_MYSQL_SOCKET", "/from/env.sock")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/from/env.sock", cfg.MySQLSocket())
}

func TestLoadBadHostConfigFails(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "appkit.toml"), []byte("not toml ["), 0644))
	t.Setenv(EnvConfigDir, dir)

	_, err := Load()
	assert.Error(t, err)
}

func TestGetDefaultsContent(t *testing.T) {
	assert.Contains(t, GetDefaultsContent(), "[mysql]")
}
