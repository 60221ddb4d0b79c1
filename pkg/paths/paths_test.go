package paths_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/selfhostd/appkit/pkg/paths"
	"github.com/stretchr/testify/assert"
)

func TestEnvOverridesWin(t *testing.T) {
	t.Setenv(paths.EnvInstallBase, "/custom/opt")
	t.Setenv(paths.EnvProfileDir, "/custom/profile.d")
	t.Setenv(paths.EnvSettingsDir, "/custom/apps")
	t.Setenv(paths.EnvLogDir, "/custom/logs")

	p := paths.New()

	assert.Equal(t, "/custom/opt", p.InstallBase())
	assert.Equal(t, "/custom/profile.d", p.ProfileDir())
	assert.Equal(t, "/custom/apps", p.SettingsRoot())
	assert.Equal(t, "/custom/logs", p.LogDir())
}

func TestDerivedPaths(t *testing.T) {
	t.Setenv(paths.EnvInstallBase, "/base")

	p := paths.New()

	assert.Equal(t, filepath.Join("/base", "goenv"), p.RuntimeManagerRoot())
	assert.Equal(t, filepath.Join("/base", "wordpress"), p.AppDir("wordpress"))
}

func TestUnprivilegedFallbackStaysInHome(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("running as root, fallback paths not used")
	}
	t.Setenv(paths.EnvInstallBase, "")

	p := paths.New()
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	assert.Contains(t, p.InstallBase(), home)
}
