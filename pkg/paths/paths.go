// Package paths provides centralized path handling for the packaging
// helpers. Running as root uses the platform's system directories;
// unprivileged runs (tests, development) fall back to XDG locations so
// nothing escapes the user's home.
package paths

import (
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
)

// Environment variable names
const (
	// EnvInstallBase overrides where per-app artifacts and runtimes live
	EnvInstallBase = "APPKIT_INSTALL_BASE"

	// EnvProfileDir overrides where per-app profile scripts are written
	EnvProfileDir = "APPKIT_PROFILE_DIR"

	// EnvSettingsDir overrides the root of the app settings store
	EnvSettingsDir = "APPKIT_SETTINGS_DIR"

	// EnvLogDir overrides the helper log directory
	EnvLogDir = "APPKIT_LOG_DIR"
)

// System defaults used when running as root
const (
	systemInstallBase = "/opt"
	systemProfileDir  = "/etc/profile.d"
	systemSettingsDir = "/etc/appkit/apps"
	systemLogDir      = "/var/log/appkit"
)

// RuntimeManagerDirName is the directory name of the Go version manager
// under the install base. It is not user-configurable: remove scripts on
// every host must agree on it.
const RuntimeManagerDirName = "goenv"

// Paths resolves all filesystem locations the helpers touch
type Paths struct {
	installBase string
	profileDir  string
	settingsDir string
	logDir      string
}

// New resolves paths from the environment
func New() *Paths {
	root := os.Geteuid() == 0

	return &Paths{
		installBase: resolve(EnvInstallBase, root, systemInstallBase, filepath.Join(xdg.DataHome, "appkit", "opt")),
		profileDir:  resolve(EnvProfileDir, root, systemProfileDir, filepath.Join(xdg.DataHome, "appkit", "profile.d")),
		settingsDir: resolve(EnvSettingsDir, root, systemSettingsDir, filepath.Join(xdg.DataHome, "appkit", "apps")),
		logDir:      resolve(EnvLogDir, root, systemLogDir, filepath.Join(xdg.StateHome, "appkit")),
	}
}

func resolve(env string, root bool, systemDefault, userDefault string) string {
	if v := os.Getenv(env); v != "" {
		return v
	}
	if root {
		return systemDefault
	}
	return userDefault
}

// InstallBase returns the base directory for per-app installs and runtimes
func (p *Paths) InstallBase() string { return p.installBase }

// ProfileDir returns the directory for per-app profile scripts
func (p *Paths) ProfileDir() string { return p.profileDir }

// SettingsRoot returns the root directory of the app settings store
func (p *Paths) SettingsRoot() string { return p.settingsDir }

// LogDir returns the helper log directory
func (p *Paths) LogDir() string { return p.logDir }

// RuntimeManagerRoot returns the Go version manager installation directory
func (p *Paths) RuntimeManagerRoot() string {
	return filepath.Join(p.installBase, RuntimeManagerDirName)
}

// AppDir returns the install directory for an app
func (p *Paths) AppDir(app string) string {
	return filepath.Join(p.installBase, app)
}
