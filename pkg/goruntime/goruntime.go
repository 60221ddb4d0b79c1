// Package goruntime manages per-app Go toolchains through a goenv-style
// version manager checked out under the install base. Every app records
// the version it uses in its settings; garbage collection counts those
// references across all installed apps and uninstalls whatever nothing
// references anymore, including the version manager itself once the
// last Go app is gone.
package goruntime

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	apperrors "github.com/selfhostd/appkit/pkg/errors"
	"github.com/selfhostd/appkit/pkg/execr"
	"github.com/selfhostd/appkit/pkg/filesystem"
	"github.com/selfhostd/appkit/pkg/logging"
)

// SettingGoVersion is the app setting recording the installed toolchain
const SettingGoVersion = "go_version"

// profileScriptPrefix namespaces the per-app profile scripts we own
const profileScriptPrefix = "appkit-go-"

// SettingsStore is the slice of the settings store the manager needs
type SettingsStore interface {
	Get(app, key string) (string, error)
	Set(app, key, value string) error
	Delete(app, key string) error
	ListApps() ([]string, error)
}

// Options configures a Manager
type Options struct {
	// Root is the version manager checkout, e.g. /opt/goenv
	Root string

	// ProfileDir receives per-app profile scripts, e.g. /etc/profile.d
	ProfileDir string

	// Repo and PluginRepo are the git sources of the version manager
	// and its latest-version resolver plugin
	Repo       string
	PluginRepo string

	Runner execr.Runner
	Store  SettingsStore
	FS     filesystem.FS
}

// Manager installs, tracks and garbage-collects Go toolchains
type Manager struct {
	root       string
	profileDir string
	repo       string
	pluginRepo string
	runner     execr.Runner
	store      SettingsStore
	fs         filesystem.FS
	logger     zerolog.Logger
}

// NewManager creates a Manager
func NewManager(opts Options) *Manager {
	return &Manager{
		root:       opts.Root,
		profileDir: opts.ProfileDir,
		repo:       opts.Repo,
		pluginRepo: opts.PluginRepo,
		runner:     opts.Runner,
		store:      opts.Store,
		fs:         opts.FS,
		logger:     logging.GetLogger("goruntime"),
	}
}

func (m *Manager) goenvBin() string {
	return filepath.Join(m.root, "bin", "goenv")
}

func (m *Manager) goenvEnv() []string {
	return []string{"GOENV_ROOT=" + m.root}
}

// installed reports whether the version manager checkout exists
func (m *Manager) installed() bool {
	_, err := m.fs.Stat(m.goenvBin())
	return err == nil
}

// EnsureManager clones or refreshes the version manager and its
// resolver plugin
func (m *Manager) EnsureManager(ctx context.Context) error {
	if m.installed() {
		// A failed refresh is not fatal; the checkout we have still works.
		if _, err := m.runner.Run(ctx, execr.Cmd{
			Name: "git", Args: []string{"-C", m.root, "pull", "--quiet"},
		}); err != nil {
			m.logger.Warn().Err(err).Msg("Could not refresh version manager, keeping current checkout")
		}
	} else {
		if _, err := m.runner.Run(ctx, execr.Cmd{
			Name: "git", Args: []string{"clone", "--quiet", "--depth", "1", m.repo, m.root},
		}); err != nil {
			return apperrors.Wrap(err, apperrors.ErrRuntimeInstall, "cannot clone version manager")
		}
	}

	pluginDir := filepath.Join(m.root, "plugins", "xxenv-latest")
	if _, err := m.fs.Stat(pluginDir); err != nil {
		if _, err := m.runner.Run(ctx, execr.Cmd{
			Name: "git", Args: []string{"clone", "--quiet", "--depth", "1", m.pluginRepo, pluginDir},
		}); err != nil {
			return apperrors.Wrap(err, apperrors.ErrRuntimeInstall, "cannot clone version resolver plugin")
		}
	}
	return nil
}

// Resolve expands a version spec like "1.22" to the newest matching
// release known to the version manager. An exact version passes
// through when the resolver has nothing better.
func (m *Manager) Resolve(ctx context.Context, spec string) (string, error) {
	if spec == "" {
		return "", apperrors.New(apperrors.ErrInvalidInput, "version spec is required")
	}

	res, err := m.runner.Run(ctx, execr.Cmd{
		Name: m.goenvBin(),
		Args: []string{"latest", "--print", spec},
		Env:  m.goenvEnv(),
	})
	if err != nil {
		m.logger.Debug().Err(err).Str("spec", spec).Msg("Resolver failed, using spec verbatim")
		return spec, nil
	}
	resolved := strings.TrimSpace(res.Stdout)
	if resolved == "" {
		return spec, nil
	}
	return resolved, nil
}

// Install provisions a Go toolchain for an app: the requested version
// is resolved, installed if missing, recorded in the app's settings and
// exposed through a profile script. Returns the resolved version.
func (m *Manager) Install(ctx context.Context, app, spec string) (string, error) {
	if app == "" {
		return "", apperrors.New(apperrors.ErrInvalidInput, "app is required")
	}
	if err := m.EnsureManager(ctx); err != nil {
		return "", err
	}

	version, err := m.Resolve(ctx, spec)
	if err != nil {
		return "", err
	}

	m.logger.Info().Str("app", app).Str("version", version).Msg("Installing Go toolchain")
	if _, err := m.runner.Run(ctx, execr.Cmd{
		Name: m.goenvBin(),
		Args: []string{"install", "--skip-existing", version},
		Env:  m.goenvEnv(),
	}); err != nil {
		return "", apperrors.Wrapf(err, apperrors.ErrRuntimeInstall, "cannot install go %s", version)
	}

	// Record only after the toolchain is really there, so a failed
	// install never pins a phantom version.
	if err := m.store.Set(app, SettingGoVersion, version); err != nil {
		return "", err
	}
	if err := m.writeProfileScript(app, version); err != nil {
		return "", err
	}
	return version, nil
}

// GoBin returns the bin directory of an installed toolchain version
func (m *Manager) GoBin(version string) string {
	return filepath.Join(m.root, "versions", version, "bin")
}

// Remove forgets an app's toolchain and garbage-collects whatever is no
// longer referenced
func (m *Manager) Remove(ctx context.Context, app string) error {
	if app == "" {
		return apperrors.New(apperrors.ErrInvalidInput, "app is required")
	}

	if err := m.fs.Remove(m.profileScriptPath(app)); err != nil && !os.IsNotExist(err) {
		return apperrors.Wrapf(err, apperrors.ErrFileAccess, "cannot remove profile script for %s", app)
	}
	if err := m.store.Delete(app, SettingGoVersion); err != nil {
		return err
	}
	return m.Cleanup(ctx)
}

// Cleanup garbage-collects toolchain versions: every installed version
// that no app references anymore is uninstalled, and once no app
// references Go at all the version manager checkout itself goes away.
func (m *Manager) Cleanup(ctx context.Context) error {
	if !m.installed() {
		m.logger.Debug().Msg("Version manager not installed, nothing to clean")
		return nil
	}

	used, err := m.referencedVersions()
	if err != nil {
		return err
	}

	installed, err := m.installedVersions(ctx)
	if err != nil {
		return err
	}

	for _, version := range installed {
		if _, ok := used[version]; ok {
			continue
		}
		m.logger.Info().Str("version", version).Msg("Uninstalling unreferenced Go toolchain")
		if _, err := m.runner.Run(ctx, execr.Cmd{
			Name: m.goenvBin(),
			Args: []string{"uninstall", "--force", version},
			Env:  m.goenvEnv(),
		}); err != nil {
			// Best-effort GC: a stuck version must not block the others.
			m.logger.Warn().Err(err).Str("version", version).Msg("Could not uninstall toolchain")
		}
	}

	if len(used) == 0 {
		m.logger.Info().Str("root", m.root).Msg("No app uses Go anymore, removing version manager")
		if err := m.fs.RemoveAll(m.root); err != nil {
			return apperrors.Wrap(err, apperrors.ErrRuntimeUninstall, "cannot remove version manager")
		}
		if err := m.removeOrphanProfileScripts(); err != nil {
			return err
		}
	}
	return nil
}

// referencedVersions counts go_version references across all apps
func (m *Manager) referencedVersions() (map[string]struct{}, error) {
	apps, err := m.store.ListApps()
	if err != nil {
		return nil, err
	}

	used := make(map[string]struct{})
	for _, app := range apps {
		version, err := m.store.Get(app, SettingGoVersion)
		if err != nil {
			if apperrors.IsErrorCode(err, apperrors.ErrSettingNotFound) {
				continue
			}
			return nil, err
		}
		if version != "" {
			used[version] = struct{}{}
		}
	}
	return used, nil
}

func (m *Manager) installedVersions(ctx context.Context) ([]string, error) {
	res, err := m.runner.Run(ctx, execr.Cmd{
		Name: m.goenvBin(),
		Args: []string{"versions", "--bare"},
		Env:  m.goenvEnv(),
	})
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrRuntimeUninstall, "cannot list installed toolchains")
	}

	var versions []string
	for _, line := range strings.Split(res.Stdout, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			versions = append(versions, line)
		}
	}
	return versions, nil
}

func (m *Manager) profileScriptPath(app string) string {
	return filepath.Join(m.profileDir, profileScriptPrefix+app+".sh")
}

func (m *Manager) writeProfileScript(app, version string) error {
	if err := m.fs.MkdirAll(m.profileDir, 0755); err != nil {
		return apperrors.Wrap(err, apperrors.ErrDirCreate, "cannot create profile dir")
	}

	content := fmt.Sprintf(`# Managed by appkit, do not edit.
export GOENV_ROOT=%q
export GOENV_VERSION=%q
export PATH="%s:$PATH"
`, m.root, version, m.GoBin(version))

	path := m.profileScriptPath(app)
	if err := m.fs.WriteFile(path, []byte(content), 0644); err != nil {
		return apperrors.Wrapf(err, apperrors.ErrFileWrite, "cannot write profile script %s", path)
	}
	return nil
}

func (m *Manager) removeOrphanProfileScripts() error {
	entries, err := m.fs.ReadDir(m.profileDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return apperrors.Wrap(err, apperrors.ErrFileAccess, "cannot list profile dir")
	}
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, profileScriptPrefix) && strings.HasSuffix(name, ".sh") {
			if err := m.fs.Remove(filepath.Join(m.profileDir, name)); err != nil {
				return apperrors.Wrapf(err, apperrors.ErrFileAccess, "cannot remove %s", name)
			}
		}
	}
	return nil
}
