package goruntime_test

import (
	"context"
	"strings"
	"testing"

	apperrors "github.com/selfhostd/appkit/pkg/errors"
	"github.com/selfhostd/appkit/pkg/execr"
	"github.com/selfhostd/appkit/pkg/filesystem"
	"github.com/selfhostd/appkit/pkg/goruntime"
	"github.com/selfhostd/appkit/pkg/lifecycle"
	"github.com/selfhostd/appkit/pkg/settings"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testRoot    = "/opt/goenv"
	testProfile = "/etc/profile.d"
	goenvBin    = "/opt/goenv/bin/goenv"
)

type fixture struct {
	manager *goruntime.Manager
	runner  *execr.Recorder
	store   *settings.Store
	fs      filesystem.FS
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	fs := filesystem.NewMem()
	runner := execr.NewRecorder()
	store := settings.NewStore(fs, "/etc/appkit/apps")

	manager := goruntime.NewManager(goruntime.Options{
		Root:       testRoot,
		ProfileDir: testProfile,
		Repo:       "https://github.com/go-nv/goenv.git",
		PluginRepo: "https://github.com/momo-lab/xxenv-latest.git",
		Runner:     runner,
		Store:      store,
		FS:         fs,
	})
	return &fixture{manager: manager, runner: runner, store: store, fs: fs}
}

// markManagerInstalled fakes an existing goenv checkout
func (f *fixture) markManagerInstalled(t *testing.T) {
	t.Helper()
	require.NoError(t, f.fs.MkdirAll(testRoot+"/bin", 0755))
	require.NoError(t, f.fs.WriteFile(goenvBin, []byte("#!/bin/sh\n"), 0755))
	require.NoError(t, f.fs.MkdirAll(testRoot+"/plugins/xxenv-latest", 0755))
}

func TestInstallOnFreshHost(t *testing.T) {
	f := newFixture(t)
	f.runner.Stub(goenvBin+" latest --print 1.22", execr.Response{Stdout: "1.22.1\n"})

	version, err := f.manager.Install(context.Background(), "gitea", "1.22")
	require.NoError(t, err)
	assert.Equal(t, "1.22.1", version)

	lines := f.runner.CommandLines()
	assert.Contains(t, lines, "git clone --quiet --depth 1 https://github.com/go-nv/goenv.git /opt/goenv")
	assert.Contains(t, lines, "git clone --quiet --depth 1 https://github.com/momo-lab/xxenv-latest.git /opt/goenv/plugins/xxenv-latest")
	assert.Contains(t, lines, goenvBin+" install --skip-existing 1.22.1")

	stored, err := f.store.Get("gitea", goruntime.SettingGoVersion)
	require.NoError(t, err)
	assert.Equal(t, "1.22.1", stored)

	script, err := f.fs.ReadFile(testProfile + "/appkit-go-gitea.sh")
	require.NoError(t, err)
	assert.Contains(t, string(script), "GOENV_ROOT=\"/opt/goenv\"")
	assert.Contains(t, string(script), "GOENV_VERSION=\"1.22.1\"")
	assert.Contains(t, string(script), "/opt/goenv/versions/1.22.1/bin")
}

func TestInstallRefreshesExistingManager(t *testing.T) {
	f := newFixture(t)
	f.markManagerInstalled(t)
	f.runner.Stub(goenvBin+" latest --print 1.21", execr.Response{Stdout: "1.21.5\n"})

	_, err := f.manager.Install(context.Background(), "gitea", "1.21")
	require.NoError(t, err)

	lines := strings.Join(f.runner.CommandLines(), "\n")
	assert.Contains(t, lines, "git -C /opt/goenv pull --quiet")
	assert.NotContains(t, lines, "git clone --quiet --depth 1 https://github.com/go-nv/goenv.git")
}

func TestInstallSurvivesFailedRefresh(t *testing.T) {
	f := newFixture(t)
	f.markManagerInstalled(t)
	f.runner.StubPrefix("git -C", execr.Response{ExitCode: 1})
	f.runner.Stub(goenvBin+" latest --print 1.22", execr.Response{Stdout: "1.22.1\n"})

	_, err := f.manager.Install(context.Background(), "gitea", "1.22")
	assert.NoError(t, err)
}

func TestResolveFallsBackToSpec(t *testing.T) {
	f := newFixture(t)
	f.markManagerInstalled(t)
	f.runner.StubPrefix(goenvBin+" latest", execr.Response{ExitCode: 1})

	version, err := f.manager.Resolve(context.Background(), "1.22.9")
	require.NoError(t, err)
	assert.Equal(t, "1.22.9", version)
}

func TestResolveEmptySpecRejected(t *testing.T) {
	f := newFixture(t)

	_, err := f.manager.Resolve(context.Background(), "")
	assert.True(t, apperrors.IsErrorCode(err, apperrors.ErrInvalidInput))
}

func TestFailedInstallRecordsNothing(t *testing.T) {
	f := newFixture(t)
	f.markManagerInstalled(t)
	f.runner.Stub(goenvBin+" latest --print 1.22", execr.Response{Stdout: "1.22.1\n"})
	f.runner.Stub(goenvBin+" install --skip-existing 1.22.1", execr.Response{ExitCode: 1})

	_, err := f.manager.Install(context.Background(), "gitea", "1.22")
	require.Error(t, err)
	assert.True(t, apperrors.IsErrorCode(err, apperrors.ErrRuntimeInstall))

	_, err = f.store.Get("gitea", goruntime.SettingGoVersion)
	assert.True(t, apperrors.IsErrorCode(err, apperrors.ErrSettingNotFound))
}

// installGuarded mirrors how the CLI arms the failure cleanup: only a
// first install may remove the toolchain again, an upgrade keeps the
// previous pin on failure.
func (f *fixture) installGuarded(t *testing.T, app, spec string) error {
	t.Helper()
	_, priorErr := f.store.Get(app, goruntime.SettingGoVersion)
	hadToolchain := priorErr == nil

	return lifecycle.Run(func(g *lifecycle.Guard) error {
		if !hadToolchain {
			g.Defer("remove toolchain", func() error {
				return f.manager.Remove(context.Background(), app)
			})
		}
		_, err := f.manager.Install(context.Background(), app, spec)
		return err
	})
}

func TestFailedUpgradeKeepsExistingToolchain(t *testing.T) {
	f := newFixture(t)
	f.markManagerInstalled(t)
	require.NoError(t, f.store.Set("gitea", goruntime.SettingGoVersion, "1.21.5"))
	f.runner.Stub(goenvBin+" latest --print 1.22", execr.Response{Stdout: "1.22.1\n"})
	f.runner.Stub(goenvBin+" install --skip-existing 1.22.1", execr.Response{ExitCode: 1})

	require.Error(t, f.installGuarded(t, "gitea", "1.22"))

	stored, err := f.store.Get("gitea", goruntime.SettingGoVersion)
	require.NoError(t, err)
	assert.Equal(t, "1.21.5", stored, "previous pin survives a failed upgrade")

	lines := strings.Join(f.runner.CommandLines(), "\n")
	assert.NotContains(t, lines, "uninstall", "running toolchain must not be collected")
}

func TestFailedFirstInstallLeavesNoPin(t *testing.T) {
	f := newFixture(t)
	f.markManagerInstalled(t)
	f.runner.Stub(goenvBin+" latest --print 1.22", execr.Response{Stdout: "1.22.1\n"})
	f.runner.Stub(goenvBin+" install --skip-existing 1.22.1", execr.Response{ExitCode: 1})

	require.Error(t, f.installGuarded(t, "gitea", "1.22"))

	_, err := f.store.Get("gitea", goruntime.SettingGoVersion)
	assert.True(t, apperrors.IsErrorCode(err, apperrors.ErrSettingNotFound))
}

func TestCleanupUninstallsOnlyUnreferenced(t *testing.T) {
	f := newFixture(t)
	f.markManagerInstalled(t)
	require.NoError(t, f.store.Set("gitea", goruntime.SettingGoVersion, "1.22.1"))
	f.runner.Stub(goenvBin+" versions --bare", execr.Response{Stdout: "1.21.5\n1.22.1\n"})

	require.NoError(t, f.manager.Cleanup(context.Background()))

	lines := strings.Join(f.runner.CommandLines(), "\n")
	assert.Contains(t, lines, goenvBin+" uninstall --force 1.21.5")
	assert.NotContains(t, lines, "uninstall --force 1.22.1")

	// manager stays while a reference remains
	_, err := f.fs.Stat(goenvBin)
	assert.NoError(t, err)
}

func TestRemoveLastAppRemovesManager(t *testing.T) {
	f := newFixture(t)
	f.markManagerInstalled(t)
	require.NoError(t, f.store.Set("gitea", goruntime.SettingGoVersion, "1.22.1"))
	require.NoError(t, f.fs.WriteFile(testProfile+"/appkit-go-gitea.sh", []byte("export PATH=...\n"), 0644))
	f.runner.Stub(goenvBin+" versions --bare", execr.Response{Stdout: "1.22.1\n"})

	require.NoError(t, f.manager.Remove(context.Background(), "gitea"))

	lines := strings.Join(f.runner.CommandLines(), "\n")
	assert.Contains(t, lines, goenvBin+" uninstall --force 1.22.1")

	_, err := f.fs.Stat(testRoot)
	assert.Error(t, err, "version manager tree should be gone")

	_, err = f.fs.Stat(testProfile + "/appkit-go-gitea.sh")
	assert.Error(t, err, "profile script should be gone")
}

func TestRemoveKeepsVersionsOtherAppsUse(t *testing.T) {
	f := newFixture(t)
	f.markManagerInstalled(t)
	require.NoError(t, f.store.Set("gitea", goruntime.SettingGoVersion, "1.22.1"))
	require.NoError(t, f.store.Set("miniflux", goruntime.SettingGoVersion, "1.22.1"))
	f.runner.Stub(goenvBin+" versions --bare", execr.Response{Stdout: "1.22.1\n"})

	require.NoError(t, f.manager.Remove(context.Background(), "gitea"))

	lines := strings.Join(f.runner.CommandLines(), "\n")
	assert.NotContains(t, lines, "uninstall")

	_, err := f.fs.Stat(goenvBin)
	assert.NoError(t, err)
}

func TestCleanupWithoutManagerIsNoOp(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.manager.Cleanup(context.Background()))
	assert.Empty(t, f.runner.Calls())
}

func TestCleanupContinuesPastUninstallFailures(t *testing.T) {
	f := newFixture(t)
	f.markManagerInstalled(t)
	require.NoError(t, f.store.Set("gitea", goruntime.SettingGoVersion, "1.22.1"))
	f.runner.Stub(goenvBin+" versions --bare", execr.Response{Stdout: "1.20.0\n1.21.5\n1.22.1\n"})
	f.runner.Stub(goenvBin+" uninstall --force 1.20.0", execr.Response{ExitCode: 1})

	require.NoError(t, f.manager.Cleanup(context.Background()))

	lines := strings.Join(f.runner.CommandLines(), "\n")
	assert.Contains(t, lines, goenvBin+" uninstall --force 1.20.0")
	assert.Contains(t, lines, goenvBin+" uninstall --force 1.21.5")
}

func TestGoBin(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, "/opt/goenv/versions/1.22.1/bin", f.manager.GoBin("1.22.1"))
}
