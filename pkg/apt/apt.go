// Package apt wraps the Debian package tooling used for an app's system
// dependencies. It never resolves anything itself; apt-get and dpkg-query
// do the work, this package only pins the non-interactive flags packaging
// scripts need and remembers per-app dependency lists in the settings
// store so removal can purge exactly what installation pulled in.
package apt

import (
	"context"
	"strings"

	apperrors "github.com/selfhostd/appkit/pkg/errors"
	"github.com/selfhostd/appkit/pkg/execr"
	"github.com/selfhostd/appkit/pkg/logging"
)

// SettingDependencies is the app setting holding the space-joined list of
// packages installed on the app's behalf.
const SettingDependencies = "apt_dependencies"

var nonInteractiveEnv = []string{"DEBIAN_FRONTEND=noninteractive"}

// dpkg must never stop to ask about config files during unattended runs
var aptGetBaseArgs = []string{
	"--assume-yes",
	"--option", "Dpkg::Options::=--force-confold",
	"--option", "Dpkg::Options::=--force-confdef",
}

// SettingsStore is the slice of the settings store this package needs
type SettingsStore interface {
	Get(app, key string) (string, error)
	Set(app, key, value string) error
	Delete(app, key string) error
}

// Install installs the given packages non-interactively
func Install(ctx context.Context, runner execr.Runner, pkgs ...string) error {
	if len(pkgs) == 0 {
		return apperrors.New(apperrors.ErrInvalidInput, "no packages to install")
	}

	logger := logging.GetLogger("apt")
	logger.Info().Strs("packages", pkgs).Msg("Installing system packages")

	args := append(append([]string{}, aptGetBaseArgs...), "install")
	args = append(args, pkgs...)
	if _, err := runner.Run(ctx, execr.Cmd{
		Name: "apt-get",
		Args: args,
		Env:  nonInteractiveEnv,
	}); err != nil {
		return apperrors.Wrapf(err, apperrors.ErrPackageInstall,
			"cannot install packages %s", strings.Join(pkgs, " "))
	}
	return nil
}

// Remove purges the given packages and autoremoves what they dragged in
func Remove(ctx context.Context, runner execr.Runner, pkgs ...string) error {
	if len(pkgs) == 0 {
		return apperrors.New(apperrors.ErrInvalidInput, "no packages to remove")
	}

	logger := logging.GetLogger("apt")
	logger.Info().Strs("packages", pkgs).Msg("Removing system packages")

	args := append(append([]string{}, aptGetBaseArgs...), "remove", "--purge")
	args = append(args, pkgs...)
	if _, err := runner.Run(ctx, execr.Cmd{
		Name: "apt-get",
		Args: args,
		Env:  nonInteractiveEnv,
	}); err != nil {
		return apperrors.Wrapf(err, apperrors.ErrPackageRemove,
			"cannot remove packages %s", strings.Join(pkgs, " "))
	}

	if _, err := runner.Run(ctx, execr.Cmd{
		Name: "apt-get",
		Args: append(append([]string{}, aptGetBaseArgs...), "autoremove"),
		Env:  nonInteractiveEnv,
	}); err != nil {
		logger.Warn().Err(err).Msg("Autoremove failed, leaving leftovers behind")
	}
	return nil
}

// IsInstalled reports whether a package is fully installed
func IsInstalled(ctx context.Context, runner execr.Runner, pkg string) (bool, error) {
	res, err := runner.Run(ctx, execr.Cmd{
		Name: "dpkg-query",
		Args: []string{"--show", "--showformat", "${Status}", pkg},
	})
	if err != nil {
		// dpkg-query exits non-zero for unknown packages
		if apperrors.IsErrorCode(err, apperrors.ErrCommandExit) {
			return false, nil
		}
		return false, apperrors.Wrapf(err, apperrors.ErrCommandRun, "cannot query package %s", pkg)
	}
	return strings.Contains(res.Stdout, "install ok installed"), nil
}

// AppDependencies returns the packages recorded for an app, empty when
// none were recorded
func AppDependencies(store SettingsStore, app string) ([]string, error) {
	raw, err := store.Get(app, SettingDependencies)
	if err != nil {
		if apperrors.IsErrorCode(err, apperrors.ErrSettingNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return strings.Fields(raw), nil
}

// SetAppDependencies records the packages installed for an app. An empty
// list clears the setting.
func SetAppDependencies(store SettingsStore, app string, pkgs []string) error {
	if len(pkgs) == 0 {
		return store.Delete(app, SettingDependencies)
	}
	return store.Set(app, SettingDependencies, strings.Join(pkgs, " "))
}
