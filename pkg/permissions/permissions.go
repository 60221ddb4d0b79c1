// Package permissions hardens the ownership and modes of app install
// directories and guards destructive filesystem removals against
// obviously wrong paths.
package permissions

import (
	"io/fs"
	"os/user"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	apperrors "github.com/selfhostd/appkit/pkg/errors"
	"github.com/selfhostd/appkit/pkg/filesystem"
	"github.com/selfhostd/appkit/pkg/logging"
)

// Default modes applied during hardening. Files stay readable by the
// app group, never by others; anything executable keeps group execute.
const (
	FileMode       = fs.FileMode(0640)
	ExecutableMode = fs.FileMode(0750)
	DirMode        = fs.FileMode(0750)
)

// protectedPaths are the roots SecureRemove refuses to delete, directly
// or via a one-level standard subdirectory.
var protectedPaths = []string{
	"/", "/bin", "/boot", "/dev", "/etc", "/home", "/lib", "/lib32",
	"/lib64", "/media", "/mnt", "/opt", "/proc", "/root", "/run",
	"/sbin", "/srv", "/sys", "/tmp", "/usr", "/usr/bin", "/usr/lib",
	"/usr/local", "/usr/sbin", "/usr/share", "/var", "/var/lib",
	"/var/log", "/var/mail", "/var/spool", "/var/www",
}

// Harden applies the platform default permissions to an install
// directory: owner:group ownership everywhere, directories 0750, plain
// files 0640, executables 0750.
func Harden(fsys filesystem.FS, dir, owner, group string) error {
	uid, gid, err := lookupIDs(owner, group)
	if err != nil {
		return err
	}
	return HardenWithIDs(fsys, dir, uid, gid)
}

// HardenWithIDs is Harden with pre-resolved numeric ids
func HardenWithIDs(fsys filesystem.FS, dir string, uid, gid int) error {
	logger := logging.GetLogger("permissions")

	info, err := fsys.Lstat(dir)
	if err != nil {
		return apperrors.Wrapf(err, apperrors.ErrFileAccess, "cannot stat %s", dir)
	}
	if !info.IsDir() {
		return apperrors.Newf(apperrors.ErrInvalidInput, "%s is not a directory", dir)
	}

	return hardenTree(fsys, logger, dir, uid, gid)
}

func hardenTree(fsys filesystem.FS, logger zerolog.Logger, dir string, uid, gid int) error {
	if err := applyOne(fsys, dir, DirMode, uid, gid); err != nil {
		return err
	}

	entries, err := fsys.ReadDir(dir)
	if err != nil {
		return apperrors.Wrapf(err, apperrors.ErrFileAccess, "cannot read %s", dir)
	}

	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())
		info, err := fsys.Lstat(path)
		if err != nil {
			return apperrors.Wrapf(err, apperrors.ErrFileAccess, "cannot stat %s", path)
		}

		// Never follow or rewrite symlinks; their targets may live
		// outside the install dir.
		if info.Mode()&fs.ModeSymlink != 0 {
			logger.Debug().Str("path", path).Msg("Skipping symlink")
			continue
		}

		if info.IsDir() {
			if err := hardenTree(fsys, logger, path, uid, gid); err != nil {
				return err
			}
			continue
		}

		mode := FileMode
		if info.Mode().Perm()&0111 != 0 || filepath.Base(dir) == "bin" {
			mode = ExecutableMode
		}
		if err := applyOne(fsys, path, mode, uid, gid); err != nil {
			return err
		}
	}
	return nil
}

func applyOne(fsys filesystem.FS, path string, mode fs.FileMode, uid, gid int) error {
	if err := fsys.Chmod(path, mode); err != nil {
		return apperrors.Wrapf(err, apperrors.ErrOwnershipApply, "cannot chmod %s", path)
	}
	if err := fsys.Chown(path, uid, gid); err != nil {
		return apperrors.Wrapf(err, apperrors.ErrOwnershipApply, "cannot chown %s", path)
	}
	return nil
}

// SetFilePermissions applies a mode and ownership to a single path
func SetFilePermissions(fsys filesystem.FS, path string, mode fs.FileMode, owner, group string) error {
	uid, gid, err := lookupIDs(owner, group)
	if err != nil {
		return err
	}
	return applyOne(fsys, path, mode, uid, gid)
}

// SecureRemove deletes a path recursively after checking it is safe to
// do so. Removing a path that does not exist succeeds.
func SecureRemove(fsys filesystem.FS, path string) error {
	logger := logging.GetLogger("permissions")

	if err := checkRemovable(path); err != nil {
		return err
	}

	if _, err := fsys.Lstat(path); err != nil {
		logger.Debug().Str("path", path).Msg("Nothing to remove")
		return nil
	}

	logger.Info().Str("path", path).Msg("Removing")
	if err := fsys.RemoveAll(path); err != nil {
		return apperrors.Wrapf(err, apperrors.ErrFileAccess, "cannot remove %s", path)
	}
	return nil
}

func checkRemovable(path string) error {
	if path == "" {
		return apperrors.New(apperrors.ErrInvalidInput, "empty path")
	}
	if !filepath.IsAbs(path) {
		return apperrors.Newf(apperrors.ErrPathUnsafe, "refusing to remove relative path %q", path)
	}
	if strings.Contains(path, "..") {
		return apperrors.Newf(apperrors.ErrPathUnsafe, "refusing to remove path with traversal %q", path)
	}

	clean := filepath.Clean(path)
	for _, protected := range protectedPaths {
		if clean == protected {
			return apperrors.Newf(apperrors.ErrPathUnsafe, "refusing to remove protected path %q", path).
				WithDetail("path", clean)
		}
	}
	return nil
}

func lookupIDs(owner, group string) (int, int, error) {
	u, err := user.Lookup(owner)
	if err != nil {
		return 0, 0, apperrors.Wrapf(err, apperrors.ErrNotFound, "unknown user %q", owner)
	}
	g, err := user.LookupGroup(group)
	if err != nil {
		return 0, 0, apperrors.Wrapf(err, apperrors.ErrNotFound, "unknown group %q", group)
	}
	uid, err := strconv.Atoi(u.Uid)
	if err != nil {
		return 0, 0, apperrors.Wrapf(err, apperrors.ErrInternal, "non-numeric uid for %q", owner)
	}
	gid, err := strconv.Atoi(g.Gid)
	if err != nil {
		return 0, 0, apperrors.Wrapf(err, apperrors.ErrInternal, "non-numeric gid for %q", group)
	}
	return uid, gid, nil
}
