package filesystem

import (
	"io/fs"
)

// FS is the filesystem interface required by the packaging helpers
type FS interface {
	// File operations
	Stat(name string) (fs.FileInfo, error)
	Lstat(name string) (fs.FileInfo, error)
	ReadFile(name string) ([]byte, error)
	WriteFile(name string, data []byte, perm fs.FileMode) error

	// Directory operations
	ReadDir(name string) ([]fs.DirEntry, error)
	MkdirAll(path string, perm fs.FileMode) error

	// Metadata operations
	Chmod(name string, mode fs.FileMode) error
	Chown(name string, uid, gid int) error

	// Removal
	Remove(name string) error
	RemoveAll(path string) error
}
