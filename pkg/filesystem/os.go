package filesystem

import (
	"io/fs"
	"os"
)

// osFS implements FS using the real filesystem
type osFS struct{}

// NewOS creates a new OS-backed filesystem implementation
func NewOS() FS {
	return &osFS{}
}

func (o *osFS) Stat(name string) (fs.FileInfo, error)  { return os.Stat(name) }
func (o *osFS) Lstat(name string) (fs.FileInfo, error) { return os.Lstat(name) }
func (o *osFS) ReadFile(name string) ([]byte, error)   { return os.ReadFile(name) }

func (o *osFS) WriteFile(name string, data []byte, perm fs.FileMode) error {
	return os.WriteFile(name, data, perm)
}

func (o *osFS) ReadDir(name string) ([]fs.DirEntry, error) { return os.ReadDir(name) }

func (o *osFS) MkdirAll(path string, perm fs.FileMode) error {
	return os.MkdirAll(path, perm)
}

func (o *osFS) Chmod(name string, mode fs.FileMode) error { return os.Chmod(name, mode) }
func (o *osFS) Chown(name string, uid, gid int) error     { return os.Chown(name, uid, gid) }
func (o *osFS) Remove(name string) error                  { return os.Remove(name) }
func (o *osFS) RemoveAll(path string) error               { return os.RemoveAll(path) }
