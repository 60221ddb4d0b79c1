package filesystem_test

import (
	"testing"

	"github.com/selfhostd/appkit/pkg/filesystem"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemWriteReadRoundTrip(t *testing.T) {
	fs := filesystem.NewMem()

	require.NoError(t, fs.MkdirAll("/opt/app", 0755))
	require.NoError(t, fs.WriteFile("/opt/app/settings.yml", []byte("db_name: foo\n"), 0600))

	data, err := fs.ReadFile("/opt/app/settings.yml")
	require.NoError(t, err)
	assert.Equal(t, "db_name: foo\n", string(data))
}

func TestMemReadFileOnDirFails(t *testing.T) {
	fs := filesystem.NewMem()
	require.NoError(t, fs.MkdirAll("/opt/app", 0755))

	_, err := fs.ReadFile("/opt/app")
	assert.Error(t, err)
}

func TestMemReadDirListsEntries(t *testing.T) {
	fs := filesystem.NewMem()
	require.NoError(t, fs.MkdirAll("/apps/wordpress", 0755))
	require.NoError(t, fs.MkdirAll("/apps/gitea", 0755))

	entries, err := fs.ReadDir("/apps")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	names := []string{entries[0].Name(), entries[1].Name()}
	assert.Contains(t, names, "wordpress")
	assert.Contains(t, names, "gitea")
}

func TestMemRemoveAll(t *testing.T) {
	fs := filesystem.NewMem()
	require.NoError(t, fs.MkdirAll("/opt/goenv/versions/1.22.1", 0755))
	require.NoError(t, fs.RemoveAll("/opt/goenv"))

	_, err := fs.Stat("/opt/goenv")
	assert.Error(t, err)
}

func TestOSImplementsFS(t *testing.T) {
	dir := t.TempDir()
	fs := filesystem.NewOS()

	require.NoError(t, fs.WriteFile(dir+"/f", []byte("x"), 0644))
	info, err := fs.Stat(dir + "/f")
	require.NoError(t, err)
	assert.False(t, info.IsDir())
	require.NoError(t, fs.Chmod(dir+"/f", 0600))
	info, err = fs.Stat(dir + "/f")
	require.NoError(t, err)
	assert.Equal(t, "-rw-------", info.Mode().String())
}
