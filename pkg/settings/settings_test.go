package settings_test

import (
	"testing"

	apperrors "github.com/selfhostd/appkit/pkg/errors"
	"github.com/selfhostd/appkit/pkg/filesystem"
	"github.com/selfhostd/appkit/pkg/settings"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) (*settings.Store, filesystem.FS) {
	t.Helper()
	fs := filesystem.NewMem()
	return settings.NewStore(fs, "/etc/appkit/apps"), fs
}

func TestSetGetRoundTrip(t *testing.T) {
	store, _ := newStore(t)

	require.NoError(t, store.Set("gitea", "db_name", "gitea"))
	require.NoError(t, store.Set("gitea", "go_version", "1.22.1"))

	v, err := store.Get("gitea", "go_version")
	require.NoError(t, err)
	assert.Equal(t, "1.22.1", v)
}

func TestGetMissingKey(t *testing.T) {
	store, _ := newStore(t)
	require.NoError(t, store.Set("gitea", "db_name", "gitea"))

	_, err := store.Get("gitea", "absent")
	assert.True(t, apperrors.IsErrorCode(err, apperrors.ErrSettingNotFound))
}

func TestGetUnknownApp(t *testing.T) {
	store, _ := newStore(t)

	_, err := store.Get("nope", "db_name")
	assert.True(t, apperrors.IsErrorCode(err, apperrors.ErrSettingNotFound))
}

func TestEmptyValueIsStored(t *testing.T) {
	store, _ := newStore(t)

	require.NoError(t, store.Set("gitea", "admin_mail", ""))

	v, err := store.Get("gitea", "admin_mail")
	require.NoError(t, err)
	assert.Equal(t, "", v)
}

func TestEnvOverrideWinsForCurrentApp(t *testing.T) {
	store, _ := newStore(t)
	require.NoError(t, store.Set("gitea", "db_pwd", "stored"))

	t.Setenv(settings.EnvAppID, "gitea")
	t.Setenv("YNH_APP_SETTING_DB_PWD", "from-env")

	v, err := store.Get("gitea", "db_pwd")
	require.NoError(t, err)
	assert.Equal(t, "from-env", v)

	// Other apps are unaffected by the override
	require.NoError(t, store.Set("wordpress", "db_pwd", "other"))
	v, err = store.Get("wordpress", "db_pwd")
	require.NoError(t, err)
	assert.Equal(t, "other", v)
}

func TestDeleteAbsentKeyIsNoOp(t *testing.T) {
	store, _ := newStore(t)

	assert.NoError(t, store.Delete("gitea", "anything"))

	require.NoError(t, store.Set("gitea", "keep", "1"))
	assert.NoError(t, store.Delete("gitea", "absent"))

	v, err := store.Get("gitea", "keep")
	require.NoError(t, err)
	assert.Equal(t, "1", v)
}

func TestDeleteRemovesKey(t *testing.T) {
	store, _ := newStore(t)
	require.NoError(t, store.Set("gitea", "go_version", "1.22.1"))

	require.NoError(t, store.Delete("gitea", "go_version"))

	_, err := store.Get("gitea", "go_version")
	assert.True(t, apperrors.IsErrorCode(err, apperrors.ErrSettingNotFound))
}

func TestGetAllReturnsCopy(t *testing.T) {
	store, _ := newStore(t)
	require.NoError(t, store.Set("gitea", "a", "1"))
	require.NoError(t, store.Set("gitea", "b", "2"))

	all, err := store.GetAll("gitea")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"a": "1", "b": "2"}, all)

	all["a"] = "mutated"
	v, err := store.Get("gitea", "a")
	require.NoError(t, err)
	assert.Equal(t, "1", v)
}

func TestListApps(t *testing.T) {
	store, fs := newStore(t)

	apps, err := store.ListApps()
	require.NoError(t, err)
	assert.Empty(t, apps)

	require.NoError(t, store.Set("wordpress", "db_name", "wordpress"))
	require.NoError(t, store.Set("gitea", "db_name", "gitea"))
	// directory without a settings file is not an installed app
	require.NoError(t, fs.MkdirAll("/etc/appkit/apps/leftover", 0750))

	apps, err = store.ListApps()
	require.NoError(t, err)
	assert.Equal(t, []string{"gitea", "wordpress"}, apps)
}

func TestNonStringScalarsAreStringified(t *testing.T) {
	store, fs := newStore(t)
	require.NoError(t, fs.MkdirAll("/etc/appkit/apps/gitea", 0750))
	content := "port: 8080\nenable_tls: true\nempty:\n"
	require.NoError(t, fs.WriteFile("/etc/appkit/apps/gitea/settings.yml", []byte(content), 0600))

	v, err := store.Get("gitea", "port")
	require.NoError(t, err)
	assert.Equal(t, "8080", v)

	v, err = store.Get("gitea", "enable_tls")
	require.NoError(t, err)
	assert.Equal(t, "true", v)

	v, err = store.Get("gitea", "empty")
	require.NoError(t, err)
	assert.Equal(t, "", v)
}

func TestValidationErrors(t *testing.T) {
	store, _ := newStore(t)

	_, err := store.Get("", "key")
	assert.True(t, apperrors.IsErrorCode(err, apperrors.ErrInvalidInput))

	err = store.Set("app", "", "v")
	assert.True(t, apperrors.IsErrorCode(err, apperrors.ErrInvalidInput))
}
