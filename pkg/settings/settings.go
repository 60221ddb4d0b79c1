// Package settings reads and writes the per-app key-value settings the
// platform persists for every installed application. The store is one
// YAML file per app under the settings root; the calling platform may
// additionally export overrides for the current app through
// YNH_APP_SETTING_* environment variables, which win over the store.
package settings

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	apperrors "github.com/selfhostd/appkit/pkg/errors"
	"github.com/selfhostd/appkit/pkg/filesystem"
	"github.com/selfhostd/appkit/pkg/logging"
)

// EnvAppID names the app the current packaging script operates on
const EnvAppID = "YNH_APP_ID"

// envSettingPrefix marks environment overrides for the current app
const envSettingPrefix = "YNH_APP_SETTING_"

const settingsFileName = "settings.yml"

// Store gives access to the app settings store
type Store struct {
	root   string
	fs     filesystem.FS
	logger zerolog.Logger
}

// NewStore creates a Store rooted at the given directory
func NewStore(fs filesystem.FS, root string) *Store {
	return &Store{
		root:   root,
		fs:     fs,
		logger: logging.GetLogger("settings"),
	}
}

// Get returns the value of a setting. For the app the current script
// runs for, an exported YNH_APP_SETTING_<KEY> wins over the store.
func (s *Store) Get(app, key string) (string, error) {
	if app == "" || key == "" {
		return "", apperrors.New(apperrors.ErrInvalidInput, "app and key are required")
	}

	if os.Getenv(EnvAppID) == app {
		envKey := envSettingPrefix + strings.ToUpper(key)
		if value, ok := os.LookupEnv(envKey); ok {
			s.logger.Debug().Str("app", app).Str("key", key).Msg("Setting served from environment override")
			return value, nil
		}
	}

	values, err := s.readAll(app)
	if err != nil {
		return "", err
	}
	value, ok := values[key]
	if !ok {
		return "", apperrors.Newf(apperrors.ErrSettingNotFound, "app %s has no setting %q", app, key)
	}
	return value, nil
}

// Set persists a setting value. Empty values are legal and distinct
// from absent keys.
func (s *Store) Set(app, key, value string) error {
	if app == "" || key == "" {
		return apperrors.New(apperrors.ErrInvalidInput, "app and key are required")
	}

	values, err := s.readAll(app)
	if err != nil && !apperrors.IsErrorCode(err, apperrors.ErrSettingNotFound) {
		return err
	}
	if values == nil {
		values = make(map[string]string)
	}
	values[key] = value
	return s.writeAll(app, values)
}

// Delete removes a setting. Deleting an absent key is a no-op.
func (s *Store) Delete(app, key string) error {
	values, err := s.readAll(app)
	if err != nil {
		if apperrors.IsErrorCode(err, apperrors.ErrSettingNotFound) {
			return nil
		}
		return err
	}
	if _, ok := values[key]; !ok {
		return nil
	}
	delete(values, key)
	return s.writeAll(app, values)
}

// GetAll returns a copy of every setting stored for an app
func (s *Store) GetAll(app string) (map[string]string, error) {
	values, err := s.readAll(app)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(values))
	for k, v := range values {
		out[k] = v
	}
	return out, nil
}

// ListApps returns the ids of every installed app, i.e. every store
// entry that carries a settings file. A missing store root means no
// apps are installed.
func (s *Store) ListApps() ([]string, error) {
	entries, err := s.fs.ReadDir(s.root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, apperrors.Wrapf(err, apperrors.ErrSettingStore, "cannot list settings store %s", s.root)
	}

	var apps []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if _, err := s.fs.Stat(filepath.Join(s.root, entry.Name(), settingsFileName)); err == nil {
			apps = append(apps, entry.Name())
		}
	}
	sort.Strings(apps)
	return apps, nil
}

func (s *Store) settingsPath(app string) string {
	return filepath.Join(s.root, app, settingsFileName)
}

func (s *Store) readAll(app string) (map[string]string, error) {
	data, err := s.fs.ReadFile(s.settingsPath(app))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.Newf(apperrors.ErrSettingNotFound, "app %s has no settings", app)
		}
		return nil, apperrors.Wrapf(err, apperrors.ErrSettingStore, "cannot read settings for %s", app)
	}

	// The platform writes scalars of any YAML type; scripts consume
	// everything as strings.
	raw := make(map[string]interface{})
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, apperrors.Wrapf(err, apperrors.ErrSettingStore, "corrupt settings file for %s", app)
	}
	values := make(map[string]string, len(raw))
	for k, v := range raw {
		if v == nil {
			values[k] = ""
			continue
		}
		values[k] = fmt.Sprint(v)
	}
	return values, nil
}

func (s *Store) writeAll(app string, values map[string]string) error {
	data, err := yaml.Marshal(values)
	if err != nil {
		return apperrors.Wrapf(err, apperrors.ErrSettingStore, "cannot encode settings for %s", app)
	}

	dir := filepath.Dir(s.settingsPath(app))
	if err := s.fs.MkdirAll(dir, 0750); err != nil {
		return apperrors.Wrapf(err, apperrors.ErrDirCreate, "cannot create settings dir for %s", app)
	}
	// Settings may hold credentials; keep them out of reach
	if err := s.fs.WriteFile(s.settingsPath(app), data, 0600); err != nil {
		return apperrors.Wrapf(err, apperrors.ErrFileWrite, "cannot write settings for %s", app)
	}
	return nil
}
