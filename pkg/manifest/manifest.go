// Package manifest reads app packaging manifests. Apps ship either a
// manifest.toml or a manifest.json at the root of their package; both
// describe the same metadata and carry the packaging version in the
// form "<upstream>~ynh<iteration>".
package manifest

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	gotoml "github.com/pelletier/go-toml/v2"
	"github.com/tidwall/gjson"

	apperrors "github.com/selfhostd/appkit/pkg/errors"
	"github.com/selfhostd/appkit/pkg/filesystem"
)

// Well-known manifest file names, in lookup order
var manifestFiles = []string{"manifest.toml", "manifest.json"}

const versionSeparator = "~ynh"

// Manifest holds the fields the helpers care about plus the raw
// document for arbitrary lookups
type Manifest struct {
	ID            string            `toml:"id" json:"id"`
	Name          string            `toml:"name" json:"name"`
	PackedVersion string            `toml:"version" json:"version"`
	Description   map[string]string `toml:"description" json:"description"`
	MultiInstance bool              `toml:"multi_instance" json:"multi_instance"`

	raw    []byte
	isJSON bool
}

// Load reads the manifest from an app package directory
func Load(fs filesystem.FS, dir string) (*Manifest, error) {
	for _, name := range manifestFiles {
		path := filepath.Join(dir, name)
		if _, err := fs.Stat(path); err == nil {
			return LoadFile(fs, path)
		}
	}
	return nil, apperrors.Newf(apperrors.ErrManifestNotFound,
		"no manifest.toml or manifest.json in %s", dir)
}

// LoadFile reads a manifest from an explicit path, sniffing the format
// from the extension
func LoadFile(fs filesystem.FS, path string) (*Manifest, error) {
	data, err := fs.ReadFile(path)
	if err != nil {
		return nil, apperrors.Wrapf(err, apperrors.ErrManifestNotFound, "cannot read %s", path)
	}

	m := &Manifest{raw: data, isJSON: strings.HasSuffix(path, ".json")}
	if m.isJSON {
		if err := json.Unmarshal(data, m); err != nil {
			return nil, apperrors.Wrapf(err, apperrors.ErrManifestParse, "invalid JSON manifest %s", path)
		}
	} else {
		if err := gotoml.Unmarshal(data, m); err != nil {
			return nil, apperrors.Wrapf(err, apperrors.ErrManifestParse, "invalid TOML manifest %s", path)
		}
	}

	if m.ID == "" {
		return nil, apperrors.Newf(apperrors.ErrManifestInvalid, "manifest %s has no app id", path)
	}
	if _, _, err := splitVersion(m.PackedVersion); err != nil {
		return nil, err
	}
	return m, nil
}

// Version returns the full packaging version string, e.g. "2.4.1~ynh3"
func (m *Manifest) Version() string { return m.PackedVersion }

// UpstreamVersion returns the version without the packaging suffix
func (m *Manifest) UpstreamVersion() string {
	upstream, _, _ := splitVersion(m.PackedVersion)
	return upstream
}

// PackagingIteration returns the platform packaging counter, 0 when the
// version carries no suffix
func (m *Manifest) PackagingIteration() int {
	_, iteration, _ := splitVersion(m.PackedVersion)
	return iteration
}

// Get looks up an arbitrary value by dotted path in the raw document.
// Values are rendered as strings the way scripts consume them.
func (m *Manifest) Get(path string) (string, bool) {
	if m.isJSON {
		res := gjson.GetBytes(m.raw, path)
		if !res.Exists() {
			return "", false
		}
		return res.String(), true
	}

	var doc map[string]interface{}
	if err := gotoml.Unmarshal(m.raw, &doc); err != nil {
		return "", false
	}
	var cur interface{} = doc
	for _, part := range strings.Split(path, ".") {
		table, ok := cur.(map[string]interface{})
		if !ok {
			return "", false
		}
		cur, ok = table[part]
		if !ok {
			return "", false
		}
	}
	switch v := cur.(type) {
	case string:
		return v, true
	case bool:
		return strconv.FormatBool(v), true
	case int64:
		return strconv.FormatInt(v, 10), true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	default:
		return fmt.Sprint(v), true
	}
}

// splitVersion separates "<upstream>~ynh<iteration>". A version without
// the suffix is legal and maps to iteration 0.
func splitVersion(v string) (string, int, error) {
	if v == "" {
		return "", 0, apperrors.New(apperrors.ErrManifestInvalid, "manifest has no version")
	}
	idx := strings.LastIndex(v, versionSeparator)
	if idx < 0 {
		return v, 0, nil
	}
	upstream := v[:idx]
	suffix := v[idx+len(versionSeparator):]
	iteration, err := strconv.Atoi(suffix)
	if err != nil || iteration < 1 || upstream == "" {
		return "", 0, apperrors.Newf(apperrors.ErrManifestInvalid,
			"malformed packaging version %q", v)
	}
	return upstream, iteration, nil
}
