package versions

import (
	"github.com/selfhostd/appkit/pkg/manifest"
)

// CompareAgainstManifest evaluates "current op packaged", where packaged
// is the full packed version of the manifest. Upgrade scripts use this to
// gate migrations on the version they are coming from.
func CompareAgainstManifest(current string, m *manifest.Manifest, op string) (bool, error) {
	if err := Validate(current); err != nil {
		return false, err
	}
	packaged := m.Version()
	if err := Validate(packaged); err != nil {
		return false, err
	}
	return Satisfies(current, op, packaged)
}
