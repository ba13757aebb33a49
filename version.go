package levitation

import (
	"fmt"

	"github.com/nesciens/levitation/pkg/fastimport"
	"github.com/nesciens/levitation/pkg/mwdump"
	"github.com/nesciens/levitation/pkg/pathenc"
	"github.com/nesciens/levitation/pkg/recfile"
)

// Version is the current version of the levitation module.
const Version = "1.0.0"

// validateModuleVersions checks that all module versions are compatible.
// Returns an error if any module version is below its minimum compatible
// version.
func validateModuleVersions() error {
	modules := map[string]struct {
		version    string
		minVersion string
	}{
		"mwdump":     {mwdump.Version, mwdump.MinCompatibleVersion},
		"fastimport": {fastimport.Version, fastimport.MinCompatibleVersion},
		"recfile":    {recfile.Version, recfile.MinCompatibleVersion},
		"pathenc":    {pathenc.Version, pathenc.MinCompatibleVersion},
	}

	for name, m := range modules {
		if !isVersionCompatible(m.version, m.minVersion) {
			return fmt.Errorf("module %s version %s is below minimum compatible version %s",
				name, m.version, m.minVersion)
		}
	}
	return nil
}

// isVersionCompatible checks if version >= minVersion using semantic
// versioning. Assumes versions are in format "major.minor.patch".
func isVersionCompatible(version, minVersion string) bool {
	var vMajor, vMinor, vPatch int
	var mMajor, mMinor, mPatch int

	_, _ = fmt.Sscanf(version, "%d.%d.%d", &vMajor, &vMinor, &vPatch)
	_, _ = fmt.Sscanf(minVersion, "%d.%d.%d", &mMajor, &mMinor, &mPatch)

	if vMajor != mMajor {
		return vMajor > mMajor
	}
	if vMinor != mMinor {
		return vMinor > mMinor
	}
	return vPatch >= mPatch
}
