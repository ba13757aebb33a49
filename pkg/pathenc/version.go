package pathenc

// Version information for the pathenc module.
const (
	// Version is the current version of the pathenc module.
	Version = "1.0.0"

	// MinCompatibleVersion is the minimum version that is compatible with this version.
	MinCompatibleVersion = "1.0.0"
)
