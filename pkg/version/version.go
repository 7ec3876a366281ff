package version

// Version represents the current version of qas
const Version = "0.4.1"

// BuildVersion returns the version string for display
func BuildVersion() string {
	return "qas version " + Version
}

// APIVersion returns just the version number for API responses
func APIVersion() string {
	return Version
}

// UserAgent returns the fixed client identifier sent with every API request.
func UserAgent() string {
	return "qas-cli/" + Version
}
