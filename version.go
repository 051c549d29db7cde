package packlate

// Version information for packlate. Release builds override these with
// ldflags:
//
//	go build -ldflags "-X github.com/ZaguanLabs/packlate.GitCommit=$(git rev-parse HEAD)"
const (
	// Name is the application name.
	Name = "packlate"

	// Description is a short description of the application.
	Description = "AI-assisted localization pack translator"

	// Version is the semantic version of the application.
	Version = "0.1.0"

	// Repository is the source code repository URL.
	Repository = "https://github.com/ZaguanLabs/packlate"
)

var (
	// GitCommit is the git commit hash.
	GitCommit = "unknown"

	// BuildDate is the build timestamp.
	BuildDate = "unknown"
)

// FullVersion returns the version string with the short commit, if known.
func FullVersion() string {
	v := Version
	if GitCommit != "unknown" && GitCommit != "" {
		short := GitCommit
		if len(short) > 7 {
			short = short[:7]
		}
		v += "+" + short
	}
	return v
}

// UserAgent returns a user agent string for HTTP requests.
func UserAgent() string {
	return Name + "/" + Version
}
