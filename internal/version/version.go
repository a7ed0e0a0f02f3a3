/*
Package version holds tracklens build information.

Values are injected with ldflags at release time, e.g.

	go build -ldflags "-X github.com/khanglvm/tracklens/internal/version.Version=v0.3.0"

Unset values leave a "dev" build.
*/
package version

// Build information, set via ldflags.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// Info is build information as reported by the CLI and the HTTP API.
type Info struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
}

// Get returns the current build information.
func Get() Info {
	return Info{Version: Version, Commit: Commit, Date: Date}
}

// IsDev reports whether the binary was built without release ldflags.
func (i Info) IsDev() bool { return i.Version == "dev" }

// String renders i for --version output.
func (i Info) String() string {
	if i.IsDev() {
		return i.Version + " (development build)"
	}
	return i.Version + " (commit: " + i.Commit + ", built: " + i.Date + ")"
}

// GetVersion returns the --version string of the running binary.
func GetVersion() string {
	return Get().String()
}
