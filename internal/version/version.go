package version

// Version is the current version of argo-scalper.
// This value is set at build time using ldflags:
// -ldflags "-X github.com/rxtech-lab/argo-scalper/internal/version.Version=1.2.3"
// The value "main" indicates a development build.
var Version = "v0.3.0"

// GetVersion returns the current version of the engine.
func GetVersion() string {
	return Version
}
