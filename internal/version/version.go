// Package version carries build metadata injected at link time.
//
//	go build -ldflags "-X github.com/ironsheep/image-tone/internal/version.Version=v1.2.0"
package version

import (
	"fmt"

	"github.com/blang/semver"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// Semantic parses Version leniently ("v1.2" becomes 1.2.0).
func Semantic() (semver.Version, error) {
	return semver.ParseTolerant(Version)
}

// String returns the normalised semantic version, or the raw Version for
// development builds that carry no version number.
func String() string {
	v, err := Semantic()
	if err != nil {
		return Version
	}
	return v.String()
}

// Banner renders the multi-line --version output for a command.
func Banner(name string) string {
	return fmt.Sprintf("%s %s\n  Build time: %s\n  Git commit: %s\n", name, String(), BuildTime, GitCommit)
}
