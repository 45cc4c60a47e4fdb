// Package version is stamped at build time:
//
//	go build -ldflags "-X github.com/jeanpaul/sakemate/pkg/version.Version=v0.3.0 -X github.com/jeanpaul/sakemate/pkg/version.Commit=$(git rev-parse --short HEAD)"
package version

var (
	Version = "dev"
	Commit  = "none"
)
