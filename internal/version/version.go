// Package version holds build metadata injected via ldflags.
package version

//nolint:revive // Set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// Compatibility is the Elasticsearch version reported to clients by the root endpoint.
const Compatibility = "8.15.0"

// LuceneVersion pairs with Compatibility in the root endpoint payload.
const LuceneVersion = "9.11.1"
