// Package constant defines immutable application-level identifiers and configuration defaults.
package constant

const (
	// Jellysan is the canonical application identifier used for filesystem paths and CLI branding.
	Jellysan = "jellysan"

	// Version is the current application semantic version string.
	Version = "0.1.0"

	// UserAgent is the HTTP User-Agent string used for requests to media servers.
	UserAgent = "jellysan/" + Version

	// ClientName is the client identifier reported to the server in the authorization header.
	ClientName = "Jellysan CLI"
)

// Build-time metadata injected via -ldflags.
var (
	BuiltAt  = "unknown"
	BuiltBy  = "unknown"
	Revision = "unknown"
)
