package types

import "net/url"

// SourceKind classifies a locator by how its source must be obtained.
type SourceKind string

const (
	// SourceKindPath is a local filesystem path (directory or file).
	SourceKindPath SourceKind = "path"
	// SourceKindDirect is a direct HTTP(S) archive URL.
	SourceKindDirect SourceKind = "direct"
	// SourceKindVersionControl is a git URL (SSH or HTTPS transport).
	SourceKindVersionControl SourceKind = "vcs"
)

// Scheme is a locator URL scheme supported for unnamed requirements.
type Scheme string

const (
	SchemeFile     Scheme = "file"
	SchemeHTTP     Scheme = "http"
	SchemeHTTPS    Scheme = "https"
	SchemeGitSSH   Scheme = "git+ssh"
	SchemeGitHTTPS Scheme = "git+https"
)

// ParseScheme maps a raw URL scheme onto a supported Scheme. The second
// return is false for anything outside the supported set.
func ParseScheme(value string) (Scheme, bool) {
	switch Scheme(value) {
	case SchemeFile, SchemeHTTP, SchemeHTTPS, SchemeGitSSH, SchemeGitHTTPS:
		return Scheme(value), true
	default:
		return "", false
	}
}

// SourceURL is a classified locator handed to the source build collaborator.
// Path is populated only for SourceKindPath locators.
type SourceURL struct {
	Kind SourceKind
	URL  *url.URL
	Path string
}
