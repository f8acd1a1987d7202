package types

import (
	"net/url"
	"strings"
)

// Requirement is a requirement with a concrete package name, consumable by a
// name-indexed dependency resolver. Exactly one of Specifier or Locator is
// meaningful: registry requirements carry a version specifier, while
// requirements resolved from a locator are pinned to that literal locator.
type Requirement struct {
	Name      PackageName
	Extras    []string
	Specifier string
	Locator   *url.URL

	// Marker is an opaque environment-marker expression. It is never
	// interpreted here, only carried forward.
	Marker string
}

// String renders the requirement in requirements-file syntax.
func (r Requirement) String() string {
	var b strings.Builder
	b.WriteString(string(r.Name))
	if len(r.Extras) > 0 {
		b.WriteString("[")
		b.WriteString(strings.Join(r.Extras, ","))
		b.WriteString("]")
	}
	if r.Locator != nil {
		b.WriteString(" @ ")
		b.WriteString(r.Locator.String())
	} else if r.Specifier != "" {
		b.WriteString(r.Specifier)
	}
	if r.Marker != "" {
		b.WriteString(" ; ")
		b.WriteString(r.Marker)
	}
	return b.String()
}

// UnnamedRequirement is a requirement specified only by a locator (a local
// path, direct archive URL, or version-control URL). It cannot enter the
// dependency resolver until a name is attached.
type UnnamedRequirement struct {
	Locator *url.URL
	Extras  []string
	Marker  string
}

// ManifestEntry is one requirement record parsed from a manifest. Exactly
// one of Named or Unnamed is set.
type ManifestEntry struct {
	Named   *Requirement
	Unnamed *UnnamedRequirement
}
