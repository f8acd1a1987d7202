package ports

import "github.com/ericmarkmartin/uv/internal/types"

// ManifestPort parses a requirements manifest into requirement records.
type ManifestPort interface {
	ParseRequirements(path string) ([]types.ManifestEntry, error)
}

// LockWriterPort writes resolution outputs.
type LockWriterPort interface {
	WriteLock(requirements []types.Requirement) error
	WriteReport(report types.ResolveReport) error
}
