package ports

import (
	"context"

	"github.com/ericmarkmartin/uv/internal/types"
)

// BuildMetadata is the authoritative metadata returned by the source build
// collaborator. Only Name is consumed by the name resolver; Version is kept
// for reporting.
type BuildMetadata struct {
	Name    types.PackageName
	Version string
}

// Reporter receives progress notifications from long-running source
// operations. Implementations must be safe for concurrent use: a single
// Reporter is shared across all in-flight resolutions.
type Reporter interface {
	OnDownloadStart(locator string)
	OnDownloadComplete(locator string)
	OnBuildStart(locator string)
	OnBuildComplete(locator string)
}

// SourceBuildPort is the external build collaborator: it downloads the
// source if remote, invokes its build backend, and returns authoritative
// metadata. It may perform unbounded-duration network and subprocess work
// and carries its own retry policy.
type SourceBuildPort interface {
	DownloadAndBuildMetadata(ctx context.Context, source types.SourceURL, reporter Reporter) (BuildMetadata, error)
}
