package core

import (
	"context"
	"sync"

	assert "github.com/ZanzyTHEbar/assert-lib"
	"github.com/ZanzyTHEbar/errbuilder-go"

	"github.com/ericmarkmartin/uv/internal/types"
)

// DefaultConcurrency bounds how many requirement resolutions may be in
// flight at once. The ceiling protects shared build and network resources
// from unbounded fan-out while still overlapping I/O latency.
const DefaultConcurrency = 50

// Resolve produces a fully named requirement list, 1:1 positionally with
// the input. Already-named entries pass through untouched with zero I/O.
// Unnamed entries are resolved concurrently under the concurrency ceiling,
// with each result written back at its original index so output order
// always equals input order regardless of completion order. The first
// failure cancels the batch; no partial list is returned.
func (r NamedResolver) Resolve(ctx context.Context, entries []types.ManifestEntry) ([]types.Requirement, error) {
	results := make([]types.Requirement, len(entries))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	limit := r.concurrency
	if limit <= 0 {
		limit = DefaultConcurrency
	}
	sem := make(chan struct{}, limit)
	var wg sync.WaitGroup
	var errMu sync.Mutex
	var firstErr error

	for i, entry := range entries {
		switch {
		case entry.Named != nil:
			results[i] = *entry.Named
		case entry.Unnamed != nil:
			wg.Add(1)
			go func(i int, requirement types.UnnamedRequirement) {
				defer wg.Done()
				sem <- struct{}{}
				defer func() { <-sem }()
				if ctx.Err() != nil {
					return
				}
				resolved, err := r.resolveRequirement(ctx, requirement)
				if err != nil {
					errMu.Lock()
					if firstErr == nil {
						firstErr = err
						cancel()
					}
					errMu.Unlock()
					return
				}
				results[i] = resolved
			}(i, *entry.Unnamed)
		default:
			return nil, errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg("manifest entry is neither named nor unnamed")
		}
	}

	wg.Wait()
	if firstErr == nil {
		// External cancellation makes tasks exit before resolving; their
		// slots would otherwise surface as empty requirements.
		firstErr = ctx.Err()
	}
	if firstErr != nil {
		return nil, firstErr
	}
	for i := range results {
		assert.NotEmpty(ctx, string(results[i].Name), "every resolved requirement must carry a name")
	}
	return results, nil
}
