package app

import (
	"context"
	"strings"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"github.com/ericmarkmartin/uv/internal/adapters"
	"github.com/ericmarkmartin/uv/internal/core"
	"github.com/ericmarkmartin/uv/internal/policies"
	"github.com/ericmarkmartin/uv/internal/types"
)

// Resolve parses a requirements manifest, attaches names to every unnamed
// requirement, and writes the lock and report outputs.
func (s Service) Resolve(ctx context.Context, req ResolveRequest) (ResolveResult, error) {
	manifestPath := strings.TrimSpace(req.ManifestPath)
	if manifestPath == "" {
		return ResolveResult{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("requirements manifest path is required")
	}
	outputDir := strings.TrimSpace(req.OutputDir)
	if outputDir == "" {
		return ResolveResult{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("output directory is required")
	}

	entries, err := s.Manifest.ParseRequirements(manifestPath)
	if err != nil {
		return ResolveResult{}, err
	}

	resolver := core.NewNamedResolver(s.Builder).WithConcurrency(req.Concurrency)
	if s.Reporter != nil {
		resolver = resolver.WithReporter(s.Reporter)
	}
	resolved, err := resolver.Resolve(ctx, entries)
	if err != nil {
		return ResolveResult{}, err
	}
	if err := policies.CheckConflicts(resolved); err != nil {
		return ResolveResult{}, err
	}

	output := adapters.NewLockFileAdapter(outputDir)
	if err := output.WriteLock(resolved); err != nil {
		return ResolveResult{}, err
	}
	if err := output.WriteReport(buildReport(s.Clock, manifestPath, resolved)); err != nil {
		return ResolveResult{}, err
	}

	log.Ctx(ctx).Debug().Int("resolved", len(resolved)).Msg("resolve completed")
	return ResolveResult{Resolved: len(resolved), OutputDir: outputDir}, nil
}

func buildReport(clock func() time.Time, manifest string, requirements []types.Requirement) types.ResolveReport {
	report := types.ResolveReport{
		GeneratedAt: clock(),
		Manifest:    manifest,
	}
	for _, requirement := range requirements {
		entry := types.ReportEntry{
			Name:      string(requirement.Name),
			Specifier: requirement.Specifier,
			Extras:    requirement.Extras,
			Marker:    requirement.Marker,
		}
		if requirement.Locator != nil {
			entry.Locator = requirement.Locator.String()
		}
		report.Requirements = append(report.Requirements, entry)
	}
	return report
}
