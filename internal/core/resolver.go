package core

import (
	"context"
	"fmt"
	"net/url"
	"os"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"github.com/ericmarkmartin/uv/internal/ports"
	"github.com/ericmarkmartin/uv/internal/types"
)

// NamedResolver attaches canonical package names to requirements that were
// specified only by a locator. Cheap static strategies run first; the
// external source build collaborator is the last resort.
type NamedResolver struct {
	builder     ports.SourceBuildPort
	reporter    ports.Reporter
	concurrency int
}

func NewNamedResolver(builder ports.SourceBuildPort) NamedResolver {
	return NamedResolver{builder: builder}
}

// WithReporter sets the progress reporter shared across all concurrent
// resolutions. The reporter must tolerate concurrent invocation.
func (r NamedResolver) WithReporter(reporter ports.Reporter) NamedResolver {
	r.reporter = reporter
	return r
}

// WithConcurrency overrides the resolution concurrency ceiling.
func (r NamedResolver) WithConcurrency(limit int) NamedResolver {
	r.concurrency = limit
	return r
}

// resolveRequirement infers the package name for one unnamed requirement.
// Strategies are tried in order, each short-circuiting on success: wheel
// filename, sdist filename, static directory metadata, source build.
func (r NamedResolver) resolveRequirement(ctx context.Context, requirement types.UnnamedRequirement) (types.Requirement, error) {
	// A wheel locator carries the name in its filename. A wheel-like
	// filename that does not parse is fatal: wheels are machine-named.
	if hasWheelExtension(requirement.Locator.Path) {
		filename, err := locatorFilename(requirement.Locator)
		if err != nil {
			return types.Requirement{}, err
		}
		wheel, err := ParseWheelFilename(filename)
		if err != nil {
			return types.Requirement{}, err
		}
		return named(requirement, wheel.Name), nil
	}

	// A source archive conventionally encodes the name in its filename.
	// The convention isn't guaranteed, so failure just moves on.
	if filename, err := locatorFilename(requirement.Locator); err == nil {
		if sdist, err := ParseSourceDistFilename(filename); err == nil {
			return named(requirement, sdist.Name), nil
		}
	}

	source, err := classifySource(requirement.Locator)
	if err != nil {
		return types.Requirement{}, err
	}

	// A local source tree may carry static metadata naming the project.
	if source.Kind == types.SourceKindPath && isDir(source.Path) {
		if name, ok := staticMetadataName(ctx, source.Path); ok {
			return named(requirement, name), nil
		}
	}

	log.Ctx(ctx).Debug().
		Stringer("locator", requirement.Locator).
		Msg("no static metadata, falling back to source build")

	metadata, err := r.builder.DownloadAndBuildMetadata(ctx, source, r.reporter)
	if err != nil {
		return types.Requirement{}, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to build source distribution").
			WithCause(err)
	}
	return named(requirement, metadata.Name), nil
}

// classifySource maps a locator's scheme onto a source kind. Only the
// schemes file, http(s), and git+ssh/git+https are supported.
func classifySource(locator *url.URL) (types.SourceURL, error) {
	scheme, ok := types.ParseScheme(locator.Scheme)
	if !ok {
		return types.SourceURL{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("unsupported scheme for unnamed requirement: %s", locator))
	}
	switch scheme {
	case types.SchemeFile:
		return types.SourceURL{
			Kind: types.SourceKindPath,
			URL:  locator,
			Path: locator.Path,
		}, nil
	case types.SchemeHTTP, types.SchemeHTTPS:
		return types.SourceURL{Kind: types.SourceKindDirect, URL: locator}, nil
	default:
		return types.SourceURL{Kind: types.SourceKindVersionControl, URL: locator}, nil
	}
}

// named pins a resolved name to the requirement's literal locator, copying
// extras and marker verbatim.
func named(requirement types.UnnamedRequirement, name types.PackageName) types.Requirement {
	return types.Requirement{
		Name:    name,
		Extras:  requirement.Extras,
		Locator: requirement.Locator,
		Marker:  requirement.Marker,
	}
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
