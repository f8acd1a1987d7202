package adapters

import (
	"archive/tar"
	"archive/zip"
	"bufio"
	"bytes"
	"compress/bzip2"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"
	toml "github.com/pelletier/go-toml/v2"

	"github.com/ericmarkmartin/uv/internal/ports"
	"github.com/ericmarkmartin/uv/internal/shared"
	"github.com/ericmarkmartin/uv/internal/types"
)

const defaultHTTPTimeout = 60 * time.Second
const defaultHTTPRetries = 3
const defaultHTTPRetryDelay = 200 * time.Millisecond
const maxHTTPRetryDelay = 2 * time.Second

// SourceBuildAdapter implements the source build collaborator: it stages a
// classified source locally (downloading archives, cloning git URLs),
// extracts it, and produces authoritative name/version metadata. Static
// metadata embedded in the staged tree is preferred; when absent, an
// optional metadata command (a PEP 517 hook wrapper) is invoked in the
// source root and must print metadata in PKG-INFO format on stdout.
type SourceBuildAdapter struct {
	// MetadataCommand, when set, is run in the staged source root to
	// produce metadata for trees without static metadata.
	MetadataCommand []string

	HTTPTimeoutSec   int
	HTTPRetries      int
	HTTPRetryDelayMs int
}

func (a *SourceBuildAdapter) httpTimeout() time.Duration {
	if a.HTTPTimeoutSec > 0 {
		return time.Duration(a.HTTPTimeoutSec) * time.Second
	}
	return defaultHTTPTimeout
}

func (a *SourceBuildAdapter) httpRetries() int {
	if a.HTTPRetries > 0 {
		return a.HTTPRetries
	}
	return defaultHTTPRetries
}

// retryDelay is capped exponential backoff with jitter.
func (a *SourceBuildAdapter) retryDelay(attempt int) time.Duration {
	base := defaultHTTPRetryDelay
	if a.HTTPRetryDelayMs > 0 {
		base = time.Duration(a.HTTPRetryDelayMs) * time.Millisecond
	}
	delay := base * time.Duration(1<<attempt)
	if delay > maxHTTPRetryDelay {
		delay = maxHTTPRetryDelay
	}
	jitter := time.Duration(time.Now().UnixNano() % int64(delay/2+1))
	return delay + jitter
}

func NewSourceBuildAdapter() *SourceBuildAdapter {
	return &SourceBuildAdapter{}
}

func (a *SourceBuildAdapter) DownloadAndBuildMetadata(ctx context.Context, source types.SourceURL, reporter ports.Reporter) (ports.BuildMetadata, error) {
	root, cleanup, err := a.stage(ctx, source, reporter)
	if err != nil {
		return ports.BuildMetadata{}, err
	}
	defer cleanup()

	locator := source.URL.String()
	if reporter != nil {
		reporter.OnBuildStart(locator)
	}
	metadata, err := a.buildMetadata(ctx, root)
	if err != nil {
		return ports.BuildMetadata{}, err
	}
	if reporter != nil {
		reporter.OnBuildComplete(locator)
	}
	return metadata, nil
}

// stage materializes the source as a local directory. The cleanup func
// removes any temporary staging area; for local directories it is a no-op.
func (a *SourceBuildAdapter) stage(ctx context.Context, source types.SourceURL, reporter ports.Reporter) (string, func(), error) {
	noop := func() {}
	switch source.Kind {
	case types.SourceKindPath:
		info, err := os.Stat(source.Path)
		if err != nil {
			return "", noop, errbuilder.New().
				WithCode(errbuilder.CodeNotFound).
				WithMsg(fmt.Sprintf("source path does not exist: %s", source.Path)).
				WithCause(err)
		}
		if info.IsDir() {
			return source.Path, noop, nil
		}
		staging, cleanup, err := stagingDir()
		if err != nil {
			return "", noop, err
		}
		root, err := extractArchive(source.Path, staging)
		if err != nil {
			cleanup()
			return "", noop, err
		}
		return root, cleanup, nil

	case types.SourceKindDirect:
		staging, cleanup, err := stagingDir()
		if err != nil {
			return "", noop, err
		}
		archive, err := a.download(ctx, source.URL.String(), staging, reporter)
		if err != nil {
			cleanup()
			return "", noop, err
		}
		root, err := extractArchive(archive, staging)
		if err != nil {
			cleanup()
			return "", noop, err
		}
		return root, cleanup, nil

	case types.SourceKindVersionControl:
		staging, cleanup, err := stagingDir()
		if err != nil {
			return "", noop, err
		}
		root, err := cloneRepository(ctx, source.URL.String(), staging)
		if err != nil {
			cleanup()
			return "", noop, err
		}
		return root, cleanup, nil

	default:
		return "", noop, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("unsupported source kind: %s", source.Kind))
	}
}

func (a *SourceBuildAdapter) buildMetadata(ctx context.Context, root string) (ports.BuildMetadata, error) {
	if metadata, ok := stagedMetadata(root); ok {
		return metadata, nil
	}
	if len(a.MetadataCommand) > 0 {
		return a.runMetadataCommand(ctx, root)
	}
	return ports.BuildMetadata{}, errbuilder.New().
		WithCode(errbuilder.CodeNotFound).
		WithMsg(fmt.Sprintf("no metadata found in source tree: %s", root))
}

// runMetadataCommand executes the configured hook in the source root and
// parses PKG-INFO formatted metadata from its stdout.
func (a *SourceBuildAdapter) runMetadataCommand(ctx context.Context, root string) (ports.BuildMetadata, error) {
	cmd := exec.CommandContext(ctx, a.MetadataCommand[0], a.MetadataCommand[1:]...)
	cmd.Dir = root
	output, err := cmd.Output()
	if err != nil {
		return ports.BuildMetadata{}, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("metadata command failed").
			WithCause(shared.CommandError(output, err))
	}
	metadata, ok := parseMetadataPayload(output)
	if !ok {
		return ports.BuildMetadata{}, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("metadata command produced no Name field")
	}
	return metadata, nil
}

// stagedMetadata reads name and version from metadata embedded in the
// staged tree. Source distributions always carry a PKG-INFO at their root;
// plain source trees may only have a pyproject.toml.
func stagedMetadata(root string) (ports.BuildMetadata, bool) {
	if data, err := os.ReadFile(filepath.Join(root, "PKG-INFO")); err == nil {
		if metadata, ok := parseMetadataPayload(data); ok {
			return metadata, true
		}
	}
	if data, err := os.ReadFile(filepath.Join(root, "pyproject.toml")); err == nil {
		if metadata, ok := parsePyProjectMetadata(data); ok {
			return metadata, true
		}
	}
	return ports.BuildMetadata{}, false
}

// parseMetadataPayload extracts Name and Version from a PKG-INFO style
// header block.
func parseMetadataPayload(data []byte) (ports.BuildMetadata, bool) {
	var rawName, rawVersion string
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			break
		}
		key, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		switch {
		case strings.EqualFold(strings.TrimSpace(key), "Name"):
			rawName = strings.TrimSpace(value)
		case strings.EqualFold(strings.TrimSpace(key), "Version"):
			rawVersion = strings.TrimSpace(value)
		}
	}
	if rawName == "" {
		return ports.BuildMetadata{}, false
	}
	name, err := types.ParsePackageName(rawName)
	if err != nil {
		return ports.BuildMetadata{}, false
	}
	return ports.BuildMetadata{Name: name, Version: rawVersion}, true
}

func parsePyProjectMetadata(data []byte) (ports.BuildMetadata, bool) {
	var parsed struct {
		Project struct {
			Name    string `toml:"name"`
			Version string `toml:"version"`
		} `toml:"project"`
	}
	if err := toml.Unmarshal(data, &parsed); err != nil {
		return ports.BuildMetadata{}, false
	}
	if parsed.Project.Name == "" {
		return ports.BuildMetadata{}, false
	}
	name, err := types.ParsePackageName(parsed.Project.Name)
	if err != nil {
		return ports.BuildMetadata{}, false
	}
	return ports.BuildMetadata{Name: name, Version: parsed.Project.Version}, true
}

// download fetches a remote archive into the staging directory, retrying
// transient failures with capped exponential backoff.
func (a *SourceBuildAdapter) download(ctx context.Context, url string, staging string, reporter ports.Reporter) (string, error) {
	if reporter != nil {
		reporter.OnDownloadStart(url)
	}
	resp, err := a.doRequest(ctx, url)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to download source archive").
			WithCause(shared.HTTPStatusError(resp.StatusCode, url))
	}
	target := filepath.Join(staging, downloadFilename(url))
	out, err := os.Create(target)
	if err != nil {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to create download target").
			WithCause(err)
	}
	defer out.Close()
	if _, err := io.Copy(out, resp.Body); err != nil {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to write source archive").
			WithCause(err)
	}
	if reporter != nil {
		reporter.OnDownloadComplete(url)
	}
	return target, nil
}

func (a *SourceBuildAdapter) doRequest(ctx context.Context, url string) (*http.Response, error) {
	client := &http.Client{Timeout: a.httpTimeout()}
	retries := a.httpRetries()
	var lastErr error
	for attempt := 0; attempt < retries; attempt++ {
		if ctx.Err() != nil {
			return nil, errbuilder.New().
				WithCode(errbuilder.CodeInternal).
				WithMsg("request canceled").
				WithCause(ctx.Err())
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, errbuilder.New().
				WithCode(errbuilder.CodeInternal).
				WithMsg("failed to create request").
				WithCause(err)
		}
		resp, err := client.Do(req)
		if err != nil {
			lastErr = err
			if attempt < retries-1 {
				time.Sleep(a.retryDelay(attempt))
				continue
			}
			break
		}
		if (resp.StatusCode >= http.StatusInternalServerError || resp.StatusCode == http.StatusTooManyRequests) && attempt < retries-1 {
			_, _ = io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			time.Sleep(a.retryDelay(attempt))
			continue
		}
		return resp, nil
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("request failed")
	}
	return nil, errbuilder.New().
		WithCode(errbuilder.CodeInternal).
		WithMsg("request failed").
		WithCause(lastErr)
}

// cloneRepository clones a git source. The locator uses pip-style git URLs
// (git+https://host/repo.git@ref); the git+ prefix is stripped and an
// optional @ref suffix selects a branch or tag.
func cloneRepository(ctx context.Context, locator string, staging string) (string, error) {
	cloneURL, ref := splitCloneRef(locator)
	target := filepath.Join(staging, "checkout")
	args := []string{"clone", "--depth", "1"}
	if ref != "" {
		args = append(args, "--branch", ref)
	}
	args = append(args, cloneURL, target)
	cmd := exec.CommandContext(ctx, "git", args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg(fmt.Sprintf("failed to clone repository: %s", cloneURL)).
			WithCause(shared.CommandError(output, err))
	}
	return target, nil
}

// splitCloneRef strips the git+ prefix and detaches an optional @ref
// suffix. Only an @ in the final path segment is a ref delimiter; an @ in
// the authority (ssh user-info such as git@github.com) is part of the
// clone URL.
func splitCloneRef(locator string) (string, string) {
	cloneURL := strings.TrimPrefix(locator, "git+")
	slash := strings.LastIndex(cloneURL, "/")
	at := strings.LastIndex(cloneURL, "@")
	if at > slash {
		return cloneURL[:at], cloneURL[at+1:]
	}
	return cloneURL, ""
}

// extractArchive unpacks a source archive and returns its root directory.
// When the archive contains a single top-level directory (the sdist
// convention), that directory is the root.
func extractArchive(archive string, staging string) (string, error) {
	dest := filepath.Join(staging, "source")
	if err := os.MkdirAll(dest, 0755); err != nil {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to create extraction directory").
			WithCause(err)
	}
	lower := strings.ToLower(archive)
	var err error
	switch {
	case strings.HasSuffix(lower, ".tar.gz") || strings.HasSuffix(lower, ".tgz"):
		err = extractTar(archive, dest, func(r io.Reader) (io.Reader, error) {
			return gzip.NewReader(r)
		})
	case strings.HasSuffix(lower, ".tar.bz2") || strings.HasSuffix(lower, ".tbz"):
		err = extractTar(archive, dest, func(r io.Reader) (io.Reader, error) {
			return bzip2.NewReader(r), nil
		})
	case strings.HasSuffix(lower, ".tar"):
		err = extractTar(archive, dest, func(r io.Reader) (io.Reader, error) {
			return r, nil
		})
	case strings.HasSuffix(lower, ".zip"):
		err = extractZip(archive, dest)
	default:
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("unsupported archive format: %s", filepath.Base(archive)))
	}
	if err != nil {
		return "", err
	}
	return sourceRoot(dest)
}

func extractTar(archive string, dest string, decompress func(io.Reader) (io.Reader, error)) error {
	file, err := os.Open(archive)
	if err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg("failed to open archive").
			WithCause(err)
	}
	defer file.Close()
	reader, err := decompress(file)
	if err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("failed to decompress archive").
			WithCause(err)
	}
	tr := tar.NewReader(reader)
	for {
		header, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg("failed to read archive entry").
				WithCause(err)
		}
		target, err := safeJoin(dest, header.Name)
		if err != nil {
			return err
		}
		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0755); err != nil {
				return wrapExtractErr(err)
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
				return wrapExtractErr(err)
			}
			out, err := os.Create(target)
			if err != nil {
				return wrapExtractErr(err)
			}
			if _, err := io.Copy(out, tr); err != nil {
				out.Close()
				return wrapExtractErr(err)
			}
			out.Close()
		}
	}
}

func extractZip(archive string, dest string) error {
	reader, err := zip.OpenReader(archive)
	if err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("failed to open zip archive").
			WithCause(err)
	}
	defer reader.Close()
	for _, entry := range reader.File {
		target, err := safeJoin(dest, entry.Name)
		if err != nil {
			return err
		}
		if entry.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0755); err != nil {
				return wrapExtractErr(err)
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
			return wrapExtractErr(err)
		}
		in, err := entry.Open()
		if err != nil {
			return wrapExtractErr(err)
		}
		out, err := os.Create(target)
		if err != nil {
			in.Close()
			return wrapExtractErr(err)
		}
		if _, err := io.Copy(out, in); err != nil {
			in.Close()
			out.Close()
			return wrapExtractErr(err)
		}
		in.Close()
		out.Close()
	}
	return nil
}

// safeJoin joins an archive entry name onto dest, rejecting entries that
// escape the destination.
func safeJoin(dest string, name string) (string, error) {
	target := filepath.Join(dest, filepath.FromSlash(name))
	if target != dest && !strings.HasPrefix(target, dest+string(os.PathSeparator)) {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("archive entry escapes extraction directory: %s", name))
	}
	return target, nil
}

// sourceRoot descends into a single top-level directory if that is all the
// archive contained.
func sourceRoot(dest string) (string, error) {
	entries, err := os.ReadDir(dest)
	if err != nil {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to list extracted source").
			WithCause(err)
	}
	if len(entries) == 1 && entries[0].IsDir() {
		return filepath.Join(dest, entries[0].Name()), nil
	}
	return dest, nil
}

func stagingDir() (string, func(), error) {
	dir, err := os.MkdirTemp("", "uv-source-")
	if err != nil {
		return "", func() {}, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to create staging directory").
			WithCause(err)
	}
	return dir, func() { _ = os.RemoveAll(dir) }, nil
}

func downloadFilename(url string) string {
	segment := url
	if idx := strings.LastIndex(segment, "/"); idx >= 0 {
		segment = segment[idx+1:]
	}
	if idx := strings.IndexAny(segment, "?#"); idx >= 0 {
		segment = segment[:idx]
	}
	if segment == "" {
		return "source.tar.gz"
	}
	return segment
}

func wrapExtractErr(err error) error {
	return errbuilder.New().
		WithCode(errbuilder.CodeInternal).
		WithMsg("failed to extract archive entry").
		WithCause(err)
}

var _ ports.SourceBuildPort = (*SourceBuildAdapter)(nil)
