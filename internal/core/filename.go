package core

import (
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	pep440 "github.com/aquasecurity/go-pep440-version"

	"github.com/ericmarkmartin/uv/internal/types"
)

// WheelFilename is the parsed form of a wheel archive filename, e.g.
// "anyio-4.3.0-py3-none-any.whl".
type WheelFilename struct {
	Name        types.PackageName
	Version     string
	BuildTag    string
	PythonTag   string
	ABITag      string
	PlatformTag string
}

// SourceDistFilename is the parsed form of a conventionally named source
// archive, e.g. "anyio-4.3.0.tar.gz".
type SourceDistFilename struct {
	Name      types.PackageName
	Version   string
	Extension string
}

// sdistExtensions are the archive extensions recognized as source
// distributions. Longer extensions precede their suffixes so ".tar.gz"
// matches before ".gz" style confusion (matched case-insensitively).
var sdistExtensions = []string{
	".tar.gz", ".tar.bz2", ".tar.xz", ".tgz", ".tbz", ".txz", ".tar", ".zip",
}

// ParseWheelFilename parses a filename under the strict wheel naming
// grammar: name-version(-build)?-python-abi-platform.whl. Any deviation is
// an error; wheel filenames are machine-generated and a malformed one means
// the locator does not point at a real wheel.
func ParseWheelFilename(filename string) (WheelFilename, error) {
	stem, ok := trimSuffixFold(filename, ".whl")
	if !ok {
		return WheelFilename{}, invalidWheelName(filename, nil)
	}
	parts := strings.Split(stem, "-")
	if len(parts) != 5 && len(parts) != 6 {
		return WheelFilename{}, invalidWheelName(filename, nil)
	}
	name, err := types.ParsePackageName(parts[0])
	if err != nil {
		return WheelFilename{}, invalidWheelName(filename, err)
	}
	if _, err := pep440.Parse(parts[1]); err != nil {
		return WheelFilename{}, invalidWheelName(filename, err)
	}
	parsed := WheelFilename{
		Name:    name,
		Version: parts[1],
	}
	tags := parts[2:]
	if len(parts) == 6 {
		parsed.BuildTag = parts[2]
		tags = parts[3:]
	}
	for _, tag := range tags {
		if tag == "" {
			return WheelFilename{}, invalidWheelName(filename, nil)
		}
	}
	parsed.PythonTag = tags[0]
	parsed.ABITag = tags[1]
	parsed.PlatformTag = tags[2]
	return parsed, nil
}

// ParseSourceDistFilename attempts to parse a filename under the sdist
// naming convention, name-version.ext. The convention is not enforced by
// any tool, so callers treat failure as a miss, not an error.
func ParseSourceDistFilename(filename string) (SourceDistFilename, error) {
	var stem, ext string
	for _, candidate := range sdistExtensions {
		if trimmed, ok := trimSuffixFold(filename, candidate); ok {
			stem, ext = trimmed, candidate
			break
		}
	}
	if ext == "" {
		return SourceDistFilename{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("not a source distribution filename: %q", filename))
	}
	idx := strings.LastIndex(stem, "-")
	if idx <= 0 || idx == len(stem)-1 {
		return SourceDistFilename{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("source distribution filename has no version segment: %q", filename))
	}
	version := stem[idx+1:]
	if _, err := pep440.Parse(version); err != nil {
		return SourceDistFilename{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("invalid version in source distribution filename: %q", filename)).
			WithCause(err)
	}
	name, err := types.ParsePackageName(stem[:idx])
	if err != nil {
		return SourceDistFilename{}, err
	}
	return SourceDistFilename{Name: name, Version: version, Extension: ext}, nil
}

// hasWheelExtension reports whether the filename ends in ".whl",
// case-insensitively.
func hasWheelExtension(filename string) bool {
	return strings.EqualFold(path.Ext(filename), ".whl")
}

// locatorFilename extracts the final path segment of a locator URL.
func locatorFilename(locator *url.URL) (string, error) {
	segment := path.Base(locator.Path)
	if segment == "." || segment == "/" || segment == "" {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("locator has no filename: %s", locator))
	}
	unescaped, err := url.PathUnescape(segment)
	if err != nil {
		return segment, nil
	}
	return unescaped, nil
}

func trimSuffixFold(value string, suffix string) (string, bool) {
	if len(value) <= len(suffix) {
		return "", false
	}
	if !strings.EqualFold(value[len(value)-len(suffix):], suffix) {
		return "", false
	}
	return value[:len(value)-len(suffix)], true
}

func invalidWheelName(filename string, cause error) error {
	builder := errbuilder.New().
		WithCode(errbuilder.CodeInvalidArgument).
		WithMsg(fmt.Sprintf("invalid wheel filename: %q", filename))
	if cause != nil {
		builder = builder.WithCause(cause)
	}
	return builder
}
