package adapters

import (
	"bufio"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"github.com/ericmarkmartin/uv/internal/ports"
	"github.com/ericmarkmartin/uv/internal/types"
)

// RequirementsFileAdapter lexically parses a requirements manifest into
// requirement records. Named lines (registry requirements and `name @ url`
// pins) become Named entries; bare locators (paths, archive URLs, git URLs)
// become Unnamed entries for the name resolver.
type RequirementsFileAdapter struct{}

func NewRequirementsFileAdapter() RequirementsFileAdapter {
	return RequirementsFileAdapter{}
}

// namedLineRE splits a registry requirement into name, optional extras,
// and the specifier remainder.
var namedLineRE = regexp.MustCompile(`^([A-Za-z0-9][A-Za-z0-9._-]*)\s*(\[([^\]]*)\])?\s*(.*)$`)

func (a RequirementsFileAdapter) ParseRequirements(path string) ([]types.ManifestEntry, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg(fmt.Sprintf("failed to open requirements file: %s", path)).
			WithCause(err)
	}
	defer file.Close()

	baseDir := filepath.Dir(path)
	var entries []types.ManifestEntry

	scanner := bufio.NewScanner(file)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := stripComment(strings.TrimSpace(scanner.Text()))
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "-") {
			// Only editable installs carry a requirement; other option
			// lines (-r, -c, --index-url, ...) are not requirements.
			rest, ok := editableTarget(line)
			if !ok {
				continue
			}
			line = rest
		}
		entry, err := parseRequirementLine(line, baseDir)
		if err != nil {
			return nil, errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg(fmt.Sprintf("invalid requirement at %s:%d", path, lineNo)).
				WithCause(err)
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg(fmt.Sprintf("failed to read requirements file: %s", path)).
			WithCause(err)
	}
	return entries, nil
}

func parseRequirementLine(line string, baseDir string) (types.ManifestEntry, error) {
	line, marker := splitMarker(line)

	// `name[extras] @ url` pins an already-named requirement to a locator.
	if before, after, ok := strings.Cut(line, " @ "); ok {
		name, extras, rest, err := splitNameExtras(strings.TrimSpace(before))
		if err != nil {
			return types.ManifestEntry{}, err
		}
		if rest != "" {
			return types.ManifestEntry{}, errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg(fmt.Sprintf("unexpected trailing input before locator: %q", rest))
		}
		locator, err := parseLocator(strings.TrimSpace(after), baseDir)
		if err != nil {
			return types.ManifestEntry{}, err
		}
		return types.ManifestEntry{Named: &types.Requirement{
			Name:    name,
			Extras:  extras,
			Locator: locator,
			Marker:  marker,
		}}, nil
	}

	if isLocatorLine(line) {
		line, extras := trailingExtras(line)
		locator, err := parseLocator(line, baseDir)
		if err != nil {
			return types.ManifestEntry{}, err
		}
		return types.ManifestEntry{Unnamed: &types.UnnamedRequirement{
			Locator: locator,
			Extras:  extras,
			Marker:  marker,
		}}, nil
	}

	name, extras, specifier, err := splitNameExtras(line)
	if err != nil {
		return types.ManifestEntry{}, err
	}
	return types.ManifestEntry{Named: &types.Requirement{
		Name:      name,
		Extras:    extras,
		Specifier: strings.TrimSpace(specifier),
		Marker:    marker,
	}}, nil
}

// splitMarker detaches a trailing environment-marker expression. Markers
// are separated by a semicolon preceded by whitespace, which cannot occur
// inside a name, specifier, or URL.
func splitMarker(line string) (string, string) {
	for i := len(line) - 1; i > 0; i-- {
		if line[i] == ';' && (line[i-1] == ' ' || line[i-1] == '\t') {
			return strings.TrimSpace(line[:i]), strings.TrimSpace(line[i+1:])
		}
	}
	return line, ""
}

func splitNameExtras(input string) (types.PackageName, []string, string, error) {
	match := namedLineRE.FindStringSubmatch(input)
	if match == nil {
		return "", nil, "", errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("cannot parse requirement: %q", input))
	}
	name, err := types.ParsePackageName(match[1])
	if err != nil {
		return "", nil, "", err
	}
	var extras []string
	if match[3] != "" {
		for _, extra := range strings.Split(match[3], ",") {
			extra = strings.TrimSpace(extra)
			if extra != "" {
				extras = append(extras, extra)
			}
		}
	}
	return name, extras, match[4], nil
}

// isLocatorLine reports whether a requirement line is a bare locator
// rather than a named requirement.
func isLocatorLine(line string) bool {
	if strings.Contains(line, "://") {
		return true
	}
	for _, prefix := range []string{"./", "../", "/", "~/"} {
		if strings.HasPrefix(line, prefix) {
			return true
		}
	}
	return false
}

// trailingExtras strips a `[extra1,extra2]` suffix from a path locator.
func trailingExtras(line string) (string, []string) {
	if !strings.HasSuffix(line, "]") {
		return line, nil
	}
	idx := strings.LastIndex(line, "[")
	if idx <= 0 || strings.Contains(line[idx:], "/") {
		return line, nil
	}
	var extras []string
	for _, extra := range strings.Split(line[idx+1:len(line)-1], ",") {
		extra = strings.TrimSpace(extra)
		if extra != "" {
			extras = append(extras, extra)
		}
	}
	return line[:idx], extras
}

// parseLocator turns a raw locator string into an absolute URL. Plain
// filesystem paths become file URLs anchored at the manifest's directory.
func parseLocator(raw string, baseDir string) (*url.URL, error) {
	if strings.Contains(raw, "://") {
		locator, err := url.Parse(raw)
		if err != nil {
			return nil, errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg(fmt.Sprintf("invalid locator URL: %q", raw)).
				WithCause(err)
		}
		return locator, nil
	}
	path := raw
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(home, path[2:])
		}
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(baseDir, path)
	}
	absolute, err := filepath.Abs(path)
	if err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("cannot resolve path locator: %q", raw)).
			WithCause(err)
	}
	return &url.URL{Scheme: "file", Path: filepath.ToSlash(absolute)}, nil
}

func editableTarget(line string) (string, bool) {
	for _, prefix := range []string{"-e ", "--editable "} {
		if strings.HasPrefix(line, prefix) {
			return strings.TrimSpace(strings.TrimPrefix(line, prefix)), true
		}
	}
	return "", false
}

func stripComment(line string) string {
	if strings.HasPrefix(line, "#") {
		return ""
	}
	if idx := strings.Index(line, " #"); idx >= 0 {
		return strings.TrimSpace(line[:idx])
	}
	return line
}

var _ ports.ManifestPort = RequirementsFileAdapter{}
