package core

import (
	"bufio"
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog/log"
	"gopkg.in/ini.v1"

	"github.com/ericmarkmartin/uv/internal/types"
)

// staticMetadataName reads a package name from static project metadata in a
// candidate directory. Readers run in fixed precedence order and the first
// successful read wins; every failure mode (missing file, malformed content,
// absent field, invalid name) is a silent miss.
//
// Precedence: PKG-INFO, then pyproject.toml (project.name, then
// tool.poetry.name), then setup.cfg.
func staticMetadataName(ctx context.Context, dir string) (types.PackageName, bool) {
	if name, ok := readPkgInfoName(dir); ok {
		log.Ctx(ctx).Debug().
			Str("dir", dir).
			Str("name", string(name)).
			Msg("found PKG-INFO metadata")
		return name, true
	}
	if name, source, ok := readPyProjectName(dir); ok {
		log.Ctx(ctx).Debug().
			Str("dir", dir).
			Str("name", string(name)).
			Str("table", source).
			Msg("found pyproject.toml metadata")
		return name, true
	}
	if name, ok := readSetupCfgName(dir); ok {
		log.Ctx(ctx).Debug().
			Str("dir", dir).
			Str("name", string(name)).
			Msg("found setup.cfg metadata")
		return name, true
	}
	return "", false
}

// readPkgInfoName parses the legacy flat metadata format: header lines up
// to the first blank line, with a single Name field.
func readPkgInfoName(dir string) (types.PackageName, bool) {
	data, err := os.ReadFile(filepath.Join(dir, "PKG-INFO"))
	if err != nil {
		return "", false
	}
	raw, ok := pkgInfoField(data, "Name")
	if !ok {
		return "", false
	}
	name, err := types.ParsePackageName(raw)
	if err != nil {
		return "", false
	}
	return name, true
}

// pkgInfoField scans the header block of a PKG-INFO payload for a field,
// matching the field name case-insensitively.
func pkgInfoField(data []byte, field string) (string, bool) {
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
		if strings.EqualFold(strings.TrimSpace(key), field) {
			return strings.TrimSpace(value), true
		}
	}
	return "", false
}

// pyProject is the subset of pyproject.toml this resolver cares about.
type pyProject struct {
	Project *struct {
		Name string `toml:"name"`
	} `toml:"project"`
	Tool *struct {
		Poetry *struct {
			Name string `toml:"name"`
		} `toml:"poetry"`
	} `toml:"tool"`
}

// readPyProjectName checks the standardized project table first and falls
// back to the Poetry tool table when the project table is absent.
func readPyProjectName(dir string) (types.PackageName, string, bool) {
	data, err := os.ReadFile(filepath.Join(dir, "pyproject.toml"))
	if err != nil {
		return "", "", false
	}
	var parsed pyProject
	if err := toml.Unmarshal(data, &parsed); err != nil {
		return "", "", false
	}
	if parsed.Project != nil {
		name, err := types.ParsePackageName(parsed.Project.Name)
		if err != nil {
			return "", "", false
		}
		return name, "project", true
	}
	if parsed.Tool != nil && parsed.Tool.Poetry != nil && parsed.Tool.Poetry.Name != "" {
		name, err := types.ParsePackageName(parsed.Tool.Poetry.Name)
		if err != nil {
			return "", "", false
		}
		return name, "tool.poetry", true
	}
	return "", "", false
}

// readSetupCfgName reads the metadata section of a setup.cfg. Sections and
// keys are case-sensitive; setuptools allows multiline values.
func readSetupCfgName(dir string) (types.PackageName, bool) {
	cfg, err := ini.LoadSources(ini.LoadOptions{
		AllowPythonMultilineValues: true,
	}, filepath.Join(dir, "setup.cfg"))
	if err != nil {
		return "", false
	}
	section, err := cfg.GetSection("metadata")
	if err != nil {
		return "", false
	}
	if !section.HasKey("name") {
		return "", false
	}
	name, err := types.ParsePackageName(section.Key("name").String())
	if err != nil {
		return "", false
	}
	return name, true
}
