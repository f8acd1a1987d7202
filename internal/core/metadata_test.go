package core

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericmarkmartin/uv/internal/types"
)

func writeProjectFile(t *testing.T, dir string, name string, contents string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(contents), 0644))
}

func TestStaticMetadataPkgInfo(t *testing.T) {
	dir := t.TempDir()
	writeProjectFile(t, dir, "PKG-INFO", "Metadata-Version: 1.0\nName: foo\nVersion: 0.1\n")

	name, ok := staticMetadataName(t.Context(), dir)
	require.True(t, ok)
	assert.Equal(t, types.PackageName("foo"), name)
}

func TestStaticMetadataPkgInfoPrecedesPyProject(t *testing.T) {
	dir := t.TempDir()
	writeProjectFile(t, dir, "PKG-INFO", "Name: foo\n")
	writeProjectFile(t, dir, "pyproject.toml", "[project]\nname = \"bar\"\n")

	name, ok := staticMetadataName(t.Context(), dir)
	require.True(t, ok)
	assert.Equal(t, types.PackageName("foo"), name)
}

func TestStaticMetadataPyProjectProject(t *testing.T) {
	dir := t.TempDir()
	writeProjectFile(t, dir, "pyproject.toml", "[project]\nname = \"bar\"\nversion = \"1.0\"\n")

	name, ok := staticMetadataName(t.Context(), dir)
	require.True(t, ok)
	assert.Equal(t, types.PackageName("bar"), name)
}

func TestStaticMetadataPyProjectPoetryFallback(t *testing.T) {
	dir := t.TempDir()
	writeProjectFile(t, dir, "pyproject.toml", "[tool.poetry]\nname = \"baz\"\nversion = \"0.1.0\"\n")

	name, ok := staticMetadataName(t.Context(), dir)
	require.True(t, ok)
	assert.Equal(t, types.PackageName("baz"), name)
}

func TestStaticMetadataSetupCfg(t *testing.T) {
	dir := t.TempDir()
	writeProjectFile(t, dir, "setup.cfg", "[metadata]\nname = qux\n")

	name, ok := staticMetadataName(t.Context(), dir)
	require.True(t, ok)
	assert.Equal(t, types.PackageName("qux"), name)
}

func TestStaticMetadataSetupCfgMultiline(t *testing.T) {
	dir := t.TempDir()
	writeProjectFile(t, dir, "setup.cfg",
		"[metadata]\nname = qux\ndescription =\n    a multiline\n    description\n")

	name, ok := staticMetadataName(t.Context(), dir)
	require.True(t, ok)
	assert.Equal(t, types.PackageName("qux"), name)
}

func TestStaticMetadataMisses(t *testing.T) {
	cases := map[string]func(t *testing.T, dir string){
		"empty directory": func(t *testing.T, dir string) {},
		"malformed pyproject": func(t *testing.T, dir string) {
			writeProjectFile(t, dir, "pyproject.toml", "not [valid toml")
		},
		"pyproject without name tables": func(t *testing.T, dir string) {
			writeProjectFile(t, dir, "pyproject.toml", "[build-system]\nrequires = [\"setuptools\"]\n")
		},
		"setup.cfg without metadata section": func(t *testing.T, dir string) {
			writeProjectFile(t, dir, "setup.cfg", "[options]\nzip_safe = False\n")
		},
		"setup.cfg invalid name": func(t *testing.T, dir string) {
			writeProjectFile(t, dir, "setup.cfg", "[metadata]\nname = not a name!\n")
		},
		"pkg-info without name field": func(t *testing.T, dir string) {
			writeProjectFile(t, dir, "PKG-INFO", "Metadata-Version: 1.0\n")
		},
	}
	for label, setup := range cases {
		t.Run(label, func(t *testing.T) {
			dir := t.TempDir()
			setup(t, dir)
			_, ok := staticMetadataName(t.Context(), dir)
			assert.False(t, ok)
		})
	}
}
