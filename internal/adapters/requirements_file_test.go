package adapters

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericmarkmartin/uv/internal/types"
)

func writeManifest(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "requirements.txt")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0644))
	return path
}

func TestParseRequirementsNamed(t *testing.T) {
	path := writeManifest(t, `
# core deps
flask>=2.0
requests[security,socks]==2.31.0  # pinned
anyio ; python_version >= "3.8"
`)
	entries, err := NewRequirementsFileAdapter().ParseRequirements(path)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	require.NotNil(t, entries[0].Named)
	assert.Equal(t, types.PackageName("flask"), entries[0].Named.Name)
	assert.Equal(t, ">=2.0", entries[0].Named.Specifier)

	require.NotNil(t, entries[1].Named)
	assert.Equal(t, types.PackageName("requests"), entries[1].Named.Name)
	assert.Equal(t, []string{"security", "socks"}, entries[1].Named.Extras)
	assert.Equal(t, "==2.31.0", entries[1].Named.Specifier)

	require.NotNil(t, entries[2].Named)
	assert.Equal(t, `python_version >= "3.8"`, entries[2].Named.Marker)
}

func TestParseRequirementsNamedURLPin(t *testing.T) {
	path := writeManifest(t, "anyio[trio] @ https://example.com/anyio-4.3.0.tar.gz\n")
	entries, err := NewRequirementsFileAdapter().ParseRequirements(path)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.NotNil(t, entries[0].Named)
	assert.Equal(t, types.PackageName("anyio"), entries[0].Named.Name)
	assert.Equal(t, []string{"trio"}, entries[0].Named.Extras)
	require.NotNil(t, entries[0].Named.Locator)
	assert.Equal(t, "https://example.com/anyio-4.3.0.tar.gz", entries[0].Named.Locator.String())
}

func TestParseRequirementsUnnamedURL(t *testing.T) {
	path := writeManifest(t, `
https://example.com/dist/pkg-1.0-py3-none-any.whl
git+ssh://git@github.com/example/repo.git
`)
	entries, err := NewRequirementsFileAdapter().ParseRequirements(path)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	require.NotNil(t, entries[0].Unnamed)
	assert.Equal(t, "https", entries[0].Unnamed.Locator.Scheme)

	require.NotNil(t, entries[1].Unnamed)
	assert.Equal(t, "git+ssh", entries[1].Unnamed.Locator.Scheme)
}

func TestParseRequirementsUnnamedPath(t *testing.T) {
	path := writeManifest(t, "./vendor/local-pkg\n")
	entries, err := NewRequirementsFileAdapter().ParseRequirements(path)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.NotNil(t, entries[0].Unnamed)

	locator := entries[0].Unnamed.Locator
	assert.Equal(t, "file", locator.Scheme)
	assert.True(t, filepath.IsAbs(locator.Path))
	assert.Equal(t, "local-pkg", filepath.Base(locator.Path))
}

func TestParseRequirementsPathExtras(t *testing.T) {
	path := writeManifest(t, "./vendor/local-pkg[cli,dev]\n")
	entries, err := NewRequirementsFileAdapter().ParseRequirements(path)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.NotNil(t, entries[0].Unnamed)
	assert.Equal(t, []string{"cli", "dev"}, entries[0].Unnamed.Extras)
	assert.Equal(t, "local-pkg", filepath.Base(entries[0].Unnamed.Locator.Path))
}

func TestParseRequirementsEditableAndOptions(t *testing.T) {
	path := writeManifest(t, `
-r other-requirements.txt
--index-url https://pypi.example.com/simple
-e ./vendor/editable-pkg
`)
	entries, err := NewRequirementsFileAdapter().ParseRequirements(path)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.NotNil(t, entries[0].Unnamed)
	assert.Equal(t, "editable-pkg", filepath.Base(entries[0].Unnamed.Locator.Path))
}

func TestParseRequirementsInvalidLine(t *testing.T) {
	path := writeManifest(t, "!!not-a-requirement\n")
	_, err := NewRequirementsFileAdapter().ParseRequirements(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid requirement at")
}

func TestParseRequirementsMissingFile(t *testing.T) {
	_, err := NewRequirementsFileAdapter().ParseRequirements(filepath.Join(t.TempDir(), "absent.txt"))
	require.Error(t, err)
}
