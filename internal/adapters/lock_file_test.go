package adapters

import (
	"net/url"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/ericmarkmartin/uv/internal/types"
)

func TestWriteLockPreservesOrder(t *testing.T) {
	dir := t.TempDir()
	locator, err := url.Parse("https://example.com/flask-3.0.0-py3-none-any.whl")
	require.NoError(t, err)

	adapter := NewLockFileAdapter(dir)
	require.NoError(t, adapter.WriteLock([]types.Requirement{
		{Name: "anyio", Specifier: "==4.3.0"},
		{Name: "flask", Locator: locator},
		{Name: "requests", Extras: []string{"security"}, Specifier: ">=2.31"},
	}))

	data, err := os.ReadFile(filepath.Join(dir, "requirements.lock"))
	require.NoError(t, err)
	assert.Equal(t,
		"anyio==4.3.0\n"+
			"flask @ https://example.com/flask-3.0.0-py3-none-any.whl\n"+
			"requests[security]>=2.31\n",
		string(data))
}

func TestWriteReportRoundTrips(t *testing.T) {
	dir := t.TempDir()
	generated := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	adapter := NewLockFileAdapter(dir)
	require.NoError(t, adapter.WriteReport(types.ResolveReport{
		GeneratedAt: generated,
		Manifest:    "/work/requirements.txt",
		Requirements: []types.ReportEntry{
			{Name: "demo", Locator: "https://example.com/demo-1.0.tar.gz"},
		},
	}))

	data, err := os.ReadFile(filepath.Join(dir, "resolve.report"))
	require.NoError(t, err)

	var report types.ResolveReport
	require.NoError(t, yaml.Unmarshal(data, &report))
	assert.Equal(t, "/work/requirements.txt", report.Manifest)
	require.Len(t, report.Requirements, 1)
	assert.Equal(t, "demo", report.Requirements[0].Name)
	assert.True(t, generated.Equal(report.GeneratedAt))
}

func TestWriteLockCreatesOutputDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "out")

	adapter := NewLockFileAdapter(dir)
	require.NoError(t, adapter.WriteLock([]types.Requirement{{Name: "demo", Specifier: "==1.0"}}))

	_, err := os.Stat(filepath.Join(dir, "requirements.lock"))
	require.NoError(t, err)
}
