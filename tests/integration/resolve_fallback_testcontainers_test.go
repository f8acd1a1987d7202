//go:build integration

package integration

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/ericmarkmartin/uv/internal/adapters"
	"github.com/ericmarkmartin/uv/internal/types"
)

// TestDirectURLBuildFallbackWithTestcontainers serves a source distribution
// from a container and resolves its name through the download-and-build
// path, the same way an opaque archive URL is handled in production.
func TestDirectURLBuildFallbackWithTestcontainers(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping testcontainers integration in short mode")
	}

	ctx := t.Context()
	endpoint, cleanup := startSdistServer(ctx, t)
	t.Cleanup(cleanup)

	locator, err := url.Parse(endpoint + "/archives/snapshot-src.tar.gz")
	require.NoError(t, err)

	builder := adapters.NewSourceBuildAdapter()
	builder.HTTPTimeoutSec = 10
	builder.HTTPRetries = 3
	builder.HTTPRetryDelayMs = 100

	metadata, err := builder.DownloadAndBuildMetadata(ctx, types.SourceURL{
		Kind: types.SourceKindDirect,
		URL:  locator,
	}, nil)
	require.NoError(t, err)
	require.Equal(t, types.PackageName(sdistPackageName), metadata.Name)
	require.Equal(t, sdistPackageVersion, metadata.Version)
}

func TestResolveManifestAgainstContainerWithTestcontainers(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping testcontainers integration in short mode")
	}

	ctx := t.Context()
	endpoint, cleanup := startSdistServer(ctx, t)
	t.Cleanup(cleanup)

	workDir := t.TempDir()
	manifest := filepath.Join(workDir, "requirements.txt")
	require.NoError(t, os.WriteFile(manifest, []byte(
		endpoint+"/archives/snapshot-src.tar.gz\n"), 0644))

	parser := adapters.NewRequirementsFileAdapter()
	entries, err := parser.ParseRequirements(manifest)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.NotNil(t, entries[0].Unnamed)

	builder := adapters.NewSourceBuildAdapter()
	builder.HTTPTimeoutSec = 10
	builder.HTTPRetries = 3
	builder.HTTPRetryDelayMs = 100

	source := types.SourceURL{Kind: types.SourceKindDirect, URL: entries[0].Unnamed.Locator}
	metadata, err := builder.DownloadAndBuildMetadata(ctx, source, nil)
	require.NoError(t, err)
	require.Equal(t, types.PackageName(sdistPackageName), metadata.Name)
}

func startSdistServer(ctx context.Context, t *testing.T) (string, func()) {
	t.Helper()
	req := testcontainers.ContainerRequest{
		Image:        "python:3.12-alpine",
		ExposedPorts: []string{"8080/tcp"},
		Cmd:          []string{"python", "-c", sdistServerScript},
		WaitingFor:   wait.ForListeningPort("8080/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "8080/tcp")
	require.NoError(t, err)

	endpoint := fmt.Sprintf("http://%s:%s", host, port.Port())
	cleanup := func() {
		_ = container.Terminate(ctx)
	}
	return endpoint, cleanup
}

const (
	sdistPackageName    = "snapshot-src"
	sdistPackageVersion = "1.4.2"
)

const sdistServerScript = `
import os
import tarfile

root = "/srv/files"
name = "` + sdistPackageName + `"
version = "` + sdistPackageVersion + `"

src = os.path.join("/tmp", "%s-%s" % (name, version))
os.makedirs(src, exist_ok=True)
with open(os.path.join(src, "PKG-INFO"), "w") as f:
    f.write("Metadata-Version: 2.1\nName: %s\nVersion: %s\n" % (name, version))

archives = os.path.join(root, "archives")
os.makedirs(archives, exist_ok=True)
archive = os.path.join(archives, "%s.tar.gz" % name)
with tarfile.open(archive, "w:gz") as tar:
    tar.add(src, arcname="%s-%s" % (name, version))

os.execvp("python", ["python", "-m", "http.server", "8080", "--directory", root])
`
