package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"google.golang.org/api/option"
)

func TestObjectPath(t *testing.T) {
	assert.Equal(t, "proj-1/logo-9/original.png", ObjectPath("proj-1", "logo-9"))
}

func TestLocalStore_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocal(dir, "http://localhost:8585/files/")
	require.NoError(t, err)
	ctx := context.Background()

	url, err := store.Upload(ctx, ObjectPath("p", "l"), []byte("png"), "image/png")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8585/files/p/l/original.png", url)

	data, err := os.ReadFile(filepath.Join(dir, "p", "l", "original.png"))
	require.NoError(t, err)
	assert.Equal(t, []byte("png"), data)

	got, err := store.Download(ctx, "p/l/original.png")
	require.NoError(t, err)
	assert.Equal(t, []byte("png"), got)
}

func TestLocalStore_Overwrite(t *testing.T) {
	store, err := NewLocal(t.TempDir(), "http://x")
	require.NoError(t, err)
	ctx := context.Background()

	_, err = store.Upload(ctx, "a/b.png", []byte("one"), "image/png")
	require.NoError(t, err)
	_, err = store.Upload(ctx, "a/b.png", []byte("two"), "image/png")
	require.NoError(t, err)

	got, err := store.Download(ctx, "a/b.png")
	require.NoError(t, err)
	assert.Equal(t, []byte("two"), got)
}

func TestLocalStore_StaysInsideRoot(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocal(filepath.Join(dir, "root"), "http://x")
	require.NoError(t, err)

	_, err = store.Upload(context.Background(), "../../escape.png", []byte("x"), "image/png")
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(dir, "escape.png"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(dir, "root", "escape.png"))
	assert.NoError(t, err)
}

func TestLocalStore_DownloadMissing(t *testing.T) {
	store, err := NewLocal(t.TempDir(), "http://x")
	require.NoError(t, err)

	_, err = store.Download(context.Background(), "nope.png")

	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGCSStore_Emulator(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	t.Setenv("TESTCONTAINERS_RYUK_DISABLED", "true")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "fsouza/fake-gcs-server:1.52",
			ExposedPorts: []string{"4443/tcp"},
			Cmd:          []string{"-scheme", "http", "-port", "4443"},
			WaitingFor:   wait.ForListeningPort("4443/tcp").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	defer func() { _ = container.Terminate(context.Background()) }()

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "4443")
	require.NoError(t, err)
	endpoint := fmt.Sprintf("%s:%s", host, port.Port())
	t.Setenv("STORAGE_EMULATOR_HOST", endpoint)

	store, err := NewGCS(ctx, "logos", "http://"+endpoint+"/logos", option.WithoutAuthentication())
	require.NoError(t, err)
	defer store.Close()
	require.NoError(t, store.client.Bucket("logos").Create(ctx, "test-project", nil))

	url, err := store.Upload(ctx, ObjectPath("p", "l"), []byte("png-bytes"), "image/png")
	require.NoError(t, err)
	assert.Equal(t, "http://"+endpoint+"/logos/p/l/original.png", url)

	got, err := store.Download(ctx, ObjectPath("p", "l"))
	require.NoError(t, err)
	assert.Equal(t, []byte("png-bytes"), got)

	_, err = store.Download(ctx, "missing.png")
	assert.ErrorIs(t, err, ErrNotFound)
}
