package sync

import (
	"context"
	"testing"

	"github.com/parquedb/parquedb/pkg/model"
	"github.com/parquedb/parquedb/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, ctx context.Context, store storage.Store, path string, data []byte) {
	t.Helper()
	_, err := store.Write(ctx, path, data, storage.WriteOptions{})
	require.NoError(t, err)
}

func TestDiffManifests_ClassifiesEveryCase(t *testing.T) {
	local := model.NewManifest("db", "n", "private")
	remote := model.NewManifest("db", "n", "private")

	local.Files["only-local.parquet"] = model.ManifestFileEntry{Path: "only-local.parquet", Hash: "aaa"}
	remote.Files["only-remote.parquet"] = model.ManifestFileEntry{Path: "only-remote.parquet", Hash: "bbb"}
	local.Files["same.parquet"] = model.ManifestFileEntry{Path: "same.parquet", Hash: "ccc"}
	remote.Files["same.parquet"] = model.ManifestFileEntry{Path: "same.parquet", Hash: "ccc"}
	local.Files["diverged.parquet"] = model.ManifestFileEntry{Path: "diverged.parquet", Hash: "ddd1"}
	remote.Files["diverged.parquet"] = model.ManifestFileEntry{Path: "diverged.parquet", Hash: "ddd2"}

	diffs := DiffManifests(local, remote)
	byPath := map[string]DiffKind{}
	for _, d := range diffs {
		byPath[d.Path] = d.Kind
	}
	assert.Equal(t, OnlyLocal, byPath["only-local.parquet"])
	assert.Equal(t, OnlyRemote, byPath["only-remote.parquet"])
	assert.Equal(t, HashMatch, byPath["same.parquet"])
	assert.Equal(t, HashMismatch, byPath["diverged.parquet"])
}

func TestPush_UploadsNewAndMismatchedFiles(t *testing.T) {
	ctx := context.Background()
	local := storage.NewMemoryStore()
	remote := storage.NewMemoryStore()

	writeFile(t, ctx, local, "data/users.parquet", []byte("local-v1"))
	writeFile(t, ctx, local, "data/shared.parquet", []byte("same"))
	writeFile(t, ctx, remote, "data/shared.parquet", []byte("same"))

	localManifest := model.NewManifest("db", "n", "private")
	localManifest.Files["data/users.parquet"] = model.ManifestFileEntry{Path: "data/users.parquet", Hash: storage.Hash([]byte("local-v1"))}
	localManifest.Files["data/shared.parquet"] = model.ManifestFileEntry{Path: "data/shared.parquet", Hash: storage.Hash([]byte("same"))}
	require.NoError(t, SaveManifest(ctx, local, localManifest))

	remoteManifest := model.NewManifest("db", "n", "private")
	remoteManifest.Files["data/shared.parquet"] = model.ManifestFileEntry{Path: "data/shared.parquet", Hash: storage.Hash([]byte("same"))}
	require.NoError(t, SaveManifest(ctx, remote, remoteManifest))

	eng := NewEngine(local, remote)
	res, err := eng.Push(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"data/users.parquet"}, res.Uploaded)
	assert.Empty(t, res.Errors)

	uploaded, err := remote.Read(ctx, "data/users.parquet")
	require.NoError(t, err)
	assert.Equal(t, "local-v1", string(uploaded))

	after, err := LoadManifest(ctx, remote, "remote")
	require.NoError(t, err)
	assert.Contains(t, after.Files, "data/users.parquet")
}

func TestPull_DownloadsRemoteOnlyAndMismatched(t *testing.T) {
	ctx := context.Background()
	local := storage.NewMemoryStore()
	remote := storage.NewMemoryStore()

	writeFile(t, ctx, remote, "data/orders.parquet", []byte("remote-v1"))

	remoteManifest := model.NewManifest("db", "n", "private")
	remoteManifest.Files["data/orders.parquet"] = model.ManifestFileEntry{Path: "data/orders.parquet", Hash: storage.Hash([]byte("remote-v1"))}
	require.NoError(t, SaveManifest(ctx, remote, remoteManifest))

	eng := NewEngine(local, remote)
	res, err := eng.Pull(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"data/orders.parquet"}, res.Downloaded)
	assert.Empty(t, res.Errors)

	downloaded, err := local.Read(ctx, "data/orders.parquet")
	require.NoError(t, err)
	assert.Equal(t, "remote-v1", string(downloaded))
}

func TestPush_MissingLocalFileIsCollectedNotFatal(t *testing.T) {
	ctx := context.Background()
	local := storage.NewMemoryStore()
	remote := storage.NewMemoryStore()

	localManifest := model.NewManifest("db", "n", "private")
	localManifest.Files["data/ghost.parquet"] = model.ManifestFileEntry{Path: "data/ghost.parquet", Hash: "whatever"}
	require.NoError(t, SaveManifest(ctx, local, localManifest))

	eng := NewEngine(local, remote)
	res, err := eng.Push(ctx)
	require.NoError(t, err)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, "upload", res.Errors[0].Operation)
	assert.Equal(t, "data/ghost.parquet", res.Errors[0].Path)
	assert.Empty(t, res.Uploaded)
}

func TestSync_PushThenPullConverge(t *testing.T) {
	ctx := context.Background()
	local := storage.NewMemoryStore()
	remote := storage.NewMemoryStore()

	writeFile(t, ctx, local, "data/a.parquet", []byte("a-content"))
	localManifest := model.NewManifest("db", "n", "private")
	localManifest.Files["data/a.parquet"] = model.ManifestFileEntry{Path: "data/a.parquet", Hash: storage.Hash([]byte("a-content"))}
	require.NoError(t, SaveManifest(ctx, local, localManifest))

	writeFile(t, ctx, remote, "data/b.parquet", []byte("b-content"))
	remoteManifest := model.NewManifest("db", "n", "private")
	remoteManifest.Files["data/b.parquet"] = model.ManifestFileEntry{Path: "data/b.parquet", Hash: storage.Hash([]byte("b-content"))}
	require.NoError(t, SaveManifest(ctx, remote, remoteManifest))

	eng := NewEngine(local, remote)
	res, err := eng.Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"data/a.parquet"}, res.Push.Uploaded)
	assert.Equal(t, []string{"data/b.parquet"}, res.Pull.Downloaded)

	finalLocal, err := LoadManifest(ctx, local, "local")
	require.NoError(t, err)
	assert.Contains(t, finalLocal.Files, "data/a.parquet")
	assert.Contains(t, finalLocal.Files, "data/b.parquet")

	finalRemote, err := LoadManifest(ctx, remote, "remote")
	require.NoError(t, err)
	assert.Contains(t, finalRemote.Files, "data/a.parquet")
	assert.Contains(t, finalRemote.Files, "data/b.parquet")
}

func TestLoadManifest_CorruptedSurfacesTypedError(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	writeFile(t, ctx, store, ManifestPath, []byte("{not json"))

	_, err := LoadManifest(ctx, store, "local")
	require.Error(t, err)
}
