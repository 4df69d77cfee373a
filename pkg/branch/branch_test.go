package branch

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/parquedb/parquedb/pkg/errs"
	"github.com/parquedb/parquedb/pkg/model"
	"github.com/parquedb/parquedb/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPutObject_IsContentAddressedAndIdempotent(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()

	hash1, err := PutObject(ctx, store, []byte("hello"))
	require.NoError(t, err)
	hash2, err := PutObject(ctx, store, []byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, hash1, hash2)
	assert.Equal(t, storage.Hash([]byte("hello")), hash1)

	data, err := GetObject(ctx, store, hash1)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
}

func TestGetObject_MissingIsNotFound(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	_, err := GetObject(ctx, store, "deadbeef")
	var nf *errs.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "object", nf.What)
}

func TestSaveLoadCommit_HashIsDeterministic(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()

	c := &model.Commit{
		Parents: nil, Message: "init", Author: "alice", Timestamp: 1000,
		State: model.DatabaseState{Collections: map[string]model.CollectionState{
			"users": {DataHash: "aaa", SchemaHash: "bbb", RowCount: 2},
		}},
	}
	hash, err := SaveCommit(ctx, store, c)
	require.NoError(t, err)
	assert.NotEmpty(t, hash)
	assert.Equal(t, hash, c.Hash)

	expected, err := HashCommit(model.HashableCommit{
		State: c.State, Parents: c.Parents, Message: c.Message, Author: c.Author, Timestamp: c.Timestamp,
	})
	require.NoError(t, err)
	assert.Equal(t, expected, hash)

	loaded, err := LoadCommit(ctx, store, hash)
	require.NoError(t, err)
	assert.Equal(t, c.Message, loaded.Message)
	assert.Equal(t, c.State, loaded.State)
}

func TestLoadCommit_MissingIsNotFound(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	_, err := LoadCommit(ctx, store, "nope")
	var nf *errs.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "commit", nf.What)
}

func TestRefsAndHEAD(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()

	_, err := GetRef(ctx, store, "main")
	var nf *errs.NotFoundError
	require.ErrorAs(t, err, &nf)

	require.NoError(t, SetRef(ctx, store, "main", "abc123"))
	hash, err := GetRef(ctx, store, "main")
	require.NoError(t, err)
	assert.Equal(t, "abc123", hash)

	branch, err := CurrentBranch(ctx, store)
	require.NoError(t, err)
	assert.Empty(t, branch, "no HEAD set yet")

	require.NoError(t, SetHEAD(ctx, store, "main"))
	branch, err = CurrentBranch(ctx, store)
	require.NoError(t, err)
	assert.Equal(t, "main", branch)

	resolved, err := ResolveHEAD(ctx, store)
	require.NoError(t, err)
	assert.Equal(t, "abc123", resolved)
}

func seedCommit(t *testing.T, ctx context.Context, store storage.Store, usersData, usersSchema []byte) (*model.Commit, string) {
	t.Helper()
	dataHash, err := PutObject(ctx, store, usersData)
	require.NoError(t, err)
	schemaHash, err := PutObject(ctx, store, usersSchema)
	require.NoError(t, err)

	c := &model.Commit{
		Message: "seed", Author: "alice", Timestamp: 1,
		State: model.DatabaseState{Collections: map[string]model.CollectionState{
			"users": {DataHash: dataHash, SchemaHash: schemaHash, RowCount: 1},
		}},
	}
	hash, err := SaveCommit(ctx, store, c)
	require.NoError(t, err)
	return c, hash
}

func TestCheckout_MaterializesDataAndSchemaFiles(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()

	_, hash := seedCommit(t, ctx, store, []byte("users-parquet-bytes"), []byte(`{"fields":[]}`))
	require.NoError(t, SetRef(ctx, store, "main", hash))

	commit, err := Checkout(ctx, store, "main", CheckoutOptions{})
	require.NoError(t, err)
	assert.Equal(t, hash, commit.Hash)

	data, err := store.Read(ctx, dataPath("main", "users"))
	require.NoError(t, err)
	assert.Equal(t, "users-parquet-bytes", string(data))

	schema, err := store.Read(ctx, schemaPath("main", "users"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"fields":[]}`, string(schema))

	branch, err := CurrentBranch(ctx, store)
	require.NoError(t, err)
	assert.Equal(t, "main", branch)
}

func TestCheckout_CreateBranchesFromHEAD(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()

	_, hash := seedCommit(t, ctx, store, []byte("v1"), []byte(`{}`))
	require.NoError(t, SetRef(ctx, store, "main", hash))
	require.NoError(t, SetHEAD(ctx, store, "main"))

	_, err := GetRef(ctx, store, "feature")
	var nf *errs.NotFoundError
	require.ErrorAs(t, err, &nf)

	commit, err := Checkout(ctx, store, "feature", CheckoutOptions{Create: true})
	require.NoError(t, err)
	assert.Equal(t, hash, commit.Hash)

	featureHash, err := GetRef(ctx, store, "feature")
	require.NoError(t, err)
	assert.Equal(t, hash, featureHash)

	branch, err := CurrentBranch(ctx, store)
	require.NoError(t, err)
	assert.Equal(t, "feature", branch)
}

func TestCheckout_WithoutCreateOnMissingRefIsNotFound(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	_, err := Checkout(ctx, store, "ghost", CheckoutOptions{})
	require.Error(t, err)
}

func TestCheckout_PrunesCollectionsRemovedFromState(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()

	_, hash1 := seedCommit(t, ctx, store, []byte("v1"), []byte(`{}`))
	require.NoError(t, SetRef(ctx, store, "main", hash1))
	_, err := Checkout(ctx, store, "main", CheckoutOptions{})
	require.NoError(t, err)
	_, err = store.Read(ctx, dataPath("main", "users"))
	require.NoError(t, err)

	ordersHash, err := PutObject(ctx, store, []byte("orders-v1"))
	require.NoError(t, err)
	ordersSchemaHash, err := PutObject(ctx, store, []byte(`{}`))
	require.NoError(t, err)
	c2 := &model.Commit{
		Message: "drop users", Author: "alice", Timestamp: 2, Parents: []string{hash1},
		State: model.DatabaseState{Collections: map[string]model.CollectionState{
			"orders": {DataHash: ordersHash, SchemaHash: ordersSchemaHash, RowCount: 1},
		}},
	}
	hash2, err := SaveCommit(ctx, store, c2)
	require.NoError(t, err)
	require.NoError(t, SetRef(ctx, store, "main", hash2))

	_, err = Checkout(ctx, store, "main", CheckoutOptions{})
	require.NoError(t, err)

	_, err = store.Read(ctx, dataPath("main", "users"))
	assert.ErrorIs(t, err, storage.ErrNotFound, "stale users data file should be pruned")

	data, err := store.Read(ctx, dataPath("main", "orders"))
	require.NoError(t, err)
	assert.Equal(t, "orders-v1", string(data))
}

func TestMaterializeRelationships_WritesListedFiles(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()

	fileHash, err := PutObject(ctx, store, []byte("rel-content"))
	require.NoError(t, err)
	manifest, err := json.Marshal(map[string]string{"relationships/forward/users-orders.json": fileHash})
	require.NoError(t, err)
	manifestHash, err := PutObject(ctx, store, manifest)
	require.NoError(t, err)

	require.NoError(t, materializeRelationships(ctx, store, manifestHash))

	data, err := store.Read(ctx, "relationships/forward/users-orders.json")
	require.NoError(t, err)
	assert.Equal(t, "rel-content", string(data))
}
