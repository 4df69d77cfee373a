package branch

import (
	"context"
	"encoding/json"
	"path"

	"github.com/parquedb/parquedb/pkg/errs"
	"github.com/parquedb/parquedb/pkg/model"
	"github.com/parquedb/parquedb/pkg/storage"
)

const commitsPrefix = "_meta/commits"

// CommitPath returns the fixed location of the commit named by hash.
func CommitPath(hash string) string {
	return path.Join(commitsPrefix, hash)
}

// HashCommit computes a commit's content hash over its hashable fields
// (spec §4.11: "{state, parents, message, author, timestamp}").
func HashCommit(c model.HashableCommit) (string, error) {
	return model.CanonicalHash(c)
}

// SaveCommit hashes c's content, stamps Hash, and persists it under
// CommitPath(hash).
func SaveCommit(ctx context.Context, store storage.Store, c *model.Commit) (string, error) {
	hash, err := HashCommit(model.HashableCommit{
		State: c.State, Parents: c.Parents, Message: c.Message, Author: c.Author, Timestamp: c.Timestamp,
	})
	if err != nil {
		return "", err
	}
	c.Hash = hash
	data, err := json.Marshal(c)
	if err != nil {
		return "", err
	}
	if _, err := store.Write(ctx, CommitPath(hash), data, storage.WriteOptions{}); err != nil {
		return "", err
	}
	return hash, nil
}

// LoadCommit reads and parses the commit named by hash, surfacing a
// miss as NotFoundError("commit", hash) per spec §4.11.
func LoadCommit(ctx context.Context, store storage.Store, hash string) (*model.Commit, error) {
	data, err := store.Read(ctx, CommitPath(hash))
	if err != nil {
		if err == storage.ErrNotFound {
			return nil, &errs.NotFoundError{What: "commit", ID: hash}
		}
		return nil, err
	}
	var c model.Commit
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, &errs.CorruptedManifestError{Path: CommitPath(hash), Reason: err.Error()}
	}
	return &c, nil
}
