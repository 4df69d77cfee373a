package branch

import (
	"context"
	"fmt"

	"github.com/parquedb/parquedb/pkg/errs"
	"github.com/parquedb/parquedb/pkg/storage"
)

// ObjectPath returns the content-addressed path for hash: the objects
// tree is sharded by the hash's first two hex characters (spec §4.11).
func ObjectPath(hash string) string {
	if len(hash) < 2 {
		return "_meta/objects/" + hash + "/" + hash
	}
	return fmt.Sprintf("_meta/objects/%s/%s", hash[:2], hash)
}

// PutObject writes data under its content-addressed path and returns
// the hash. Writing the same content twice is a no-op the second time
// since the path is identical (spec §4.11's idempotent-write guarantee).
func PutObject(ctx context.Context, store storage.Store, data []byte) (string, error) {
	hash := storage.Hash(data)
	path := ObjectPath(hash)
	exists, err := store.Exists(ctx, path)
	if err != nil {
		return "", err
	}
	if exists {
		return hash, nil
	}
	if _, err := store.Write(ctx, path, data, storage.WriteOptions{}); err != nil {
		return "", err
	}
	return hash, nil
}

// GetObject reads the object named by hash, surfacing a miss as
// NotFoundError("object", hash) per spec §4.11's "object not found".
func GetObject(ctx context.Context, store storage.Store, hash string) ([]byte, error) {
	data, err := store.Read(ctx, ObjectPath(hash))
	if err != nil {
		if err == storage.ErrNotFound {
			return nil, &errs.NotFoundError{What: "object", ID: hash}
		}
		return nil, err
	}
	return data, nil
}
