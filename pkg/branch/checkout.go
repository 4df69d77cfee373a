package branch

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"

	"github.com/parquedb/parquedb/pkg/errs"
	"github.com/parquedb/parquedb/pkg/model"
	"github.com/parquedb/parquedb/pkg/storage"
)

// CheckoutOptions configures one Checkout call.
type CheckoutOptions struct {
	// Create branches name off the commit HEAD currently resolves to
	// when name has no ref yet (spec §4.11).
	Create bool
}

func dataPath(branch, collection string) string {
	return path.Join("data", branch, collection+".parquet")
}

func schemaPath(branch, collection string) string {
	return path.Join("schema", branch, collection+".json")
}

// resolveTarget resolves name to the commit hash Checkout should
// materialize, creating the ref from the current HEAD when opts.Create
// is set and name has no ref yet.
func resolveTarget(ctx context.Context, store storage.Store, name string, opts CheckoutOptions) (string, error) {
	hash, err := GetRef(ctx, store, name)
	if err == nil {
		return hash, nil
	}
	var nf *errs.NotFoundError
	if !isNotFound(err, &nf) || !opts.Create {
		return "", err
	}
	head, err := ResolveHEAD(ctx, store)
	if err != nil {
		if isNotFound(err, &nf) {
			// Unborn repository: no ref is written, and Checkout
			// reports the missing commit.
			return "", nil
		}
		return "", err
	}
	if err := SetRef(ctx, store, name, head); err != nil {
		return "", err
	}
	return head, nil
}

func isNotFound(err error, target **errs.NotFoundError) bool {
	if nf, ok := err.(*errs.NotFoundError); ok {
		*target = nf
		return true
	}
	return false
}

// Checkout materializes the commit branch name resolves to onto the
// data/<name>/*.parquet, schema/<name>/*.json, and relationship files,
// deletes anything stale from a previous checkout of the same name,
// and moves HEAD to name (spec §4.11).
func Checkout(ctx context.Context, store storage.Store, name string, opts CheckoutOptions) (*model.Commit, error) {
	hash, err := resolveTarget(ctx, store, name, opts)
	if err != nil {
		return nil, err
	}
	if hash == "" {
		return nil, &errs.NotFoundError{What: "commit", ID: name}
	}

	commit, err := LoadCommit(ctx, store, hash)
	if err != nil {
		return nil, err
	}

	wantData := make(map[string]bool, len(commit.State.Collections))
	for collection, cs := range commit.State.Collections {
		wantData[dataPath(name, collection)] = true
		wantData[schemaPath(name, collection)] = true

		data, err := GetObject(ctx, store, cs.DataHash)
		if err != nil {
			return nil, fmt.Errorf("checkout %s: missing object for collection %s: %w", name, collection, err)
		}
		if _, err := store.Write(ctx, dataPath(name, collection), data, storage.WriteOptions{}); err != nil {
			return nil, err
		}

		schemaData, err := GetObject(ctx, store, cs.SchemaHash)
		if err != nil {
			return nil, fmt.Errorf("checkout %s: missing object for collection %s schema: %w", name, collection, err)
		}
		if _, err := store.Write(ctx, schemaPath(name, collection), schemaData, storage.WriteOptions{}); err != nil {
			return nil, err
		}
	}

	if err := materializeRelationships(ctx, store, commit.State.Relationships.ForwardHash); err != nil {
		return nil, err
	}
	if err := materializeRelationships(ctx, store, commit.State.Relationships.ReverseHash); err != nil {
		return nil, err
	}

	if err := pruneStaleFiles(ctx, store, path.Join("data", name), wantData); err != nil {
		return nil, err
	}
	if err := pruneStaleFiles(ctx, store, path.Join("schema", name), wantData); err != nil {
		return nil, err
	}

	if err := SetHEAD(ctx, store, name); err != nil {
		return nil, err
	}
	return commit, nil
}

// materializeRelationships loads the relationship manifest object
// (a JSON map of file path -> object hash) named by hash, when hash is
// non-empty, and writes every listed object to its file path.
func materializeRelationships(ctx context.Context, store storage.Store, hash string) error {
	if hash == "" {
		return nil
	}
	manifestData, err := GetObject(ctx, store, hash)
	if err != nil {
		return fmt.Errorf("checkout: missing relationship manifest object: %w", err)
	}
	var files map[string]string
	if err := json.Unmarshal(manifestData, &files); err != nil {
		return &errs.CorruptedManifestError{Path: ObjectPath(hash), Reason: err.Error()}
	}
	for filePath, objHash := range files {
		data, err := GetObject(ctx, store, objHash)
		if err != nil {
			return fmt.Errorf("checkout: missing object for relationship file %s: %w", filePath, err)
		}
		if _, err := store.Write(ctx, filePath, data, storage.WriteOptions{}); err != nil {
			return err
		}
	}
	return nil
}

// pruneStaleFiles deletes every object under prefix whose path isn't in
// keep, clearing collection files the new checkout target no longer has.
func pruneStaleFiles(ctx context.Context, store storage.Store, prefix string, keep map[string]bool) error {
	existing, err := store.List(ctx, prefix+"/")
	if err != nil {
		return err
	}
	for _, p := range existing {
		if keep[p] {
			continue
		}
		if !strings.HasPrefix(p, prefix) {
			continue
		}
		if err := store.Delete(ctx, p); err != nil {
			return err
		}
	}
	return nil
}
