package branch

import (
	"context"
	"path"
	"strings"

	"github.com/parquedb/parquedb/pkg/errs"
	"github.com/parquedb/parquedb/pkg/storage"
)

const (
	refsPrefix = "_meta/refs"
	headPath   = "_meta/HEAD"
)

// RefPath returns the fixed location of the ref file for branch name.
func RefPath(name string) string {
	return path.Join(refsPrefix, name)
}

// GetRef returns the commit hash branch name currently points at,
// surfacing a miss as NotFoundError("ref", name).
func GetRef(ctx context.Context, store storage.Store, name string) (string, error) {
	data, err := store.Read(ctx, RefPath(name))
	if err != nil {
		if err == storage.ErrNotFound {
			return "", &errs.NotFoundError{What: "ref", ID: name}
		}
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// SetRef points branch name at hash, creating the ref if absent.
func SetRef(ctx context.Context, store storage.Store, name, hash string) error {
	_, err := store.Write(ctx, RefPath(name), []byte(hash), storage.WriteOptions{})
	return err
}

// RefExists reports whether branch name has a ref file.
func RefExists(ctx context.Context, store storage.Store, name string) (bool, error) {
	return store.Exists(ctx, RefPath(name))
}

// CurrentBranch returns the branch name HEAD currently points at. A
// missing HEAD is not an error — it means no branch has been
// checked out yet — and returns "".
func CurrentBranch(ctx context.Context, store storage.Store) (string, error) {
	data, err := store.Read(ctx, headPath)
	if err != nil {
		if err == storage.ErrNotFound {
			return "", nil
		}
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// SetHEAD points HEAD at branch name.
func SetHEAD(ctx context.Context, store storage.Store, name string) error {
	_, err := store.Write(ctx, headPath, []byte(name), storage.WriteOptions{})
	return err
}

// ResolveHEAD returns the commit hash HEAD's current branch points at.
func ResolveHEAD(ctx context.Context, store storage.Store) (string, error) {
	name, err := CurrentBranch(ctx, store)
	if err != nil {
		return "", err
	}
	if name == "" {
		return "", &errs.NotFoundError{What: "ref", ID: "HEAD"}
	}
	return GetRef(ctx, store, name)
}
