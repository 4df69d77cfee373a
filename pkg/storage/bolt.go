package storage

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	bolt "go.etcd.io/bbolt"

	"github.com/parquedb/parquedb/pkg/metrics"
)

var (
	bucketBlobs = []byte("blobs")
	bucketETags = []byte("etags")
)

// BoltStore implements Store on top of a single bbolt file, the way the
// teacher's BoltStore persists cluster state — except keyed by arbitrary
// path strings instead of fixed per-type buckets, so metadata JSON,
// Parquet segments, and index blobs can share one file.
type BoltStore struct {
	db *bolt.DB
}

// NewBoltStore opens (creating if necessary) a bbolt file under dataDir.
func NewBoltStore(dataDir string) (*BoltStore, error) {
	dbPath := filepath.Join(dataDir, "parquedb.db")

	db, err := bolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("storage: open bolt db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bucketBlobs); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists(bucketETags)
		return err
	})
	if err != nil {
		db.Close()
		metrics.RegisterComponent("storage", false, err.Error())
		return nil, fmt.Errorf("storage: create buckets: %w", err)
	}

	metrics.RegisterComponent("storage", true, "")
	return &BoltStore{db: db}, nil
}

func (s *BoltStore) Close() error {
	metrics.UpdateComponent("storage", false, "closed")
	return s.db.Close()
}

func (s *BoltStore) Read(_ context.Context, path string) ([]byte, error) {
	var data []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketBlobs).Get([]byte(path))
		if v == nil {
			return ErrNotFound
		}
		data = append([]byte(nil), v...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (s *BoltStore) ReadObject(_ context.Context, path string) (Object, error) {
	var obj Object
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketBlobs).Get([]byte(path))
		if v == nil {
			return ErrNotFound
		}
		obj.Data = append([]byte(nil), v...)
		if e := tx.Bucket(bucketETags).Get([]byte(path)); e != nil {
			obj.ETag = string(e)
		}
		return nil
	})
	if err != nil {
		return Object{}, err
	}
	return obj, nil
}

func (s *BoltStore) Write(_ context.Context, path string, data []byte, opts WriteOptions) (string, error) {
	var etag string
	err := s.db.Update(func(tx *bolt.Tx) error {
		blobs := tx.Bucket(bucketBlobs)
		etags := tx.Bucket(bucketETags)

		existing := blobs.Get([]byte(path))
		if opts.IfNoneMatch && existing != nil {
			return ErrETagMismatch
		}
		if opts.IfMatch != "" {
			current := string(etags.Get([]byte(path)))
			if existing == nil || current != opts.IfMatch {
				return ErrETagMismatch
			}
		}
		etag = Hash(data)
		if err := blobs.Put([]byte(path), data); err != nil {
			return err
		}
		return etags.Put([]byte(path), []byte(etag))
	})
	if err != nil {
		return "", err
	}
	return etag, nil
}

func (s *BoltStore) WriteConditional(_ context.Context, path string, data []byte, expectedETag string) (string, error) {
	var etag string
	err := s.db.Update(func(tx *bolt.Tx) error {
		blobs := tx.Bucket(bucketBlobs)
		etags := tx.Bucket(bucketETags)

		existing := blobs.Get([]byte(path))
		if expectedETag == "" {
			if existing != nil {
				return ErrETagMismatch
			}
		} else {
			current := string(etags.Get([]byte(path)))
			if existing == nil || current != expectedETag {
				return ErrETagMismatch
			}
		}
		etag = Hash(data)
		if err := blobs.Put([]byte(path), data); err != nil {
			return err
		}
		return etags.Put([]byte(path), []byte(etag))
	})
	if err != nil {
		return "", err
	}
	return etag, nil
}

func (s *BoltStore) Exists(_ context.Context, path string) (bool, error) {
	var ok bool
	err := s.db.View(func(tx *bolt.Tx) error {
		ok = tx.Bucket(bucketBlobs).Get([]byte(path)) != nil
		return nil
	})
	return ok, err
}

func (s *BoltStore) List(_ context.Context, prefix string) ([]string, error) {
	var paths []string
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucketBlobs).Cursor()
		prefixBytes := []byte(prefix)
		for k, _ := c.Seek(prefixBytes); k != nil && strings.HasPrefix(string(k), prefix); k, _ = c.Next() {
			paths = append(paths, string(k))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	return paths, nil
}

func (s *BoltStore) Delete(_ context.Context, path string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.Bucket(bucketBlobs).Delete([]byte(path)); err != nil {
			return err
		}
		return tx.Bucket(bucketETags).Delete([]byte(path))
	})
}
