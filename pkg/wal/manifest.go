package wal

import (
	"context"
	"encoding/json"
	"errors"
	"path"

	"github.com/parquedb/parquedb/pkg/model"
	"github.com/parquedb/parquedb/pkg/storage"
)

// segmentManifest tracks active segments for a dataset under
// <dataset>/events/manifest.json. It is distinct from the sync
// engine's file manifest (spec §4.10) and from table metadata (§4.2);
// this one exists purely so compaction and archival know which
// segment files are live without listing and parsing every Parquet
// file on every operation.
type segmentManifest struct {
	Segments []model.EventSegment `json:"segments"`
}

func manifestPath(dataset string) string {
	return path.Join(dataset, "events", "manifest.json")
}

func loadManifest(ctx context.Context, store storage.Store, dataset string) (*segmentManifest, string, error) {
	obj, err := store.ReadObject(ctx, manifestPath(dataset))
	if errors.Is(err, storage.ErrNotFound) {
		return &segmentManifest{}, "", nil
	}
	if err != nil {
		return nil, "", err
	}
	var m segmentManifest
	if err := json.Unmarshal(obj.Data, &m); err != nil {
		return nil, "", err
	}
	return &m, obj.ETag, nil
}

func saveManifest(ctx context.Context, store storage.Store, dataset string, m *segmentManifest, etag string) error {
	data, err := json.Marshal(m)
	if err != nil {
		return err
	}
	_, err = store.WriteConditional(ctx, manifestPath(dataset), data, etag)
	return err
}
