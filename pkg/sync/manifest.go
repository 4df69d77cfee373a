package sync

import (
	"context"
	"encoding/json"

	"github.com/parquedb/parquedb/pkg/errs"
	"github.com/parquedb/parquedb/pkg/model"
	"github.com/parquedb/parquedb/pkg/storage"
)

// ManifestPath is the fixed location of a backend's sync manifest.
const ManifestPath = "_meta/manifest.json"

// LoadManifest reads and parses store's manifest. A missing manifest is
// not an error — it's treated as an empty one, the state of a backend
// that has never synced. A parse failure surfaces as
// CorruptedManifestError labeled with side ("local"/"remote"), per
// spec §4.10.
func LoadManifest(ctx context.Context, store storage.Store, side string) (*model.Manifest, error) {
	data, err := store.Read(ctx, ManifestPath)
	if err != nil {
		if err == storage.ErrNotFound {
			return model.NewManifest("", "", ""), nil
		}
		return nil, err
	}
	var m model.Manifest
	if jsonErr := json.Unmarshal(data, &m); jsonErr != nil {
		return nil, &errs.CorruptedManifestError{
			Path:   ManifestPath,
			Reason: "corrupted " + side + " manifest: " + jsonErr.Error(),
		}
	}
	if m.Files == nil {
		m.Files = map[string]model.ManifestFileEntry{}
	}
	return &m, nil
}

// SaveManifest serializes and writes m to store.
func SaveManifest(ctx context.Context, store storage.Store, m *model.Manifest) error {
	data, err := json.Marshal(m)
	if err != nil {
		return err
	}
	_, err = store.Write(ctx, ManifestPath, data, storage.WriteOptions{})
	return err
}
