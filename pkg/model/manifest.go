package model

// ManifestFileEntry describes one file tracked by a sync Manifest (spec §3).
type ManifestFileEntry struct {
	Path          string `json:"path"`
	Size          int64  `json:"size"`
	Hash          string `json:"hash"`
	HashAlgorithm string `json:"hashAlgorithm"`
	ModifiedAt    int64  `json:"modifiedAt"`
}

// Manifest is the sync engine's JSON index mapping logical paths to content hashes (spec §3).
type Manifest struct {
	Version      int                          `json:"version"`
	DatabaseID   string                       `json:"databaseId"`
	Name         string                       `json:"name"`
	Visibility   string                       `json:"visibility"`
	LastSyncedAt int64                        `json:"lastSyncedAt"`
	Files        map[string]ManifestFileEntry `json:"files"`
}

// NewManifest returns an empty Manifest for the given database.
func NewManifest(databaseID, name, visibility string) *Manifest {
	return &Manifest{
		Version:    1,
		DatabaseID: databaseID,
		Name:       name,
		Visibility: visibility,
		Files:      make(map[string]ManifestFileEntry),
	}
}
