package sync

import (
	"sort"

	"github.com/parquedb/parquedb/pkg/model"
)

// DiffKind classifies one path's status across two manifests (spec §4.10).
type DiffKind string

const (
	OnlyLocal    DiffKind = "only_local"
	OnlyRemote   DiffKind = "only_remote"
	HashMatch    DiffKind = "hash_match"
	HashMismatch DiffKind = "hash_mismatch"
)

// FileDiff is one path's classification.
type FileDiff struct {
	Path string
	Kind DiffKind
}

// DiffManifests classifies every path in the union of local and remote,
// in lexical order, by comparing ManifestFileEntry.Hash.
func DiffManifests(local, remote *model.Manifest) []FileDiff {
	seen := make(map[string]struct{}, len(local.Files)+len(remote.Files))
	for path := range local.Files {
		seen[path] = struct{}{}
	}
	for path := range remote.Files {
		seen[path] = struct{}{}
	}
	paths := make([]string, 0, len(seen))
	for p := range seen {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	out := make([]FileDiff, 0, len(paths))
	for _, path := range paths {
		l, lok := local.Files[path]
		r, rok := remote.Files[path]
		switch {
		case lok && !rok:
			out = append(out, FileDiff{Path: path, Kind: OnlyLocal})
		case rok && !lok:
			out = append(out, FileDiff{Path: path, Kind: OnlyRemote})
		case l.Hash == r.Hash:
			out = append(out, FileDiff{Path: path, Kind: HashMatch})
		default:
			out = append(out, FileDiff{Path: path, Kind: HashMismatch})
		}
	}
	return out
}
