package sync

import (
	"context"
	"time"

	"github.com/parquedb/parquedb/pkg/log"
	"github.com/parquedb/parquedb/pkg/metrics"
	"github.com/parquedb/parquedb/pkg/model"
	"github.com/parquedb/parquedb/pkg/storage"
	"github.com/rs/zerolog"
)

// FileError records one path's failure during Push or Pull. Sync
// collects these instead of aborting on the first failure (spec §4.10).
type FileError struct {
	Path      string
	Operation string // upload, download
	Message   string
}

// PushResult is the outcome of one Push call.
type PushResult struct {
	Uploaded []string
	Errors   []FileError
}

// PullResult is the outcome of one Pull call.
type PullResult struct {
	Downloaded []string
	Errors     []FileError
}

// SyncResult is the outcome of one Sync call: a Push followed by a Pull,
// with independent failure sets.
type SyncResult struct {
	Push PushResult
	Pull PullResult
}

// Engine pushes and pulls file content between a local and a remote
// storage.Store, diffing their manifests to decide what moved (spec
// §4.10).
type Engine struct {
	local  storage.Store
	remote storage.Store
	logger zerolog.Logger
}

// NewEngine returns an Engine syncing local against remote.
func NewEngine(local, remote storage.Store) *Engine {
	return &Engine{local: local, remote: remote, logger: log.WithComponent("sync")}
}

// Push uploads every path that's only-local or hash-mismatched, local
// wins on mismatch. Successful uploads update and persist the remote
// manifest; per-file failures are collected, not fatal.
func (e *Engine) Push(ctx context.Context) (*PushResult, error) {
	local, err := LoadManifest(ctx, e.local, "local")
	if err != nil {
		return nil, err
	}
	remote, err := LoadManifest(ctx, e.remote, "remote")
	if err != nil {
		return nil, err
	}

	res := &PushResult{}
	dirty := false
	for _, d := range DiffManifests(local, remote) {
		if d.Kind != OnlyLocal && d.Kind != HashMismatch {
			continue
		}
		data, err := e.local.Read(ctx, d.Path)
		if err != nil {
			res.Errors = append(res.Errors, FileError{Path: d.Path, Operation: "upload", Message: err.Error()})
			metrics.SyncFileErrorsTotal.WithLabelValues("upload").Inc()
			continue
		}
		if _, err := e.remote.Write(ctx, d.Path, data, storage.WriteOptions{}); err != nil {
			res.Errors = append(res.Errors, FileError{Path: d.Path, Operation: "upload", Message: err.Error()})
			metrics.SyncFileErrorsTotal.WithLabelValues("upload").Inc()
			continue
		}
		metrics.SyncBytesTotal.WithLabelValues("push").Add(float64(len(data)))
		remote.Files[d.Path] = model.ManifestFileEntry{
			Path: d.Path, Size: int64(len(data)), Hash: storage.Hash(data),
			HashAlgorithm: "sha256", ModifiedAt: time.Now().UnixMilli(),
		}
		res.Uploaded = append(res.Uploaded, d.Path)
		dirty = true
	}
	if dirty {
		remote.LastSyncedAt = time.Now().UnixMilli()
		if err := SaveManifest(ctx, e.remote, remote); err != nil {
			return res, err
		}
	}
	e.logger.Info().Int("uploaded", len(res.Uploaded)).Int("errors", len(res.Errors)).Msg("push complete")
	return res, nil
}

// Pull downloads every path that's only-remote or hash-mismatched,
// remote wins on mismatch. Successful downloads update and persist the
// local manifest; per-file failures are collected, not fatal.
func (e *Engine) Pull(ctx context.Context) (*PullResult, error) {
	local, err := LoadManifest(ctx, e.local, "local")
	if err != nil {
		return nil, err
	}
	remote, err := LoadManifest(ctx, e.remote, "remote")
	if err != nil {
		return nil, err
	}

	res := &PullResult{}
	dirty := false
	for _, d := range DiffManifests(local, remote) {
		if d.Kind != OnlyRemote && d.Kind != HashMismatch {
			continue
		}
		data, err := e.remote.Read(ctx, d.Path)
		if err != nil {
			res.Errors = append(res.Errors, FileError{Path: d.Path, Operation: "download", Message: err.Error()})
			metrics.SyncFileErrorsTotal.WithLabelValues("download").Inc()
			continue
		}
		if _, err := e.local.Write(ctx, d.Path, data, storage.WriteOptions{}); err != nil {
			res.Errors = append(res.Errors, FileError{Path: d.Path, Operation: "download", Message: err.Error()})
			metrics.SyncFileErrorsTotal.WithLabelValues("download").Inc()
			continue
		}
		metrics.SyncBytesTotal.WithLabelValues("pull").Add(float64(len(data)))
		local.Files[d.Path] = model.ManifestFileEntry{
			Path: d.Path, Size: int64(len(data)), Hash: storage.Hash(data),
			HashAlgorithm: "sha256", ModifiedAt: time.Now().UnixMilli(),
		}
		res.Downloaded = append(res.Downloaded, d.Path)
		dirty = true
	}
	if dirty {
		local.LastSyncedAt = time.Now().UnixMilli()
		if err := SaveManifest(ctx, e.local, local); err != nil {
			return res, err
		}
	}
	e.logger.Info().Int("downloaded", len(res.Downloaded)).Int("errors", len(res.Errors)).Msg("pull complete")
	return res, nil
}

// Sync runs Push then Pull. The two halves fail independently: a Pull
// still runs (and its own errors are reported) even when Push produced
// per-file errors, since those are carried in PushResult.Errors rather
// than as a returned error.
func (e *Engine) Sync(ctx context.Context) (*SyncResult, error) {
	push, err := e.Push(ctx)
	if err != nil {
		return nil, err
	}
	pull, err := e.Pull(ctx)
	if err != nil {
		return &SyncResult{Push: *push}, err
	}
	return &SyncResult{Push: *push, Pull: *pull}, nil
}
