package committer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"path"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/parquedb/parquedb/pkg/errs"
	"github.com/parquedb/parquedb/pkg/log"
	"github.com/parquedb/parquedb/pkg/metrics"
	"github.com/parquedb/parquedb/pkg/model"
	"github.com/parquedb/parquedb/pkg/storage"
)

// Config tunes the commit protocol's retry and locking behavior (spec §4.2).
type Config struct {
	BaseBackoff      time.Duration
	MaxBackoff       time.Duration
	MaxRetries       int
	WriteLockTimeout time.Duration
}

// DefaultConfig matches the spec's stated defaults.
func DefaultConfig() Config {
	return Config{
		BaseBackoff:      100 * time.Millisecond,
		MaxBackoff:       5 * time.Second,
		MaxRetries:       10,
		WriteLockTimeout: 30 * time.Second,
	}
}

// AppendRequest describes one table commit: the manifest-list for the
// new snapshot has already been written by the caller (typically the
// WAL flush path or a compaction) at ManifestListPath.
type AppendRequest struct {
	Namespace        string
	Location         string
	ManifestListPath string
	SchemaUpdate     *model.Schema // optional: replaces the current schema
}

// Committer produces new table metadata and advances version-hint.text
// under optimistic concurrency control.
type Committer struct {
	mu     sync.Mutex
	locks  map[string]chan struct{}
	store  storage.Store
	cfg    Config
	logger zerolog.Logger
}

// New returns a Committer backed by store.
func New(store storage.Store, cfg Config) *Committer {
	metrics.RegisterComponent("committer", true, "")
	return &Committer{
		locks:  make(map[string]chan struct{}),
		store:  store,
		cfg:    cfg,
		logger: log.WithComponent("committer"),
	}
}

// Commit runs the full protocol in spec §4.2: resolve current metadata,
// build a new snapshot, write it under a unique path, then CAS
// version-hint.text onto it, retrying ETag conflicts with backoff.
func (c *Committer) Commit(ctx context.Context, req AppendRequest) (*model.TableMetadata, error) {
	release, err := c.acquireLock(ctx, req.Namespace)
	if err != nil {
		metrics.CommitAttemptsTotal.WithLabelValues(req.Namespace, "timeout").Inc()
		return nil, err
	}
	defer release()

	timer := metrics.NewTimer()
	defer func() {
		metrics.CommitDuration.WithLabelValues(req.Namespace).Observe(timer.Duration().Seconds())
	}()

	versionHintPath := path.Join(req.Location, "version-hint.text")

	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		meta, currentETag, err := c.resolveCurrent(ctx, versionHintPath, req.Location)
		if err != nil {
			metrics.CommitAttemptsTotal.WithLabelValues(req.Namespace, "error").Inc()
			return nil, err
		}

		newMeta := c.buildNextMetadata(meta, req)
		if err := newMeta.ValidateSnapshotChain(); err != nil {
			metrics.CommitAttemptsTotal.WithLabelValues(req.Namespace, "error").Inc()
			return nil, err
		}

		metaPath := path.Join(req.Location, "metadata", fmt.Sprintf("%d-%s.metadata.json", len(newMeta.Snapshots), uuid.NewString()))
		data, err := model.CanonicalJSON(newMeta)
		if err != nil {
			return nil, err
		}
		if _, err := c.store.Write(ctx, metaPath, data, storage.WriteOptions{}); err != nil {
			metrics.CommitAttemptsTotal.WithLabelValues(req.Namespace, "error").Inc()
			return nil, err
		}

		_, err = c.store.WriteConditional(ctx, versionHintPath, []byte(metaPath), currentETag)
		if err == nil {
			metrics.CommitAttemptsTotal.WithLabelValues(req.Namespace, "committed").Inc()
			metrics.UpdateComponent("committer", true, "")
			if snap, ok := newMeta.CurrentSnapshot(); ok {
				metrics.SnapshotIDCurrent.WithLabelValues(req.Namespace).Set(float64(snap.SnapshotID))
			}
			return newMeta, nil
		}
		if !errors.Is(err, storage.ErrETagMismatch) {
			metrics.CommitAttemptsTotal.WithLabelValues(req.Namespace, "error").Inc()
			return nil, err
		}

		metrics.CommitConflictsTotal.WithLabelValues(req.Namespace).Inc()
		c.logger.Debug().Str("namespace", req.Namespace).Int("attempt", attempt).Msg("etag mismatch, retrying commit")

		if attempt == c.cfg.MaxRetries {
			break
		}
		if err := c.sleepBackoff(ctx, attempt); err != nil {
			return nil, err
		}
	}

	metrics.CommitAttemptsTotal.WithLabelValues(req.Namespace, "etag_mismatch").Inc()
	metrics.UpdateComponent("committer", false, "exhausted retries on "+req.Namespace)
	return nil, &errs.CommitConflictError{Namespace: req.Namespace, Attempts: c.cfg.MaxRetries + 1}
}

func (c *Committer) resolveCurrent(ctx context.Context, versionHintPath, location string) (*model.TableMetadata, string, error) {
	hint, err := c.store.ReadObject(ctx, versionHintPath)
	if errors.Is(err, storage.ErrNotFound) {
		return bootstrapMetadata(location), "", nil
	}
	if err != nil {
		return nil, "", err
	}

	metaBytes, err := c.store.Read(ctx, string(hint.Data))
	if err != nil {
		return nil, "", err
	}
	var meta model.TableMetadata
	if err := json.Unmarshal(metaBytes, &meta); err != nil {
		return nil, "", &errs.CorruptedManifestError{Path: string(hint.Data), Reason: err.Error()}
	}
	return &meta, hint.ETag, nil
}

func bootstrapMetadata(location string) *model.TableMetadata {
	schema := (&model.Schema{Name: "default", Version: 1}).WithCoreFields()
	return &model.TableMetadata{
		FormatVersion:      1,
		Location:           location,
		Schemas:            []model.Schema{*schema},
		CurrentSchemaIndex: 0,
		CurrentSnapshotID:  0,
	}
}

func (c *Committer) buildNextMetadata(current *model.TableMetadata, req AppendRequest) *model.TableMetadata {
	next := *current
	next.Schemas = append([]model.Schema(nil), current.Schemas...)
	next.Snapshots = append([]model.Snapshot(nil), current.Snapshots...)

	if req.SchemaUpdate != nil {
		next.Schemas = append(next.Schemas, *req.SchemaUpdate)
		next.CurrentSchemaIndex = len(next.Schemas) - 1
	}

	newID := current.MaxSnapshotID() + 1
	snapshot := model.Snapshot{
		SnapshotID:       newID,
		ParentSnapshotID: current.CurrentSnapshotID,
		TimestampMs:      time.Now().UnixMilli(),
		ManifestList:     req.ManifestListPath,
	}
	next.Snapshots = append(next.Snapshots, snapshot)
	next.CurrentSnapshotID = newID
	return &next
}

func (c *Committer) sleepBackoff(ctx context.Context, attempt int) error {
	delay := backoffDelay(c.cfg.BaseBackoff, c.cfg.MaxBackoff, attempt)
	select {
	case <-time.After(delay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// backoffDelay implements min(maxBackoff, base*2^k) + rand(0, base) (spec §4.2).
func backoffDelay(base, max time.Duration, attempt int) time.Duration {
	exp := base << attempt
	if exp <= 0 || exp > max { // overflow or cap
		exp = max
	}
	jitter := time.Duration(rand.Int63n(int64(base) + 1))
	return exp + jitter
}

func (c *Committer) acquireLock(ctx context.Context, namespace string) (func(), error) {
	c.mu.Lock()
	ch, ok := c.locks[namespace]
	if !ok {
		ch = make(chan struct{}, 1)
		c.locks[namespace] = ch
	}
	c.mu.Unlock()

	select {
	case ch <- struct{}{}:
		return func() { <-ch }, nil
	case <-time.After(c.cfg.WriteLockTimeout):
		c.mu.Lock()
		delete(c.locks, namespace)
		c.mu.Unlock()
		return nil, &errs.WriteLockTimeoutError{Namespace: namespace, TimeoutMs: c.cfg.WriteLockTimeout.Milliseconds()}
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
