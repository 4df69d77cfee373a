package wal

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/parquedb/parquedb/pkg/compress"
	"github.com/parquedb/parquedb/pkg/errs"
	"github.com/parquedb/parquedb/pkg/log"
	"github.com/parquedb/parquedb/pkg/metrics"
	"github.com/parquedb/parquedb/pkg/model"
	"github.com/parquedb/parquedb/pkg/parquetio"
	"github.com/parquedb/parquedb/pkg/storage"
)

// Config tunes the WAL's queueing, flush, compaction, and retention behavior.
type Config struct {
	MaxPendingEvents     int           // 0 disables the backpressure check
	MinBatchThreshold    int
	MaxBatchThreshold    int
	ArrivalWindow        time.Duration
	CompactionMinBatches int
	CompactionTarget     int
	ArchiveAfterDays     int
	RetentionDays        int
}

// DefaultConfig returns reasonable defaults for an embedded deployment.
func DefaultConfig() Config {
	return Config{
		MaxPendingEvents:     10000,
		MinBatchThreshold:    50,
		MaxBatchThreshold:    2000,
		ArrivalWindow:        60 * time.Second,
		CompactionMinBatches: 5,
		CompactionTarget:     5000,
		ArchiveAfterDays:     30,
		RetentionDays:        365,
	}
}

// WAL is the event log for one namespace/dataset.
type WAL struct {
	mu        sync.Mutex
	dataset   string
	store     storage.Store
	cfg       Config
	pending   []*model.Event
	flushing  bool
	arrivals  []time.Time
	nextSeq   int
	logger    zerolog.Logger
	stopCh    chan struct{}
	stoppedWg sync.WaitGroup
}

// New returns a WAL rooted at <dataset>/events/.
func New(dataset string, store storage.Store, cfg Config) *WAL {
	metrics.RegisterComponent("wal", true, "")
	return &WAL{
		dataset: dataset,
		store:   store,
		cfg:     cfg,
		logger:  log.WithNamespace(dataset),
		stopCh:  make(chan struct{}),
	}
}

// Append validates and enqueues an event, scheduling a flush when the
// adaptive threshold is reached. It fails with BackpressureError when
// the pending queue is at capacity (spec §4.3).
func (w *WAL) Append(ctx context.Context, e *model.Event) error {
	w.mu.Lock()
	if w.cfg.MaxPendingEvents > 0 && len(w.pending) >= w.cfg.MaxPendingEvents {
		size, max := len(w.pending), w.cfg.MaxPendingEvents
		w.mu.Unlock()
		metrics.WALBackpressureTotal.WithLabelValues(w.dataset).Inc()
		return &errs.BackpressureError{CurrentSize: size, MaxSize: max, Operation: "append", Namespace: w.dataset}
	}

	w.pending = append(w.pending, e)
	w.arrivals = append(w.arrivals, time.Now())
	w.trimArrivals()
	threshold := w.adaptiveThreshold()
	shouldFlush := len(w.pending) >= threshold && !w.flushing
	metrics.WALPendingEvents.WithLabelValues(w.dataset).Set(float64(len(w.pending)))
	w.mu.Unlock()

	if shouldFlush {
		go func() {
			if err := w.Flush(context.Background()); err != nil {
				w.logger.Error().Err(err).Msg("background flush failed")
			}
		}()
	}
	return nil
}

// trimArrivals drops timestamps outside the sliding window. Caller holds mu.
func (w *WAL) trimArrivals() {
	cutoff := time.Now().Add(-w.cfg.ArrivalWindow)
	i := 0
	for ; i < len(w.arrivals); i++ {
		if w.arrivals[i].After(cutoff) {
			break
		}
	}
	w.arrivals = w.arrivals[i:]
}

// adaptiveThreshold scales linearly between MinBatchThreshold at low
// arrival rate and MaxBatchThreshold at high arrival rate, using the
// current window's observed rate against MaxBatchThreshold as the
// saturation point (spec §4.3). Caller holds mu.
func (w *WAL) adaptiveThreshold() int {
	if w.cfg.MaxBatchThreshold <= w.cfg.MinBatchThreshold {
		return w.cfg.MinBatchThreshold
	}
	rate := float64(len(w.arrivals))
	saturation := float64(w.cfg.MaxBatchThreshold)
	frac := rate / saturation
	if frac > 1 {
		frac = 1
	}
	span := float64(w.cfg.MaxBatchThreshold - w.cfg.MinBatchThreshold)
	return w.cfg.MinBatchThreshold + int(frac*span)
}

// Flush writes pending events to a new segment. At most one flush runs
// at a time per dataset; a concurrent call is a no-op.
func (w *WAL) Flush(ctx context.Context) error {
	w.mu.Lock()
	if w.flushing || len(w.pending) == 0 {
		w.mu.Unlock()
		return nil
	}
	w.flushing = true
	batch := w.pending
	w.pending = nil
	w.mu.Unlock()

	timer := metrics.NewTimer()
	err := w.doFlush(ctx, batch)
	metrics.WALFlushDuration.WithLabelValues(w.dataset).Observe(timer.Duration().Seconds())

	w.mu.Lock()
	w.flushing = false
	if err != nil {
		// re-merge drained events to the front of the queue, preserving order
		w.pending = append(append([]*model.Event(nil), batch...), w.pending...)
	}
	metrics.WALPendingEvents.WithLabelValues(w.dataset).Set(float64(len(w.pending)))
	w.mu.Unlock()

	if err != nil {
		metrics.UpdateComponent("wal", false, "flush failed for "+w.dataset+": "+err.Error())
	} else {
		metrics.UpdateComponent("wal", true, "")
	}
	return err
}

func (w *WAL) doFlush(ctx context.Context, batch []*model.Event) error {
	eb := model.NewEventBatch(batch)

	blob, err := encodeSegmentBlob(batch)
	if err != nil {
		return err
	}

	manifest, etag, err := loadManifest(ctx, w.store, w.dataset)
	if err != nil {
		return err
	}
	seq := w.nextSeq
	segPath := segmentPath(w.dataset, seq)
	if _, err := w.store.Write(ctx, segPath, blob, storage.WriteOptions{}); err != nil {
		return err
	}

	manifest.Segments = append(manifest.Segments, model.EventSegment{
		Seq: seq, Path: segPath, MinTs: eb.MinTs, MaxTs: eb.MaxTs,
		Count: eb.Count, SizeBytes: int64(len(blob)), CreatedAt: time.Now().UnixMilli(),
	})
	if err := saveManifest(ctx, w.store, w.dataset, manifest, etag); err != nil {
		return err
	}

	w.mu.Lock()
	w.nextSeq++
	w.mu.Unlock()

	return nil
}

// encodeSegmentBlob serializes events to Parquet and compresses the
// result, prefixing a single codec byte so readSegmentBlob can
// dispatch without out-of-band knowledge of which codec was used.
func encodeSegmentBlob(events []*model.Event) ([]byte, error) {
	var buf bytes.Buffer
	if err := parquetio.WriteEventSegment(&buf, events); err != nil {
		return nil, err
	}
	codec, compressed, err := compress.Compress(buf.Bytes(), compress.DefaultWriteCodec)
	if err != nil {
		return nil, err
	}
	return append([]byte{byte(codec)}, compressed...), nil
}

func readSegmentBlob(blob []byte) ([]*model.Event, error) {
	if len(blob) < 1 {
		return nil, nil
	}
	codec := compress.Codec(blob[0])
	raw, err := compress.Decompress(codec, blob[1:])
	if err != nil {
		return nil, err
	}
	return parquetio.ReadEventSegment(bytes.NewReader(raw), int64(len(raw)))
}

func segmentPath(dataset string, seq int) string {
	return fmt.Sprintf("%s/events/seg-%04d.parquet", dataset, seq)
}

// Start launches the background archival/pruning loop (teacher's
// ticker+stopCh lifecycle, pkg/events.Broker / pkg/reconciler.Reconciler).
func (w *WAL) Start(ctx context.Context, interval time.Duration) {
	w.stoppedWg.Add(1)
	go func() {
		defer w.stoppedWg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if _, err := w.Archive(ctx, false); err != nil {
					w.logger.Error().Err(err).Msg("archival pass failed")
				}
				if err := w.Prune(ctx); err != nil {
					w.logger.Error().Err(err).Msg("pruning pass failed")
				}
			case <-w.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop halts the background loop and waits for it to exit.
func (w *WAL) Stop() {
	close(w.stopCh)
	w.stoppedWg.Wait()
}
