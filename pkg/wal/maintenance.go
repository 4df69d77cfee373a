package wal

import (
	"context"
	"fmt"
	"time"

	"github.com/parquedb/parquedb/pkg/errs"
	"github.com/parquedb/parquedb/pkg/metrics"
	"github.com/parquedb/parquedb/pkg/model"
	"github.com/parquedb/parquedb/pkg/storage"
)

// Compact merges segments, in manifest order, into a single segment once the
// namespace holds at least CompactionMinBatches segments, stopping
// once CompactionTarget events have been gathered (spec §4.3).
func (w *WAL) Compact(ctx context.Context) error {
	manifest, etag, err := loadManifest(ctx, w.store, w.dataset)
	if err != nil {
		return err
	}
	if len(manifest.Segments) < w.cfg.CompactionMinBatches {
		return nil
	}

	toMerge := make([]model.EventSegment, 0, len(manifest.Segments))
	total := 0
	for _, seg := range manifest.Segments {
		if total >= w.cfg.CompactionTarget {
			break
		}
		toMerge = append(toMerge, seg)
		total += seg.Count
	}
	if len(toMerge) < 2 {
		return nil
	}

	var merged []*model.Event
	for _, seg := range toMerge {
		blob, err := w.store.Read(ctx, seg.Path)
		if err != nil {
			return err
		}
		events, err := readSegmentBlob(blob)
		if err != nil {
			return err
		}
		merged = append(merged, events...)
	}

	blob, err := encodeSegmentBlob(merged)
	if err != nil {
		return err
	}

	w.mu.Lock()
	seq := w.nextSeq
	w.nextSeq++
	w.mu.Unlock()

	compactedPath := segmentPath(w.dataset, seq)
	if _, err := w.store.Write(ctx, compactedPath, blob, storage.WriteOptions{}); err != nil {
		return err
	}

	eb := model.NewEventBatch(merged)
	remaining := manifest.Segments[len(toMerge):]
	manifest.Segments = append([]model.EventSegment{{
		Seq: seq, Path: compactedPath, MinTs: eb.MinTs, MaxTs: eb.MaxTs,
		Count: eb.Count, SizeBytes: int64(len(blob)), CreatedAt: time.Now().UnixMilli(),
	}}, remaining...)
	if err := saveManifest(ctx, w.store, w.dataset, manifest, etag); err != nil {
		return err
	}

	for _, seg := range toMerge {
		if err := w.store.Delete(ctx, seg.Path); err != nil {
			w.logger.Warn().Err(err).Str("path", seg.Path).Msg("failed to delete compacted segment source")
		}
	}
	metrics.WALCompactionsTotal.WithLabelValues(w.dataset).Inc()
	return nil
}

// ArchiveAction describes one segment archival decision, returned by
// Archive even in dry-run mode so callers can audit what would move.
type ArchiveAction struct {
	Segment     model.EventSegment
	ArchivePath string
}

// Archive moves segments older than ArchiveAfterDays to
// archive/YYYY/MM/seg-NNNN.parquet, keyed by each segment's MinTs
// (spec §4.3). With dryRun it computes and returns the actions without
// mutating storage.
func (w *WAL) Archive(ctx context.Context, dryRun bool) ([]ArchiveAction, error) {
	manifest, etag, err := loadManifest(ctx, w.store, w.dataset)
	if err != nil {
		return nil, err
	}

	cutoff := time.Now().AddDate(0, 0, -w.cfg.ArchiveAfterDays).UnixMilli()
	var actions []ArchiveAction
	var kept []model.EventSegment

	for _, seg := range manifest.Segments {
		if seg.MinTs >= cutoff {
			kept = append(kept, seg)
			continue
		}
		archivePath := archiveSegmentPath(w.dataset, seg)
		actions = append(actions, ArchiveAction{Segment: seg, ArchivePath: archivePath})
	}

	if dryRun || len(actions) == 0 {
		return actions, nil
	}

	for _, a := range actions {
		data, err := w.store.Read(ctx, a.Segment.Path)
		if err != nil {
			return actions, err
		}
		if _, err := w.store.Write(ctx, a.ArchivePath, data, storage.WriteOptions{}); err != nil {
			return actions, err
		}
		if err := w.store.Delete(ctx, a.Segment.Path); err != nil {
			return actions, err
		}
		metrics.WALArchivedSegmentsTotal.WithLabelValues(w.dataset).Inc()
	}

	manifest.Segments = kept
	if err := saveManifest(ctx, w.store, w.dataset, manifest, etag); err != nil {
		return actions, err
	}
	return actions, nil
}

// Restore copies an archived segment back to the active path, deletes
// the archive copy, and re-adds it to the manifest (spec §4.3).
func (w *WAL) Restore(ctx context.Context, archivePath string) error {
	seg, err := parseArchivePath(w.dataset, archivePath)
	if err != nil {
		return err
	}

	data, err := w.store.Read(ctx, archivePath)
	if err != nil {
		return err
	}
	events, err := readSegmentBlob(data)
	if err != nil {
		return err
	}
	eb := model.NewEventBatch(events)

	if _, err := w.store.Write(ctx, seg.Path, data, storage.WriteOptions{}); err != nil {
		return err
	}
	if err := w.store.Delete(ctx, archivePath); err != nil {
		return err
	}

	manifest, etag, err := loadManifest(ctx, w.store, w.dataset)
	if err != nil {
		return err
	}
	seg.MinTs, seg.MaxTs, seg.Count = eb.MinTs, eb.MaxTs, eb.Count
	manifest.Segments = append(manifest.Segments, seg)
	return saveManifest(ctx, w.store, w.dataset, manifest, etag)
}

// Prune deletes archived segments older than RetentionDays (spec §4.3).
func (w *WAL) Prune(ctx context.Context) error {
	cutoff := time.Now().AddDate(0, 0, -w.cfg.RetentionDays)
	prefix := fmt.Sprintf("%s/archive/", w.dataset)
	paths, err := w.store.List(ctx, prefix)
	if err != nil {
		return err
	}
	for _, p := range paths {
		year, month, ok := parseArchiveYearMonth(w.dataset, p)
		if !ok {
			continue
		}
		monthStart := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
		if monthStart.AddDate(0, 1, 0).Before(cutoff) {
			if err := w.store.Delete(ctx, p); err != nil {
				return err
			}
		}
	}
	return nil
}

func archiveSegmentPath(dataset string, seg model.EventSegment) string {
	t := time.UnixMilli(seg.MinTs).UTC()
	return fmt.Sprintf("%s/archive/%04d/%02d/seg-%04d.parquet", dataset, t.Year(), t.Month(), seg.Seq)
}

func parseArchivePath(dataset, archivePath string) (model.EventSegment, error) {
	var year, month, seq int
	prefix := dataset + "/archive/"
	if len(archivePath) <= len(prefix) {
		return model.EventSegment{}, &errs.InvalidArchivePathError{Path: archivePath}
	}
	rest := archivePath[len(prefix):]
	if _, err := fmt.Sscanf(rest, "%04d/%02d/seg-%04d.parquet", &year, &month, &seq); err != nil {
		return model.EventSegment{}, &errs.InvalidArchivePathError{Path: archivePath}
	}
	return model.EventSegment{Seq: seq, Path: segmentPath(dataset, seq)}, nil
}

func parseArchiveYearMonth(dataset, p string) (year, month int, ok bool) {
	var seq int
	prefix := dataset + "/archive/"
	if len(p) <= len(prefix) {
		return 0, 0, false
	}
	rest := p[len(prefix):]
	if _, err := fmt.Sscanf(rest, "%04d/%02d/seg-%04d.parquet", &year, &month, &seq); err != nil {
		return 0, 0, false
	}
	return year, month, true
}
