// Package streamer replays a CSV file as a paced sequence of object uploads.
package streamer

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"

	"chunkstream/internal/domain"
	"chunkstream/internal/source"
)

// ContentTypeCSV is set on every uploaded chunk.
const ContentTypeCSV = "text/csv"

// ChunkSource produces the chunks of a run in file order.
// Implemented by source.CSVSource.
type ChunkSource interface {
	Path() string
	Chunks() iter.Seq2[*domain.Chunk, error]
}

// Options controls object naming and pacing.
type Options struct {
	KeyPrefix string        // e.g. "transactions"
	ObjectDir string        // optional path prefix inside the bucket
	Delay     time.Duration // pause after each upload
}

// Summary reports what a run did. It is returned even when the run fails,
// so callers can see how far it got.
type Summary struct {
	RunID   string        `json:"run_id"`
	Chunks  int           `json:"chunks"`
	Rows    int           `json:"rows"`
	Bytes   int64         `json:"bytes"`
	Keys    []string      `json:"keys"`
	Elapsed time.Duration `json:"elapsed_ns"`
}

// Streamer uploads chunks from a source to an object store, one at a time.
type Streamer struct {
	store  domain.ObjectStore
	source ChunkSource
	opts   Options
	runID  string
	logger *slog.Logger

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// New creates a Streamer. Each Streamer gets its own run ID.
func New(store domain.ObjectStore, src ChunkSource, opts Options, logger *slog.Logger) *Streamer {
	if logger == nil {
		logger = slog.Default()
	}
	runID := uuid.NewString()
	return &Streamer{
		store:  store,
		source: src,
		opts:   opts,
		runID:  runID,
		logger: logger.With("run_id", runID),
		now:    time.Now,
		sleep:  sleepContext,
	}
}

// RunID returns the identifier attached to this run's logs and object metadata.
func (s *Streamer) RunID() string { return s.runID }

// Preflight verifies the destination is reachable. No retry.
func (s *Streamer) Preflight(ctx context.Context) error {
	if err := s.store.Preflight(ctx); err != nil {
		s.logger.Error("destination check failed, check bucket, region and credentials",
			"destination", s.store.Destination(), "error", err)
		return err
	}
	s.logger.Info("destination verified", "destination", s.store.Destination())
	return nil
}

// Run performs the preflight check and then streams every chunk of the source.
// Any error ends the run; objects uploaded before it stay in place.
func (s *Streamer) Run(ctx context.Context) (*Summary, error) {
	start := s.now()
	sum := &Summary{RunID: s.runID, Keys: []string{}}
	defer func() { sum.Elapsed = s.now().Sub(start) }()

	s.logger.Info("starting stream",
		"source", s.source.Path(),
		"destination", s.store.Destination(),
		"delay", s.opts.Delay)

	if err := s.Preflight(ctx); err != nil {
		return sum, err
	}

	index := 0
	for chunk, err := range s.source.Chunks() {
		if err != nil {
			var notFound *domain.SourceNotFoundError
			if errors.As(err, &notFound) {
				s.logger.Error("source file not found, check the configured source path", "path", notFound.Path)
			} else {
				s.logger.Error("read source failed", "chunk_index", index, "error", err)
			}
			return sum, err
		}

		key, n, err := s.upload(ctx, index, chunk)
		if err != nil {
			s.logger.Error("upload failed", "chunk_index", index, "key", key, "error", err)
			return sum, err
		}
		sum.Chunks++
		sum.Rows += chunk.Len()
		sum.Bytes += int64(n)
		sum.Keys = append(sum.Keys, key)
		s.logger.Info("uploaded chunk", "chunk_index", index, "key", key, "rows", chunk.Len(), "bytes", n)

		index++
		if err := s.sleep(ctx, s.opts.Delay); err != nil {
			return sum, fmt.Errorf("stream interrupted after chunk %d: %w", index-1, err)
		}
	}

	s.logger.Info("stream finished",
		"chunks", sum.Chunks,
		"rows", sum.Rows,
		"bytes", sum.Bytes,
		"elapsed", s.now().Sub(start))
	return sum, nil
}

// upload serializes chunk and writes it under a fresh key.
func (s *Streamer) upload(ctx context.Context, index int, chunk *domain.Chunk) (string, int, error) {
	key := domain.NewObjectKey(s.opts.ObjectDir, s.opts.KeyPrefix, s.now(), index).String()

	body, err := source.EncodeCSV(chunk)
	if err != nil {
		return key, 0, fmt.Errorf("encode chunk %d: %w", index, err)
	}

	obj := domain.Object{
		Key:         key,
		Body:        body,
		ContentType: ContentTypeCSV,
		Metadata: map[string]string{
			"run_id":      s.runID,
			"chunk_index": strconv.Itoa(index),
			"rows":        strconv.Itoa(chunk.Len()),
		},
	}
	if err := s.store.Put(ctx, obj); err != nil {
		return key, len(body), &domain.UploadError{Index: index, Key: key, Err: err}
	}
	return key, len(body), nil
}

// sleepContext blocks for d or until ctx is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
