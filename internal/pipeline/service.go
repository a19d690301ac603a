// Package pipeline orchestrates media ingestion: classify, compress when
// warranted, push to the object store, and report progress to the upload
// session. Steps within one upload are strictly sequential; uploads across
// requests run concurrently with transcodes bounded by a semaphore.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/semaphore"

	"github.com/lumenframe/studio-api/internal/compress"
	"github.com/lumenframe/studio-api/internal/media"
	"github.com/lumenframe/studio-api/internal/session"
	"github.com/lumenframe/studio-api/internal/storage"
	"github.com/lumenframe/studio-api/internal/upload"
)

// Config tunes the ingestion pipeline.
type Config struct {
	// ThresholdMB is the size above which videos are compressed.
	ThresholdMB int
	// CompressOptions are the deploy-time compression defaults.
	CompressOptions compress.Options
	// MaxConcurrentTranscodes bounds parallel transcodes across requests.
	MaxConcurrentTranscodes int
	// TempDir hosts the image pass scratch files.
	TempDir string
	// ImageMaxWidth and ImageMaxHeight bound the image resize pass.
	ImageMaxWidth  int
	ImageMaxHeight int
}

func (c Config) withDefaults() Config {
	if c.ThresholdMB <= 0 {
		c.ThresholdMB = 50
	}
	if c.MaxConcurrentTranscodes <= 0 {
		c.MaxConcurrentTranscodes = 2
	}
	if c.TempDir == "" {
		c.TempDir = os.TempDir()
	}
	if c.ImageMaxWidth <= 0 {
		c.ImageMaxWidth = 1920
	}
	if c.ImageMaxHeight <= 0 {
		c.ImageMaxHeight = 1080
	}
	return c
}

// Service wires the classifier, compression engine, image pass and object
// store into the single ingest flow used by every media endpoint.
type Service struct {
	store    storage.ObjectStore
	engine   *compress.Engine
	images   media.Processor
	sessions *session.Manager
	logger   *slog.Logger
	sem      *semaphore.Weighted
	cfg      Config
}

// NewService creates a Service. If logger is nil, slog.Default() is used.
func NewService(store storage.ObjectStore, engine *compress.Engine, images media.Processor, sessions *session.Manager, logger *slog.Logger, cfg Config) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	cfg = cfg.withDefaults()
	return &Service{
		store:    store,
		engine:   engine,
		images:   images,
		sessions: sessions,
		logger:   logger,
		sem:      semaphore.NewWeighted(int64(cfg.MaxConcurrentTranscodes)),
		cfg:      cfg,
	}
}

// Ingest runs one accepted file through the pipeline and returns the stored
// asset. sessionID may be empty; progress reporting is advisory and a failed
// or missing session never affects the upload outcome.
func (s *Service) Ingest(ctx context.Context, f *upload.File, folder, sessionID string) (*storage.Asset, error) {
	data := f.Data
	contentType := f.ContentType
	filename := f.Filename
	var duration float64

	switch f.Type {
	case upload.TypeImage:
		if resized, ok := s.imagePass(ctx, f); ok {
			data = resized
			contentType = "image/jpeg"
			filename = strings.TrimSuffix(filename, filepath.Ext(filename)) + ".jpg"
		}

	case upload.TypeVideo:
		if upload.NeedsCompression(f.Size(), s.cfg.ThresholdMB) {
			if result, err := s.CompressVideo(ctx, f.Data, s.cfg.CompressOptions, sessionID); err != nil {
				// Compression is a best-effort optimization; upload the
				// original buffer instead of failing the request.
				s.logger.Warn("compression failed, uploading original",
					slog.String("filename", f.Filename),
					slog.String("error", err.Error()),
				)
			} else {
				data = result.Buffer
				contentType = "video/mp4"
				filename = strings.TrimSuffix(filename, filepath.Ext(filename)) + ".mp4"
			}
		}
		duration = s.probeDuration(ctx, data)
	}

	s.notify(sessionID, session.StatusUploading, 0, "uploading to storage")

	asset, err := s.store.Upload(ctx, folder, filename, data, contentType)
	if err != nil {
		s.notify(sessionID, session.StatusFailed, 0, "storage upload failed")
		return nil, fmt.Errorf("store upload: %w", err)
	}
	asset.DurationSeconds = duration

	s.notify(sessionID, session.StatusDone, 100, "upload complete")
	return asset, nil
}

// CompressVideo compresses a buffer with the transcode semaphore held,
// forwarding engine progress to the session channel.
func (s *Service) CompressVideo(ctx context.Context, data []byte, opts compress.Options, sessionID string) (*compress.Result, error) {
	if err := s.sem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("acquire transcode slot: %w", err)
	}
	defer s.sem.Release(1)

	stream := s.engine.Start(ctx, data, opts)
	for ev := range stream.Events() {
		s.notify(sessionID, session.StatusCompressing, ev.Progress, ev.Message)
	}
	return stream.Wait()
}

// Discard is the compensating action for a persistence failure after a
// successful storage upload: best-effort removal of the orphaned object.
func (s *Service) Discard(ctx context.Context, publicID string) {
	if publicID == "" {
		return
	}
	if err := s.store.Delete(ctx, publicID); err != nil {
		s.logger.Warn("failed to discard orphaned object",
			slog.String("public_id", publicID),
			slog.String("error", err.Error()),
		)
	}
}

// DeleteAsset removes a stored object when its owning record drops the media
// reference. Failure is logged, never fatal: consistency between store and
// metadata is eventual.
func (s *Service) DeleteAsset(ctx context.Context, publicID string) {
	s.Discard(ctx, publicID)
}

// imagePass applies the deterministic resize/recompress pass to every image,
// independent of size. On processor failure the original buffer is kept and
// the second return value is false.
func (s *Service) imagePass(ctx context.Context, f *upload.File) ([]byte, bool) {
	if err := os.MkdirAll(s.cfg.TempDir, 0750); err != nil {
		s.logger.Warn("image pass skipped: temp dir unavailable", slog.String("error", err.Error()))
		return nil, false
	}

	in, err := os.CreateTemp(s.cfg.TempDir, "image-in-*"+filepath.Ext(f.Filename))
	if err != nil {
		s.logger.Warn("image pass skipped", slog.String("error", err.Error()))
		return nil, false
	}
	inPath := in.Name()
	outPath := strings.TrimSuffix(inPath, filepath.Ext(inPath)) + "-out.jpg"
	defer func() {
		_ = os.Remove(inPath)
		_ = os.Remove(outPath)
	}()

	if _, err := in.Write(f.Data); err != nil {
		_ = in.Close()
		s.logger.Warn("image pass skipped", slog.String("error", err.Error()))
		return nil, false
	}
	if err := in.Close(); err != nil {
		s.logger.Warn("image pass skipped", slog.String("error", err.Error()))
		return nil, false
	}

	if err := s.images.ResizeImage(ctx, inPath, outPath, s.cfg.ImageMaxWidth, s.cfg.ImageMaxHeight); err != nil {
		s.logger.Warn("image resize failed, uploading original",
			slog.String("filename", f.Filename),
			slog.String("error", err.Error()),
		)
		return nil, false
	}

	resized, err := os.ReadFile(outPath) // #nosec G304 - path is service-generated
	if err != nil {
		s.logger.Warn("image pass skipped", slog.String("error", err.Error()))
		return nil, false
	}
	return resized, true
}

// probeDuration inspects a video buffer's duration, best-effort.
func (s *Service) probeDuration(ctx context.Context, data []byte) float64 {
	if err := os.MkdirAll(s.cfg.TempDir, 0750); err != nil {
		return 0
	}
	f, err := os.CreateTemp(s.cfg.TempDir, "probe-*.mp4")
	if err != nil {
		return 0
	}
	path := f.Name()
	defer func() { _ = os.Remove(path) }()

	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return 0
	}
	if err := f.Close(); err != nil {
		return 0
	}

	duration, err := s.images.ProbeDuration(ctx, path)
	if err != nil {
		return 0
	}
	return duration
}

func (s *Service) notify(sessionID string, status session.Status, progress int, message string) {
	if sessionID == "" || s.sessions == nil {
		return
	}
	s.sessions.Update(sessionID, status, progress, message)
}
