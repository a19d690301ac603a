package compress

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// ErrEmptyInput is returned when the input buffer has no data.
var ErrEmptyInput = errors.New("compress: empty input buffer")

// Event is a single progress report from a compression run.
type Event struct {
	// Status is "compressing" for engine-produced events.
	Status string `json:"status"`
	// Progress is the completion percentage (0-100).
	Progress int `json:"progress"`
	// Message is a short human-readable note.
	Message string `json:"message"`
}

// Result is the outcome of a successful compression.
type Result struct {
	// Buffer is the compressed video content.
	Buffer []byte
	// OriginalSizeMB is the input size in megabytes.
	OriginalSizeMB float64
	// CompressedSizeMB is the output size in megabytes.
	CompressedSizeMB float64
	// CompressionRatio is (original - compressed) / original for the two
	// measured sizes. Negative when the heuristic bitrate overshoots.
	CompressionRatio float64
}

// Stream is the lazy, finite sequence of progress events produced by one
// compression run, terminating in a final result or error. Events are
// best-effort: a consumer that falls behind misses bursts rather than
// stalling the encoder. Abandoning the run is done through the context
// passed to Start; the engine still reaps its temporary files.
type Stream struct {
	events chan Event
	done   chan struct{}
	result *Result
	err    error
}

// Events returns the progress event channel. It is closed when the run ends.
func (s *Stream) Events() <-chan Event {
	return s.events
}

// Wait blocks until the run finishes and returns the final result or error.
func (s *Stream) Wait() (*Result, error) {
	<-s.done
	return s.result, s.err
}

// DurationProber inspects a media file's duration. Satisfied by
// media.Processor.
type DurationProber interface {
	ProbeDuration(ctx context.Context, path string) (float64, error)
}

// Engine owns the compression policy: quality tiers, bitrate estimation and
// temporary file lifecycle. The actual encode is delegated to a Transcoder.
type Engine struct {
	transcoder Transcoder
	prober     DurationProber
	tempDir    string
	logger     *slog.Logger
}

// NewEngine creates an Engine. If tempDir is empty, the OS temp directory
// is used. If logger is nil, slog.Default() is used.
func NewEngine(transcoder Transcoder, prober DurationProber, tempDir string, logger *slog.Logger) *Engine {
	if tempDir == "" {
		tempDir = os.TempDir()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		transcoder: transcoder,
		prober:     prober,
		tempDir:    tempDir,
		logger:     logger,
	}
}

// Start begins a compression run and returns its progress stream.
// The run is independent of any other: temporary file names carry a
// timestamp and random suffix so concurrent runs never collide.
func (e *Engine) Start(ctx context.Context, input []byte, opts Options) *Stream {
	s := &Stream{
		events: make(chan Event, 16),
		done:   make(chan struct{}),
	}
	go e.run(ctx, input, opts.withDefaults(), s)
	return s
}

// Compress runs a compression to completion, discarding progress events.
func (e *Engine) Compress(ctx context.Context, input []byte, opts Options) (*Result, error) {
	s := e.Start(ctx, input, opts)
	for range s.Events() {
		// Drain; Wait returns after the channel closes.
	}
	return s.Wait()
}

func (e *Engine) run(ctx context.Context, input []byte, opts Options, s *Stream) {
	var (
		result *Result
		err    error
	)
	defer func() {
		s.result = result
		s.err = err
		close(s.events)
		close(s.done)
	}()

	if len(input) == 0 {
		err = ErrEmptyInput
		return
	}

	if mkErr := os.MkdirAll(e.tempDir, 0750); mkErr != nil {
		err = fmt.Errorf("create temp directory: %w", mkErr)
		return
	}

	base := tempBaseName()
	inPath := filepath.Join(e.tempDir, base+"-in.mp4")
	outPath := filepath.Join(e.tempDir, base+"-out.mp4")

	// Both files are removed whether the run succeeds or fails.
	defer func() {
		_ = os.Remove(inPath)
		_ = os.Remove(outPath)
	}()

	if wErr := os.WriteFile(inPath, input, 0600); wErr != nil {
		err = fmt.Errorf("write temp input: %w", wErr)
		return
	}

	s.emit(Event{Status: "compressing", Progress: 0, Message: "starting compression"})

	duration, probeErr := e.prober.ProbeDuration(ctx, inPath)
	if probeErr != nil {
		// Fall back to the conservative default duration for the estimate.
		e.logger.Debug("duration probe failed, using default",
			slog.String("error", probeErr.Error()),
		)
		duration = 0
	}

	spec := EncodeSpec{
		Preset:          opts.Quality.Preset(),
		CRF:             opts.Quality.CRF(),
		MaxBitrateKbps:  TargetBitrateKbps(opts.TargetSizeMB, duration),
		MaxWidth:        opts.MaxWidth,
		MaxHeight:       opts.MaxHeight,
		FPS:             opts.FPS,
		RemoveAudio:     opts.RemoveAudio,
		DurationSeconds: duration,
	}

	fractions := make(chan float64, 16)
	forwarded := make(chan struct{})
	go func() {
		defer close(forwarded)
		// Coalesce fraction bursts into whole-percent steps.
		last := 0
		for frac := range fractions {
			pct := int(frac * 100)
			if pct <= last {
				continue
			}
			last = pct
			s.emit(Event{
				Status:   "compressing",
				Progress: pct,
				Message:  fmt.Sprintf("compressing video: %d%%", pct),
			})
		}
	}()

	encodeErr := e.transcoder.Encode(ctx, inPath, outPath, spec, fractions)
	close(fractions)
	<-forwarded

	if encodeErr != nil {
		err = fmt.Errorf("transcode: %w", encodeErr)
		return
	}

	output, readErr := os.ReadFile(outPath) // #nosec G304 - path is engine-generated
	if readErr != nil {
		err = fmt.Errorf("read temp output: %w", readErr)
		return
	}

	originalMB := float64(len(input)) / (1024 * 1024)
	compressedMB := float64(len(output)) / (1024 * 1024)
	ratio := (float64(len(input)) - float64(len(output))) / float64(len(input))

	s.emit(Event{Status: "compressing", Progress: 100, Message: "compression complete"})

	e.logger.Info("video compressed",
		slog.Float64("original_mb", originalMB),
		slog.Float64("compressed_mb", compressedMB),
		slog.Float64("ratio", ratio),
		slog.String("preset", spec.Preset),
		slog.Int("crf", spec.CRF),
	)

	result = &Result{
		Buffer:           output,
		OriginalSizeMB:   originalMB,
		CompressedSizeMB: compressedMB,
		CompressionRatio: ratio,
	}
}

// emit is a non-blocking best-effort send.
func (s *Stream) emit(ev Event) {
	select {
	case s.events <- ev:
	default:
	}
}

// tempBaseName builds a unique temp file stem from a timestamp and random
// suffix so concurrent compressions never share files.
func tempBaseName() string {
	suffix := make([]byte, 4)
	if _, err := rand.Read(suffix); err != nil {
		return fmt.Sprintf("compress-%d", time.Now().UnixNano())
	}
	return fmt.Sprintf("compress-%d-%s", time.Now().UnixNano(), hex.EncodeToString(suffix))
}
