package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// Static errors for media operations.
var (
	// ErrInvalidDimensions is returned when the provided dimensions are not positive.
	ErrInvalidDimensions = errors.New("invalid dimensions: width and height must be positive")
	// ErrFFprobeExecution is returned when ffprobe command fails.
	ErrFFprobeExecution = errors.New("ffprobe execution failed")
)

// FFmpegProcessor implements Processor using the ffmpeg CLI.
type FFmpegProcessor struct {
	// ffmpegPath is the path to the ffmpeg binary. Defaults to "ffmpeg".
	ffmpegPath string
	// ffprobePath is the path to the ffprobe binary. Defaults to "ffprobe".
	ffprobePath string
}

// NewFFmpegProcessor creates a new FFmpegProcessor.
// If ffmpegPath is empty, it defaults to "ffmpeg" (found via PATH);
// ffprobe is resolved the same way.
func NewFFmpegProcessor(ffmpegPath string) *FFmpegProcessor {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	return &FFmpegProcessor{ffmpegPath: ffmpegPath, ffprobePath: "ffprobe"}
}

// ResizeImage scales an image to fit within maxW x maxH while maintaining
// aspect ratio. Images already within bounds are recompressed but not
// enlarged. Output quality targets visually lossless web delivery.
func (p *FFmpegProcessor) ResizeImage(ctx context.Context, src, dst string, maxW, maxH int) error {
	if maxW <= 0 || maxH <= 0 {
		return fmt.Errorf("%w: width=%d, height=%d", ErrInvalidDimensions, maxW, maxH)
	}

	// scale with force_original_aspect_ratio=decrease fits inside the box;
	// min() against the input dimensions prevents upscaling.
	filter := fmt.Sprintf(
		"scale='min(%d,iw)':'min(%d,ih)':force_original_aspect_ratio=decrease",
		maxW, maxH,
	)

	args := []string{
		"-y",      // Overwrite output file without asking
		"-i", src, // Input file
		"-vf", filter, // Scale filter
		"-frames:v", "1", // Output single frame (image)
		"-q:v", "4", // JPEG quality, roughly 80-85 on the 0-100 scale
		dst, // Output file
	}

	return p.runFFmpeg(ctx, args)
}

// ProbeDuration returns the duration in seconds of a media file.
// It uses ffprobe to extract the duration metadata.
func (p *FFmpegProcessor) ProbeDuration(ctx context.Context, path string) (float64, error) {
	// #nosec G204 - ffprobePath is set by the application, not user input
	cmd := exec.CommandContext(ctx, p.ffprobePath,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil {
		if ctx.Err() != nil {
			return 0, fmt.Errorf("ffprobe cancelled: %w", ctx.Err())
		}
		return 0, fmt.Errorf("%w: %w, stderr: %s", ErrFFprobeExecution, err, stderr.String())
	}

	var duration float64
	_, err = fmt.Sscanf(strings.TrimSpace(stdout.String()), "%f", &duration)
	if err != nil {
		return 0, fmt.Errorf("parse duration: %w", err)
	}

	return duration, nil
}

// runFFmpeg executes ffmpeg with the given arguments and returns an error
// containing stderr output if the command fails.
func (p *FFmpegProcessor) runFFmpeg(ctx context.Context, args []string) error {
	// #nosec G204 - ffmpegPath is set by the application, not user input
	cmd := exec.CommandContext(ctx, p.ffmpegPath, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil {
		// Check if context was cancelled
		if ctx.Err() != nil {
			return fmt.Errorf("ffmpeg cancelled: %w", ctx.Err())
		}
		return &FFmpegError{
			Args:   args,
			Stderr: stderr.String(),
			Err:    err,
		}
	}

	return nil
}

// FFmpegError represents an error from running ffmpeg, including the stderr output.
type FFmpegError struct {
	Args   []string
	Stderr string
	Err    error
}

func (e *FFmpegError) Error() string {
	return fmt.Sprintf("ffmpeg error: %v\nargs: %v\nstderr: %s", e.Err, e.Args, e.Stderr)
}

func (e *FFmpegError) Unwrap() error {
	return e.Err
}

// Verify interface implementation at compile time.
var _ Processor = (*FFmpegProcessor)(nil)
