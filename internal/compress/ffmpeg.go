package compress

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"

	"os/exec"

	"github.com/lumenframe/studio-api/internal/media"
)

// FFmpegTranscoder implements Transcoder using the ffmpeg CLI.
type FFmpegTranscoder struct {
	ffmpegPath string
}

// NewFFmpegTranscoder creates a new FFmpegTranscoder.
// If ffmpegPath is empty, it defaults to "ffmpeg" (found via PATH).
func NewFFmpegTranscoder(ffmpegPath string) *FFmpegTranscoder {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	return &FFmpegTranscoder{ffmpegPath: ffmpegPath}
}

// Encode runs ffmpeg with the resolved spec, streaming completion fractions
// parsed from the machine-readable progress output on stdout.
func (t *FFmpegTranscoder) Encode(ctx context.Context, inputPath, outputPath string, spec EncodeSpec, progress chan<- float64) error {
	args := buildEncodeArgs(inputPath, outputPath, spec)

	// #nosec G204 - ffmpegPath is set by the application, not user input
	cmd := exec.CommandContext(ctx, t.ffmpegPath, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("attach ffmpeg stdout: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start ffmpeg: %w", err)
	}

	// -progress emits key=value lines on stdout while encoding.
	scanner := bufio.NewScanner(stdout)
	for scanner.Scan() {
		if frac, ok := parseProgressLine(scanner.Text(), spec.DurationSeconds); ok && progress != nil {
			select {
			case progress <- frac:
			default: // Best-effort; never stall the encoder on a slow consumer.
			}
		}
	}

	if err := cmd.Wait(); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("ffmpeg cancelled: %w", ctx.Err())
		}
		return &media.FFmpegError{
			Args:   args,
			Stderr: stderr.String(),
			Err:    err,
		}
	}

	return nil
}

// buildEncodeArgs translates an EncodeSpec into the fixed ffmpeg flag set:
// H.264, preset/CRF tier, capped bitrate with 2x buffer, scale-fit without
// upscaling, fixed frame rate, faststart for streaming, yuv420p for broad
// player compatibility.
func buildEncodeArgs(inputPath, outputPath string, spec EncodeSpec) []string {
	filter := fmt.Sprintf(
		"scale='min(%d,iw)':'min(%d,ih)':force_original_aspect_ratio=decrease",
		spec.MaxWidth, spec.MaxHeight,
	)

	args := []string{
		"-y",
		"-i", inputPath,
		"-c:v", "libx264",
		"-preset", spec.Preset,
		"-crf", strconv.Itoa(spec.CRF),
		"-maxrate", fmt.Sprintf("%dk", spec.MaxBitrateKbps),
		"-bufsize", fmt.Sprintf("%dk", spec.MaxBitrateKbps*2),
		"-vf", filter,
		"-r", strconv.Itoa(spec.FPS),
		"-pix_fmt", "yuv420p",
		"-movflags", "+faststart",
	}

	if spec.RemoveAudio {
		args = append(args, "-an")
	} else {
		args = append(args, "-c:a", "aac", "-b:a", fmt.Sprintf("%dk", AudioBitrateKbps))
	}

	args = append(args,
		"-progress", "pipe:1",
		"-nostats",
		outputPath,
	)

	return args
}

// parseProgressLine extracts a completion fraction from one -progress line.
// ffmpeg reports out_time_us in microseconds; out_time_ms is accepted as a
// fallback and, despite its name, also carries microseconds.
func parseProgressLine(line string, durationSeconds float64) (float64, bool) {
	if durationSeconds <= 0 {
		return 0, false
	}

	key, value, found := strings.Cut(strings.TrimSpace(line), "=")
	if !found {
		return 0, false
	}
	if key != "out_time_us" && key != "out_time_ms" {
		return 0, false
	}

	us, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil || us < 0 {
		return 0, false
	}

	frac := (float64(us) / 1e6) / durationSeconds
	if frac < 0 {
		frac = 0
	}
	if frac > 1 {
		frac = 1
	}
	return frac, true
}

// Verify interface implementation at compile time.
var _ Transcoder = (*FFmpegTranscoder)(nil)
