// Package compress transcodes oversized video buffers toward a target size
// while preserving acceptable visual quality. The transcoding tool operates
// on files, not in-memory streams, so each run writes the input to a scoped
// temporary file and guarantees cleanup on success and failure alike.
package compress

import "context"

// EncodeSpec is the fully resolved parameter set handed to a Transcoder.
// Policy (quality tiers, bitrate estimation) lives in the Engine; the
// Transcoder only executes.
type EncodeSpec struct {
	// Preset is the encoder speed/efficiency preset.
	Preset string
	// CRF is the constant rate factor.
	CRF int
	// MaxBitrateKbps caps the video bitrate; buffer size is 2x this value.
	MaxBitrateKbps int
	// MaxWidth and MaxHeight bound the output, preserving aspect ratio
	// without upscaling.
	MaxWidth  int
	MaxHeight int
	// FPS is the fixed output frame rate.
	FPS int
	// RemoveAudio strips the audio stream; otherwise audio is re-encoded
	// at AudioBitrateKbps.
	RemoveAudio bool
	// DurationSeconds is the probed input duration, used to turn encoder
	// timestamps into completion fractions. Zero disables fraction reporting.
	DurationSeconds float64
}

// Transcoder executes a single encode from inputPath to outputPath.
// Implementations report fractional completion (0..1) on progress when it is
// non-nil; sends must never block. An alternate backend (hardware encoder,
// cloud transcoding API) can be substituted without touching Engine policy.
type Transcoder interface {
	Encode(ctx context.Context, inputPath, outputPath string, spec EncodeSpec, progress chan<- float64) error
}
