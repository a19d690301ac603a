// Package media provides image processing and media probing capabilities.
package media

import "context"

// Processor defines the interface for image processing and media inspection.
// Implementations should use ffmpeg or similar tools for media manipulation.
type Processor interface {
	// ResizeImage scales an image to fit within maxW x maxH while maintaining
	// aspect ratio, never enlarging, and recompresses it for web delivery.
	// The source image is read from src and the result is written to dst.
	ResizeImage(ctx context.Context, src, dst string, maxW, maxH int) error

	// ProbeDuration returns the duration in seconds of a media file.
	ProbeDuration(ctx context.Context, path string) (float64, error)
}
