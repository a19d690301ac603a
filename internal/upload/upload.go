// Package upload accepts multipart file payloads into memory and decides how
// each file should be handled. It enforces per-class size limits and type
// allow-lists before any processing or storage is attempted.
package upload

import (
	"fmt"
	"net/http"
	"path/filepath"
	"sort"
	"strings"
)

// Class identifies which validation rules apply to an endpoint's file field.
type Class string

const (
	// ClassImage accepts image files only, up to MaxImageBytes.
	ClassImage Class = "image"
	// ClassVideo accepts video files only, up to MaxVideoBytes.
	ClassVideo Class = "video"
	// ClassMixed accepts images and videos, both up to MaxVideoBytes.
	ClassMixed Class = "mixed"
)

// MediaType is the handling path decided for an accepted file.
type MediaType string

const (
	// TypeImage routes the file through the image resize pass.
	TypeImage MediaType = "image"
	// TypeVideo routes the file through the video pipeline.
	TypeVideo MediaType = "video"
)

// Size and count limits per request.
const (
	// MaxImageBytes is the upper bound for image uploads (50MB).
	MaxImageBytes int64 = 50 << 20
	// MaxVideoBytes is the upper bound for video uploads (500MB).
	MaxVideoBytes int64 = 500 << 20
	// MaxFilesPerRequest caps bulk endpoints.
	MaxFilesPerRequest = 10
)

// Error codes reported to clients.
const (
	CodeFileTooLarge    = "FILE_TOO_LARGE"
	CodeTooManyFiles    = "TOO_MANY_FILES"
	CodeInvalidFileType = "INVALID_FILE_TYPE"
	CodeUnexpectedFile  = "UNEXPECTED_FILE"
)

var imageExtensions = map[string]bool{
	"jpeg": true, "jpg": true, "png": true, "gif": true, "webp": true,
}

var videoExtensions = map[string]bool{
	"mp4": true, "mov": true, "avi": true, "wmv": true, "flv": true, "webm": true,
}

// File is an accepted upload, fully buffered in memory.
type File struct {
	// Field is the multipart form field the file arrived on.
	Field string
	// Filename is the client-declared file name.
	Filename string
	// ContentType is the client-declared MIME type.
	ContentType string
	// Type is the classified handling path.
	Type MediaType
	// Data is the raw file content.
	Data []byte
}

// Size returns the buffered length in bytes.
func (f *File) Size() int64 {
	return int64(len(f.Data))
}

// Error is a client input rejection. It is always a 4xx, never fatal.
type Error struct {
	// Code is one of the Code* constants.
	Code string
	// Status is the HTTP status to report.
	Status int
	// Message is the human-readable explanation.
	Message string
	// MaxBytes is the violated limit for FILE_TOO_LARGE.
	MaxBytes int64
	// Class is the file class the limit applies to.
	Class Class
	// AllowedTypes lists accepted extensions for INVALID_FILE_TYPE.
	AllowedTypes []string
}

func (e *Error) Error() string {
	return fmt.Sprintf("upload rejected (%s): %s", e.Code, e.Message)
}

// Classify determines the handling path from the filename extension,
// falling back to the declared MIME type when the extension is unknown.
// The second return value is false for unrecognized files.
func Classify(filename, contentType string) (MediaType, bool) {
	ext := normalizeExt(filename)
	switch {
	case imageExtensions[ext]:
		return TypeImage, true
	case videoExtensions[ext]:
		return TypeVideo, true
	}
	switch {
	case strings.HasPrefix(contentType, "image/"):
		return TypeImage, true
	case strings.HasPrefix(contentType, "video/"):
		return TypeVideo, true
	}
	return "", false
}

// NeedsCompression reports whether a video buffer exceeds the configured
// compression threshold.
func NeedsCompression(sizeBytes int64, thresholdMB int) bool {
	return sizeBytes > int64(thresholdMB)*1024*1024
}

// LimitFor returns the byte limit that applies to a file of the given type
// under the given class. Mixed-class endpoints apply the video limit to
// either type.
func LimitFor(class Class) int64 {
	if class == ClassImage {
		return MaxImageBytes
	}
	return MaxVideoBytes
}

// AllowedExtensions returns the accepted extensions for a class, sorted.
func AllowedExtensions(class Class) []string {
	var exts []string
	if class == ClassImage || class == ClassMixed {
		for ext := range imageExtensions {
			exts = append(exts, ext)
		}
	}
	if class == ClassVideo || class == ClassMixed {
		for ext := range videoExtensions {
			exts = append(exts, ext)
		}
	}
	sort.Strings(exts)
	return exts
}

// validate checks a file's extension and declared MIME type against the
// class rules and returns its media type.
func validate(filename, contentType string, class Class) (MediaType, *Error) {
	invalid := func() *Error {
		return &Error{
			Code:         CodeInvalidFileType,
			Status:       http.StatusBadRequest,
			Message:      fmt.Sprintf("file type of %q is not allowed for %s uploads", filename, class),
			Class:        class,
			AllowedTypes: AllowedExtensions(class),
		}
	}

	ext := normalizeExt(filename)
	var extType MediaType
	switch {
	case imageExtensions[ext]:
		extType = TypeImage
	case videoExtensions[ext]:
		extType = TypeVideo
	default:
		return "", invalid()
	}

	// Extension and declared MIME type must agree.
	var mimeType MediaType
	switch {
	case strings.HasPrefix(contentType, "image/"):
		mimeType = TypeImage
	case strings.HasPrefix(contentType, "video/"):
		mimeType = TypeVideo
	default:
		return "", invalid()
	}
	if extType != mimeType {
		return "", invalid()
	}

	switch class {
	case ClassImage:
		if extType != TypeImage {
			return "", invalid()
		}
	case ClassVideo:
		if extType != TypeVideo {
			return "", invalid()
		}
	case ClassMixed:
		// Either type is acceptable.
	}

	return extType, nil
}

func normalizeExt(filename string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
}
