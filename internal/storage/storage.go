// Package storage persists final media buffers to a remote object store and
// produces stable URLs plus deletable identifiers.
package storage

import "context"

// Asset describes one stored media object. Its URL must always be resolvable
// on its own; upload sessions are advisory and never gate resolution.
type Asset struct {
	// PublicID is the object key and is sufficient on its own to issue a
	// delete against the store.
	PublicID string `json:"public_id"`
	// URL is the durable public URL.
	URL string `json:"url"`
	// ThumbnailURL is an optional preview URL.
	ThumbnailURL string `json:"thumbnail_url,omitempty"`
	// MediaType is "image" or "video".
	MediaType string `json:"media_type"`
	// SizeBytes is the stored object size.
	SizeBytes int64 `json:"size_bytes"`
	// DurationSeconds is set for videos when probing succeeded.
	DurationSeconds float64 `json:"duration_seconds,omitempty"`
}

// ObjectStore is the port for the remote object store.
type ObjectStore interface {
	// Upload stores a buffer under the given folder and returns the asset
	// descriptor. The destination folder is created on first use.
	Upload(ctx context.Context, folder, filename string, data []byte, contentType string) (*Asset, error)

	// Delete removes an object by its public ID. Deleting an object that is
	// already gone is a success (idempotent delete).
	Delete(ctx context.Context, publicID string) error

	// EnsureFolder makes sure the destination folder exists, tolerating
	// concurrent creation races.
	EnsureFolder(ctx context.Context, folder string) error
}
