package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeS3 is a minimal S3-compatible endpoint recording requests.
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
	ctypes  map[string]string
	reqs    []string
}

func newFakeS3() *fakeS3 {
	return &fakeS3{
		objects: make(map[string][]byte),
		ctypes:  make(map[string]string),
	}
}

func (f *fakeS3) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Path-style addressing: /bucket/key...
		key := strings.TrimPrefix(r.URL.Path, "/test-bucket/")

		f.mu.Lock()
		f.reqs = append(f.reqs, r.Method+" "+key)
		f.mu.Unlock()

		switch r.Method {
		case http.MethodPut:
			body, _ := io.ReadAll(r.Body)
			f.mu.Lock()
			f.objects[key] = body
			f.ctypes[key] = r.Header.Get("Content-Type")
			f.mu.Unlock()
			w.WriteHeader(http.StatusOK)

		case http.MethodHead:
			f.mu.Lock()
			_, ok := f.objects[key]
			f.mu.Unlock()
			if !ok {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			w.WriteHeader(http.StatusOK)

		case http.MethodDelete:
			f.mu.Lock()
			_, ok := f.objects[key]
			delete(f.objects, key)
			f.mu.Unlock()
			if !ok {
				// Surface the missing key instead of S3's usual blind 204 so
				// the idempotency path is actually exercised.
				w.Header().Set("Content-Type", "application/xml")
				w.WriteHeader(http.StatusNotFound)
				_, _ = w.Write([]byte(`<?xml version="1.0"?><Error><Code>NoSuchKey</Code><Message>not found</Message></Error>`))
				return
			}
			w.WriteHeader(http.StatusNoContent)

		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})
}

func (f *fakeS3) requestCount(prefix string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, req := range f.reqs {
		if strings.HasPrefix(req, prefix) {
			n++
		}
	}
	return n
}

func newTestStore(t *testing.T, fake *fakeS3, publicBaseURL string) *S3Store {
	t.Helper()
	srv := httptest.NewServer(fake.handler())
	t.Cleanup(srv.Close)

	store, err := NewS3Store(S3Config{
		Bucket:          "test-bucket",
		Region:          "eu-west-1",
		Endpoint:        srv.URL,
		AccessKeyID:     "test-key",
		SecretAccessKey: "test-secret",
		PublicBaseURL:   publicBaseURL,
	})
	require.NoError(t, err)
	return store
}

func TestUploadStoresObjectUnderFolder(t *testing.T) {
	fake := newFakeS3()
	store := newTestStore(t, fake, "https://cdn.example")

	asset, err := store.Upload(context.Background(), "homepage", "hero.MP4", []byte("video-bytes"), "video/mp4")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(asset.PublicID, "homepage/"), "key %q not under folder", asset.PublicID)
	assert.True(t, strings.HasSuffix(asset.PublicID, ".mp4"), "extension not preserved lowercase: %q", asset.PublicID)
	assert.Equal(t, "https://cdn.example/"+asset.PublicID, asset.URL)
	assert.Equal(t, "video", asset.MediaType)
	assert.Equal(t, int64(len("video-bytes")), asset.SizeBytes)

	fake.mu.Lock()
	defer fake.mu.Unlock()
	assert.Equal(t, []byte("video-bytes"), fake.objects[asset.PublicID])
	assert.Equal(t, "video/mp4", fake.ctypes[asset.PublicID])
}

func TestUploadDefaultPublicURL(t *testing.T) {
	fake := newFakeS3()
	store := newTestStore(t, fake, "")

	asset, err := store.Upload(context.Background(), "team", "portrait.jpg", []byte("jpeg"), "image/jpeg")
	require.NoError(t, err)

	assert.Equal(t, "https://test-bucket.s3.eu-west-1.amazonaws.com/"+asset.PublicID, asset.URL)
	assert.Equal(t, "image", asset.MediaType)
}

func TestConcurrentUploadsNeverCollide(t *testing.T) {
	fake := newFakeS3()
	store := newTestStore(t, fake, "")

	const n = 10
	keys := make(chan string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			asset, err := store.Upload(context.Background(), "portfolio", "same-name.jpg", []byte("x"), "image/jpeg")
			assert.NoError(t, err)
			keys <- asset.PublicID
		}()
	}
	wg.Wait()
	close(keys)

	seen := make(map[string]bool)
	for key := range keys {
		assert.False(t, seen[key], "duplicate key %q", key)
		seen[key] = true
	}
}

func TestDeleteIsIdempotent(t *testing.T) {
	fake := newFakeS3()
	store := newTestStore(t, fake, "")

	asset, err := store.Upload(context.Background(), "homepage", "hero.jpg", []byte("jpeg"), "image/jpeg")
	require.NoError(t, err)

	require.NoError(t, store.Delete(context.Background(), asset.PublicID))
	// Second delete of the same key must also succeed.
	require.NoError(t, store.Delete(context.Background(), asset.PublicID))
}

func TestEnsureFolderCreatesMarkerOnce(t *testing.T) {
	fake := newFakeS3()
	store := newTestStore(t, fake, "")

	require.NoError(t, store.EnsureFolder(context.Background(), "portfolio"))
	assert.Equal(t, 1, fake.requestCount("PUT portfolio/"))

	// Cached after the first ensure; no further requests.
	require.NoError(t, store.EnsureFolder(context.Background(), "portfolio"))
	require.NoError(t, store.EnsureFolder(context.Background(), "portfolio/"))
	assert.Equal(t, 1, fake.requestCount("PUT portfolio/"))
	assert.Equal(t, 1, fake.requestCount("HEAD portfolio/"))
}

func TestEnsureFolderSkipsExistingMarker(t *testing.T) {
	fake := newFakeS3()
	fake.objects["portfolio/"] = nil
	store := newTestStore(t, fake, "")

	require.NoError(t, store.EnsureFolder(context.Background(), "portfolio"))
	assert.Equal(t, 0, fake.requestCount("PUT portfolio/"))
}

func TestEnsureFolderEmptyIsNoOp(t *testing.T) {
	fake := newFakeS3()
	store := newTestStore(t, fake, "")

	require.NoError(t, store.EnsureFolder(context.Background(), ""))
	assert.Empty(t, fake.reqs)
}
