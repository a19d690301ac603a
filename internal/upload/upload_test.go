package upload

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name        string
		filename    string
		contentType string
		want        MediaType
		ok          bool
	}{
		{"jpeg by extension", "portrait.jpg", "image/jpeg", TypeImage, true},
		{"png uppercase extension", "LOGO.PNG", "image/png", TypeImage, true},
		{"mp4 by extension", "reel.mp4", "video/mp4", TypeVideo, true},
		{"webm by extension", "clip.webm", "video/webm", TypeVideo, true},
		{"extension wins over mime", "photo.jpg", "application/octet-stream", TypeImage, true},
		{"mime fallback image", "upload.bin", "image/png", TypeImage, true},
		{"mime fallback video", "upload.bin", "video/mp4", TypeVideo, true},
		{"unknown both", "notes.txt", "text/plain", "", false},
		{"no extension no mime", "README", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Classify(tt.filename, tt.contentType)
			require.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNeedsCompression(t *testing.T) {
	threshold := 50

	assert.False(t, NeedsCompression(0, threshold))
	assert.False(t, NeedsCompression(30<<20, threshold))
	assert.False(t, NeedsCompression(50<<20, threshold)) // exactly at threshold
	assert.True(t, NeedsCompression(50<<20+1, threshold))
	assert.True(t, NeedsCompression(200<<20, threshold))
}

func TestLimitFor(t *testing.T) {
	assert.Equal(t, MaxImageBytes, LimitFor(ClassImage))
	assert.Equal(t, MaxVideoBytes, LimitFor(ClassVideo))
	// Mixed endpoints apply the video limit to either type.
	assert.Equal(t, MaxVideoBytes, LimitFor(ClassMixed))
}

func TestAllowedExtensions(t *testing.T) {
	assert.Equal(t, []string{"gif", "jpeg", "jpg", "png", "webp"}, AllowedExtensions(ClassImage))
	assert.Equal(t, []string{"avi", "flv", "mov", "mp4", "webm", "wmv"}, AllowedExtensions(ClassVideo))
	assert.Len(t, AllowedExtensions(ClassMixed), 11)
}

func TestValidateExtensionAndMimeMustAgree(t *testing.T) {
	// Video extension with image MIME type is rejected even on mixed
	// endpoints: a mismatch means the client is lying about one of them.
	_, err := validate("clip.mp4", "image/jpeg", ClassMixed)
	require.NotNil(t, err)
	assert.Equal(t, CodeInvalidFileType, err.Code)

	_, err = validate("photo.jpg", "video/mp4", ClassMixed)
	require.NotNil(t, err)
	assert.Equal(t, CodeInvalidFileType, err.Code)
}

func TestValidateClassRules(t *testing.T) {
	mt, err := validate("photo.jpg", "image/jpeg", ClassImage)
	require.Nil(t, err)
	assert.Equal(t, TypeImage, mt)

	_, err = validate("clip.mp4", "video/mp4", ClassImage)
	require.NotNil(t, err)
	assert.Equal(t, CodeInvalidFileType, err.Code)
	assert.Equal(t, AllowedExtensions(ClassImage), err.AllowedTypes)

	_, err = validate("photo.jpg", "image/jpeg", ClassVideo)
	require.NotNil(t, err)

	mt, err = validate("clip.mov", "video/quicktime", ClassMixed)
	require.Nil(t, err)
	assert.Equal(t, TypeVideo, mt)
}
