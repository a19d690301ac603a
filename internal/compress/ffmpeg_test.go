package compress

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func specForArgs() EncodeSpec {
	return EncodeSpec{
		Preset:          "fast",
		CRF:             23,
		MaxBitrateKbps:  4000,
		MaxWidth:        1920,
		MaxHeight:       1080,
		FPS:             30,
		DurationSeconds: 120,
	}
}

func TestBuildEncodeArgs(t *testing.T) {
	args := buildEncodeArgs("/tmp/in.mp4", "/tmp/out.mp4", specForArgs())

	joined := fmt.Sprintf("%v", args)
	assert.Contains(t, args, "libx264")
	assert.Contains(t, args, "fast")
	assert.Contains(t, args, "23")
	assert.Contains(t, args, "4000k")
	assert.Contains(t, args, "8000k") // bufsize is 2x maxrate
	assert.Contains(t, args, "scale='min(1920,iw)':'min(1080,ih)':force_original_aspect_ratio=decrease")
	assert.Contains(t, args, "yuv420p")
	assert.Contains(t, args, "+faststart")
	assert.Contains(t, joined, "-progress pipe:1")

	// Audio kept by default, re-encoded at the fixed bitrate.
	assert.Contains(t, args, "aac")
	assert.Contains(t, args, "128k")
	assert.NotContains(t, args, "-an")

	// Output path is last so it follows every option.
	assert.Equal(t, "/tmp/out.mp4", args[len(args)-1])
}

func TestBuildEncodeArgsRemoveAudio(t *testing.T) {
	spec := specForArgs()
	spec.RemoveAudio = true
	args := buildEncodeArgs("in.mp4", "out.mp4", spec)

	assert.Contains(t, args, "-an")
	assert.NotContains(t, args, "aac")
}

func TestParseProgressLine(t *testing.T) {
	tests := []struct {
		name     string
		line     string
		duration float64
		want     float64
		ok       bool
	}{
		{"out_time_us halfway", "out_time_us=60000000", 120, 0.5, true},
		{"out_time_ms is also microseconds", "out_time_ms=60000000", 120, 0.5, true},
		{"clamped at one", "out_time_us=500000000", 120, 1, true},
		{"other key ignored", "frame=250", 120, 0, false},
		{"end marker ignored", "progress=end", 120, 0, false},
		{"garbage value", "out_time_us=N/A", 120, 0, false},
		{"negative value", "out_time_us=-100", 120, 0, false},
		{"unknown duration", "out_time_us=60000000", 0, 0, false},
		{"blank line", "", 120, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frac, ok := parseProgressLine(tt.line, tt.duration)
			require.Equal(t, tt.ok, ok)
			if ok {
				assert.InDelta(t, tt.want, frac, 1e-9)
			}
		})
	}
}
