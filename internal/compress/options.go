package compress

// Quality selects the encoder speed/quality tradeoff tier.
type Quality string

const (
	// QualityLow favors encode speed over output quality.
	QualityLow Quality = "low"
	// QualityMedium is the default balance.
	QualityMedium Quality = "medium"
	// QualityHigh favors output quality at slower encode speed.
	QualityHigh Quality = "high"
)

// Preset returns the x264 preset for the tier. Unknown tiers map to medium.
func (q Quality) Preset() string {
	switch q {
	case QualityLow:
		return "ultrafast"
	case QualityHigh:
		return "medium"
	default:
		return "fast"
	}
}

// CRF returns the constant rate factor for the tier. Unknown tiers map to medium.
func (q Quality) CRF() int {
	switch q {
	case QualityLow:
		return 28
	case QualityHigh:
		return 18
	default:
		return 23
	}
}

// Normalize maps unknown tiers to QualityMedium.
func (q Quality) Normalize() Quality {
	switch q {
	case QualityLow, QualityMedium, QualityHigh:
		return q
	default:
		return QualityMedium
	}
}

// Defaults applied by Options.withDefaults.
const (
	DefaultTargetSizeMB = 50
	DefaultMaxWidth     = 1920
	DefaultMaxHeight    = 1080
	DefaultFPS          = 30

	// AudioBitrateKbps is the fixed re-encode bitrate when audio is kept.
	AudioBitrateKbps = 128

	// MinBitrateKbps is the floor for the estimated video bitrate.
	MinBitrateKbps = 500

	// defaultDurationSeconds is the conservative duration assumption used
	// for the bitrate estimate when probing fails.
	defaultDurationSeconds = 60
)

// Options control a single compression run.
type Options struct {
	// TargetSizeMB is the desired output size. The bitrate estimate derived
	// from it is a heuristic; actual output can overshoot.
	TargetSizeMB int
	// Quality selects the preset/CRF tier.
	Quality Quality
	// RemoveAudio strips the audio stream entirely when true.
	RemoveAudio bool
	// MaxWidth and MaxHeight bound the output resolution. Aspect ratio is
	// preserved and the input is never upscaled.
	MaxWidth  int
	MaxHeight int
	// FPS is the fixed output frame rate.
	FPS int
}

func (o Options) withDefaults() Options {
	if o.TargetSizeMB <= 0 {
		o.TargetSizeMB = DefaultTargetSizeMB
	}
	o.Quality = o.Quality.Normalize()
	if o.MaxWidth <= 0 {
		o.MaxWidth = DefaultMaxWidth
	}
	if o.MaxHeight <= 0 {
		o.MaxHeight = DefaultMaxHeight
	}
	if o.FPS <= 0 {
		o.FPS = DefaultFPS
	}
	return o
}

// TargetBitrateKbps estimates the video bitrate needed to land near the
// target size for the given duration. Durations at or below zero fall back
// to the conservative default assumption.
func TargetBitrateKbps(targetSizeMB int, durationSeconds float64) int {
	if durationSeconds <= 0 {
		durationSeconds = defaultDurationSeconds
	}
	kbps := int(float64(targetSizeMB) * 8 * 1024 * 1024 / durationSeconds / 1000)
	if kbps < MinBitrateKbps {
		return MinBitrateKbps
	}
	return kbps
}
