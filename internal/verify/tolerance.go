package verify

import "strings"

// Tolerances holds the per-category comparison slack applied during
// verification. Pure value; build one via a preset and reuse it across a
// batch.
type Tolerances struct {
	DateSeconds     float64 `json:"date_seconds"`
	GPSDegrees      float64 `json:"gps_degrees"`
	DurationSeconds float64 `json:"duration_seconds"`
	NumericRelative float64 `json:"numeric_relative"` // fractional, 0.001 == 0.1%
}

// Altitude is compared in meters, not degrees, so it carries its own fixed
// tolerance regardless of the preset.
const altitudeToleranceMeters = 1.0

// AudioSampleRate/AudioBitsPerSample use a fixed 0.1% relative tolerance.
const audioNumericRelative = 0.001

// Strict demands exact matches on every field.
func Strict() Tolerances {
	return Tolerances{}
}

// Default allows the drift normally introduced by container rewrites:
// 1s on dates, ~0.1m on GPS, 0.1s of duration, 0.1% on other numerics.
func Default() Tolerances {
	return Tolerances{
		DateSeconds:     1.0,
		GPSDegrees:      0.000001,
		DurationSeconds: 0.1,
		NumericRelative: 0.001,
	}
}

// Relaxed tolerates lossier pipelines (timezone-less date rewrites, coarse
// GPS re-encodings).
func Relaxed() Tolerances {
	return Tolerances{
		DateSeconds:     60.0,
		GPSDegrees:      0.0001,
		DurationSeconds: 1.0,
		NumericRelative: 0.01,
	}
}

// Preset maps a configuration name to a tolerance set, falling back to
// Default for unknown names.
func Preset(name string) Tolerances {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "strict":
		return Strict()
	case "relaxed":
		return Relaxed()
	default:
		return Default()
	}
}
