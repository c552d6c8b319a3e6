package errors

import (
	"strings"
	"unicode"
)

// Bounds shared by the layout and export settings.
const (
	MinGap     = 0
	MaxGap     = 100
	MinQuality = 0.1
	MaxQuality = 1.0

	// MaxDimension caps export sizes so a typo cannot allocate a huge canvas.
	MaxDimension = 1 << 15
)

// ValidateGap checks that a gap lies in [MinGap, MaxGap].
func ValidateGap(gap int) error {
	if gap < MinGap || gap > MaxGap {
		return New(ErrCodeInvalidLayout, "gap must be between %d and %d pixels, got %d", MinGap, MaxGap, gap)
	}
	return nil
}

// ValidateQuality checks that a quality factor lies in [MinQuality, MaxQuality].
func ValidateQuality(q float64) error {
	// NaN fails both comparisons, so test for the valid range instead.
	if !(q >= MinQuality && q <= MaxQuality) {
		return New(ErrCodeInvalidExport, "quality must be between %.1f and %.1f, got %v", MinQuality, MaxQuality, q)
	}
	return nil
}

// ValidateDimension checks an optional target dimension.
// Zero means "absent"; any other value must be a positive integer no larger than MaxDimension.
func ValidateDimension(name string, v int) error {
	if v < 0 {
		return New(ErrCodeInvalidExport, "%s must be a positive integer, got %d", name, v)
	}
	if v > MaxDimension {
		return New(ErrCodeInvalidExport, "%s too large (max %d), got %d", name, MaxDimension, v)
	}
	return nil
}

// ValidateExplicitDimension checks a dimension the caller set explicitly.
// Unlike ValidateDimension, zero is rejected.
func ValidateExplicitDimension(name string, v int) error {
	if v <= 0 {
		return New(ErrCodeInvalidExport, "%s must be a positive integer, got %d", name, v)
	}
	return ValidateDimension(name, v)
}

// ValidateIndex checks that index lies in [0, length).
func ValidateIndex(index, length int) error {
	if index < 0 || index >= length {
		return New(ErrCodeIndexOutOfRange, "index %d out of range [0, %d)", index, length)
	}
	return nil
}

// ValidateImageName validates the label attached to an uploaded or pasted image.
// Names are echoed back in responses and logs, so control characters and
// path components are rejected.
func ValidateImageName(name string) error {
	if name == "" {
		return nil
	}
	if len(name) > 256 {
		return New(ErrCodeInvalidInput, "image name too long (max 256 characters)")
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "image name contains invalid control characters")
		}
	}
	if strings.Contains(name, "..") || strings.ContainsAny(name, "/\\") {
		return New(ErrCodeInvalidInput, "image name cannot contain path components: %q", name)
	}
	return nil
}
