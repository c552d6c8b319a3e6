package layout

import (
	"strings"

	"github.com/matzehuels/imagecombiner/pkg/errors"
)

// Orientation is the direction images are concatenated in.
type Orientation string

// Supported orientations.
const (
	Row    Orientation = "row"
	Column Orientation = "column"
)

// Alignment is the cross-axis placement policy.
type Alignment string

// Supported alignments.
const (
	Start  Alignment = "start"
	Center Alignment = "center"
	End    Alignment = "end"
)

// Default settings, matching a fresh session: side by side, centered, no gap.
const (
	DefaultOrientation = Row
	DefaultAlignment   = Center
	DefaultGap         = 0
)

// Settings controls how a sequence is laid out.
type Settings struct {
	Orientation Orientation `json:"orientation" toml:"orientation"`
	Alignment   Alignment   `json:"alignment" toml:"alignment"`
	Gap         int         `json:"gap" toml:"gap"`
}

// DefaultSettings returns the settings used when nothing is configured.
func DefaultSettings() Settings {
	return Settings{
		Orientation: DefaultOrientation,
		Alignment:   DefaultAlignment,
		Gap:         DefaultGap,
	}
}

// WithDefaults fills empty fields from DefaultSettings.
func (s Settings) WithDefaults() Settings {
	if s.Orientation == "" {
		s.Orientation = DefaultOrientation
	}
	if s.Alignment == "" {
		s.Alignment = DefaultAlignment
	}
	return s
}

// Validate checks orientation, alignment and gap bounds.
func (s Settings) Validate() error {
	switch s.Orientation {
	case Row, Column:
	default:
		return errors.New(errors.ErrCodeInvalidLayout, "invalid orientation: %q (must be one of: row, column)", s.Orientation)
	}
	switch s.Alignment {
	case Start, Center, End:
	default:
		return errors.New(errors.ErrCodeInvalidLayout, "invalid alignment: %q (must be one of: start, center, end)", s.Alignment)
	}
	return errors.ValidateGap(s.Gap)
}

// ParseOrientation accepts "row"/"column" and the UI labels "horizontal"/"vertical".
func ParseOrientation(s string) (Orientation, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "row", "horizontal", "h":
		return Row, nil
	case "column", "col", "vertical", "v":
		return Column, nil
	}
	return "", errors.New(errors.ErrCodeInvalidLayout, "invalid orientation: %q (must be one of: row, column)", s)
}

// ParseAlignment accepts start/center/end and normalizes the
// orientation-specific labels (top/left -> start, bottom/right -> end).
func ParseAlignment(s string) (Alignment, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "start", "top", "left":
		return Start, nil
	case "center", "centre", "middle":
		return Center, nil
	case "end", "bottom", "right":
		return End, nil
	}
	return "", errors.New(errors.ErrCodeInvalidLayout, "invalid alignment: %q (must be one of: start, center, end)", s)
}

// Label returns the orientation-specific name of an alignment,
// e.g. "top" for Start in a row.
func (a Alignment) Label(o Orientation) string {
	switch {
	case a == Start && o == Row:
		return "top"
	case a == Start:
		return "left"
	case a == End && o == Row:
		return "bottom"
	case a == End:
		return "right"
	}
	return string(a)
}

// Next cycles start -> center -> end -> start.
func (a Alignment) Next() Alignment {
	switch a {
	case Start:
		return Center
	case Center:
		return End
	default:
		return Start
	}
}

// Toggle flips between Row and Column.
func (o Orientation) Toggle() Orientation {
	if o == Column {
		return Row
	}
	return Column
}
