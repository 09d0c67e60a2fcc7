// Package mode tracks whether the calculator runs in standard or scientific
// mode. The mode only decides which keys are offered and what is sent to
// the evaluator; it never changes how the expression buffer behaves.
package mode

import (
	"strings"

	"github.com/conneroisu/abacus/internal/errors"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Mode is the evaluation mode.
type Mode string

const (
	Standard   Mode = "standard"
	Scientific Mode = "scientific"
)

// Default is the mode used when nothing has been persisted.
const Default = Standard

var titleCaser = cases.Title(language.English)

// Parse converts a persisted or user supplied value into a Mode.
func Parse(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case Standard:
		return Standard, nil
	case Scientific:
		return Scientific, nil
	default:
		return Default, errors.NewValidationError(errors.ErrCodeInvalidMode, "unknown mode: "+s).
			WithContext("mode", s)
	}
}

// Normalize maps any value onto a valid mode, falling back to Default.
func Normalize(s string) Mode {
	m, err := Parse(s)
	if err != nil {
		return Default
	}
	return m
}

// String returns the wire value.
func (m Mode) String() string {
	return string(m)
}

// Label returns the human readable name, e.g. "Scientific".
func (m Mode) Label() string {
	return titleCaser.String(string(m))
}

// IsScientific reports whether scientific keys should be offered.
func (m Mode) IsScientific() bool {
	return m == Scientific
}

// Other returns the opposite mode.
func (m Mode) Other() Mode {
	if m == Scientific {
		return Standard
	}
	return Scientific
}

// AnnounceMessage is the status shown right after switching to m.
func (m Mode) AnnounceMessage() string {
	return m.Label() + " mode ON"
}
