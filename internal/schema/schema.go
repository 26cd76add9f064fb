// Package schema defines the file-format signatures and column conventions
// for every supported FRA instrument vendor.
//
// Each vendor ships measurement exports with its own extension set, header
// banner, and column naming. The detection and extraction code in
// internal/core consults these profiles instead of hard-coding per-vendor
// string literals.
package schema

import (
	"regexp"
	"strings"
)

// Profile describes how to recognize one vendor's export files.
type Profile struct {
	// Name is the parser identifier recorded in the import audit trail,
	// e.g. "omicron" or "generic_csv".
	Name string

	// Extensions are the lowercase file extensions (with dot) the vendor
	// uses for exports.
	Extensions []string

	// Magic lists lowercase substrings that, when found in the first few
	// KB of the file, identify the vendor (banner lines, device names).
	Magic []string

	// HeaderHints are lowercase column-header fragments specific enough
	// to identify the vendor even when extension and banner are missing.
	HeaderHints []string
}

// MatchesExtension reports whether ext (lowercase, with dot) belongs to
// this profile.
func (p Profile) MatchesExtension(ext string) bool {
	for _, e := range p.Extensions {
		if e == ext {
			return true
		}
	}
	return false
}

// MatchesMagic reports whether the lowercased file head contains any of
// the profile's magic substrings.
func (p Profile) MatchesMagic(head string) bool {
	for _, m := range p.Magic {
		if m != "" && strings.Contains(head, m) {
			return true
		}
	}
	return false
}

// MatchesHeader reports whether the lowercased file head contains any of
// the profile's vendor-specific column header fragments.
func (p Profile) MatchesHeader(head string) bool {
	for _, h := range p.HeaderHints {
		if h != "" && strings.Contains(head, h) {
			return true
		}
	}
	return false
}

// Column header patterns shared by all text extractors. Matching is done
// against a whole trimmed header cell, case-insensitively, tolerating
// whitespace, underscores, and unit suffixes like "(Hz)" or "[dB]".
var (
	// FreqHeader matches frequency column names: "Freq", "Frequency",
	// "Frequency (Hz)", "f [kHz]", etc.
	FreqHeader = regexp.MustCompile(`(?i)^(freq|frequency|f)[\s_]*[\(\[]?\s*(hz|khz|mhz)?\s*[\)\]]?$`)

	// MagHeader matches magnitude column names, with or without a unit
	// suffix: "Magnitude (dB)", "Gain", "Amplitude", "TF [dB]", etc.
	MagHeader = regexp.MustCompile(`(?i)^(mag|magnitude|amplitude|gain|tf|transfer[\s_]?function|impedance)[\s_]*[\(\[]?\s*(db|ratio|linear|v/v)?\s*[\)\]]?$`)

	// PhaseHeader matches phase column names: "Phase", "Phase (deg)",
	// "Angle [°]", etc.
	PhaseHeader = regexp.MustCompile(`(?i)^(phase|angle|arg)[\s_]*[\(\[]?\s*(deg|degrees|rad|\x{00b0})?\s*[\)\]]?$`)
)

// Unit annotation patterns, applied to a raw header line (not a single
// cell) to pick up frequency scale and magnitude unit conventions.
var (
	freqKilo  = regexp.MustCompile(`(?i)[\(\[]\s*khz\s*[\)\]]`)
	freqMega  = regexp.MustCompile(`(?i)[\(\[]\s*mhz\s*[\)\]]`)
	magLinear = regexp.MustCompile(`(?i)[\(\[]\s*(linear|ratio|v/v)\s*[\)\]]`)
	phaseRad  = regexp.MustCompile(`(?i)[\(\[]\s*rad\s*[\)\]]`)
)

// FrequencyScale returns the multiplier that converts the file's frequency
// unit to Hz, derived from unit annotations in the header line.
func FrequencyScale(headerLine string) float64 {
	switch {
	case freqMega.MatchString(headerLine):
		return 1e6
	case freqKilo.MatchString(headerLine):
		return 1e3
	default:
		return 1
	}
}

// MagnitudeIsLinear reports whether the header declares the magnitude
// column as a linear ratio rather than dB.
func MagnitudeIsLinear(headerLine string) bool {
	return magLinear.MatchString(headerLine)
}

// PhaseIsRadians reports whether the header declares the phase column in
// radians rather than degrees.
func PhaseIsRadians(headerLine string) bool {
	return phaseRad.MatchString(headerLine)
}
