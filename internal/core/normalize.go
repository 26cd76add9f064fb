package core

// normalize.go converts extracted RawSeries into the canonical
// Measurement representation: Hz and dB units, strictly ascending
// duplicate-free frequencies, finite values only, and phase that is
// either complete or absent.
//
// Step order matters and is part of the contract:
//  1. unit conversion to Hz / dB / degrees
//  2. duplicate frequency removal (keep first occurrence)
//  3. non-finite row removal
//  4. ascending sort
//  5. reject if fewer than 2 rows remain
//
// Non-finite rows go before the sort: NaN compares false in both
// directions, so a NaN frequency would make an out-of-order series look
// sorted.

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"
)

// windingAliases maps the spellings seen in vendor files to the
// canonical winding configurations.
var windingAliases = map[string]WindingConfig{
	"hv-lv": WindingHVLV, "hv_lv": WindingHVLV, "h-l": WindingHVLV, "high-low": WindingHVLV,
	"hv-tv": WindingHVTV, "hv_tv": WindingHVTV, "h-t": WindingHVTV,
	"lv-tv": WindingLVTV, "lv_tv": WindingLVTV, "l-t": WindingLVTV,
	"hv-gnd": WindingHVGnd, "hv_gnd": WindingHVGnd, "hv-ground": WindingHVGnd,
	"lv-gnd": WindingLVGnd, "lv_gnd": WindingLVGnd, "lv-ground": WindingLVGnd,
	"tv-gnd": WindingTVGnd, "tv_gnd": WindingTVGnd,
	"hv-open": WindingHVOpen, "hv_open": WindingHVOpen,
	"lv-open": WindingLVOpen, "lv_open": WindingLVOpen,
}

// canonical winding values for direct (case-insensitive) matching.
var windingValues = []WindingConfig{
	WindingHVLV, WindingHVTV, WindingLVTV, WindingHVGnd,
	WindingLVGnd, WindingTVGnd, WindingHVOpen, WindingLVOpen, WindingOther,
}

// NormalizeWinding maps a raw winding string to the canonical enum.
// Empty input stays empty (meaning "not declared"); unrecognized
// spellings become Other.
func NormalizeWinding(raw string) WindingConfig {
	cleaned := strings.ToLower(strings.TrimSpace(raw))
	if cleaned == "" {
		return ""
	}
	for _, wc := range windingValues {
		if cleaned == strings.ToLower(string(wc)) {
			return wc
		}
	}
	if wc, ok := windingAliases[cleaned]; ok {
		return wc
	}
	return WindingOther
}

// measurementDateLayouts are tried in order when parsing dates found in
// file preambles.
var measurementDateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
	"02.01.2006 15:04:05",
	"02.01.2006",
	"01/02/2006",
}

// Normalize converts a RawSeries into a canonical Measurement. Non-fatal
// cleanup is reported as warnings; the only fatal condition is ending up
// with fewer than 2 valid rows.
func Normalize(raw RawSeries) (*Measurement, []string, error) {
	var warnings []string

	rows := make([]RawRow, len(raw.Rows))
	copy(rows, raw.Rows)

	// 1. Unit conversion.
	scale := raw.Units.FrequencyScale
	if scale == 0 {
		scale = 1
	}
	for i := range rows {
		rows[i].Frequency *= scale
		if raw.Units.MagnitudeLinear {
			rows[i].Magnitude = linearToDB(rows[i].Magnitude)
		}
		if raw.Units.PhaseRadians && rows[i].HasPhase {
			rows[i].Phase = rows[i].Phase * 180 / math.Pi
		}
	}

	// 2. Duplicate frequencies: keep the first occurrence.
	seen := make(map[float64]bool, len(rows))
	deduped := rows[:0]
	duplicates := 0
	for _, r := range rows {
		if seen[r.Frequency] {
			duplicates++
			continue
		}
		seen[r.Frequency] = true
		deduped = append(deduped, r)
	}
	rows = deduped
	if duplicates > 0 {
		warnings = append(warnings, fmt.Sprintf("removed %d duplicate frequency point(s)", duplicates))
	}

	// 3. Drop rows with non-finite values.
	finite := rows[:0]
	dropped := 0
	for _, r := range rows {
		if !mustFinite(r.Frequency) || !mustFinite(r.Magnitude) || (r.HasPhase && !mustFinite(r.Phase)) {
			dropped++
			continue
		}
		finite = append(finite, r)
	}
	rows = finite
	if dropped > 0 {
		warnings = append(warnings, fmt.Sprintf("removed %d row(s) with non-finite values", dropped))
	}

	// 4. Ascending frequency order.
	if !sort.SliceIsSorted(rows, func(i, j int) bool { return rows[i].Frequency < rows[j].Frequency }) {
		sort.SliceStable(rows, func(i, j int) bool { return rows[i].Frequency < rows[j].Frequency })
		warnings = append(warnings, "re-sorted data by ascending frequency")
	}

	// 5. Minimum usable size.
	if len(rows) < 2 {
		return nil, warnings, insufficient("only %d valid data point(s) remain after cleanup; need at least 2", len(rows))
	}

	m := &Measurement{
		FrequencyHz:        make([]float64, len(rows)),
		MagnitudeDB:        make([]float64, len(rows)),
		Vendor:             raw.Vendor,
		WindingConfig:      NormalizeWinding(raw.WindingConfig),
		TemperatureCelsius: raw.TemperatureCelsius,
		Metadata:           raw.Meta,
	}
	for i, r := range rows {
		m.FrequencyHz[i] = r.Frequency
		m.MagnitudeDB[i] = r.Magnitude
	}

	// Phase is all-or-nothing: propagate only when every surviving row
	// carries it, otherwise drop it entirely.
	withPhase := 0
	for _, r := range rows {
		if r.HasPhase {
			withPhase++
		}
	}
	switch {
	case withPhase == len(rows):
		m.PhaseDegrees = make([]float64, len(rows))
		for i, r := range rows {
			m.PhaseDegrees[i] = r.Phase
		}
	case withPhase > 0:
		warnings = append(warnings, fmt.Sprintf("phase data present for only %d of %d points; dropping phase", withPhase, len(rows)))
	}

	if raw.MeasurementDate != "" {
		if t, ok := parseMeasurementDate(raw.MeasurementDate); ok {
			m.MeasurementDate = t
		} else {
			warnings = append(warnings, fmt.Sprintf("could not parse measurement date %q from file", raw.MeasurementDate))
		}
	}

	if raw.SerialNumber != "" {
		addMetadata(m, "serial_number", raw.SerialNumber)
	}
	if raw.TransformerName != "" {
		addMetadata(m, "transformer_name", raw.TransformerName)
	}

	return m, warnings, nil
}

// linearToDB converts a linear ratio to dB. Non-positive ratios have no
// dB representation and become NaN so the cleanup step removes them.
func linearToDB(v float64) float64 {
	if v <= 0 {
		return math.NaN()
	}
	return 20 * math.Log10(v)
}

func parseMeasurementDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range measurementDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func addMetadata(m *Measurement, key, val string) {
	if m.Metadata == nil {
		m.Metadata = make(map[string]string)
	}
	m.Metadata[key] = val
}
