package core

// validate.go checks a normalized measurement against physical
// plausibility limits. Findings split into two classes:
//
//   - warnings: the data is usable but an operator should judge its
//     fitness (narrow sweep, implausible magnitudes, few points, missing
//     winding declaration, magnitude outliers)
//   - fatal: the normalizer's own contract was broken (ordering, length
//     mismatch), which is an invariant violation rather than a
//     data-quality problem
//
// Frequency window defaults follow IEC 60076-18 sweep practice
// (20 Hz to 2 MHz). Boundary values are compared strictly, so a sweep
// covering exactly the expected window produces no warnings.

import "fmt"

// Limits configures the validator's plausibility checks.
type Limits struct {
	MinFrequencyHz       float64
	MaxFrequencyHz       float64
	MinSpanHz            float64
	MagnitudeMinDB       float64
	MagnitudeMaxDB       float64
	MinRecommendedPoints int
	OutlierZScore        float64
}

// DefaultLimits returns the standard validation limits.
func DefaultLimits() Limits {
	return Limits{
		MinFrequencyHz:       20,
		MaxFrequencyHz:       2_000_000,
		MinSpanHz:            1000,
		MagnitudeMinDB:       -120,
		MagnitudeMaxDB:       120,
		MinRecommendedPoints: 50,
		OutlierZScore:        4,
	}
}

// Validate checks a normalized measurement. It returns data-quality
// warnings, or an invariant-violation error when the measurement breaks
// the normalizer's contract.
func Validate(m *Measurement, lim Limits) ([]string, error) {
	if len(m.FrequencyHz) != len(m.MagnitudeDB) {
		return nil, invariant("frequency has %d values but magnitude has %d", len(m.FrequencyHz), len(m.MagnitudeDB))
	}
	if m.HasPhase() && len(m.PhaseDegrees) != len(m.FrequencyHz) {
		return nil, invariant("phase has %d values but frequency has %d", len(m.PhaseDegrees), len(m.FrequencyHz))
	}
	for i := 1; i < len(m.FrequencyHz); i++ {
		if m.FrequencyHz[i] <= m.FrequencyHz[i-1] {
			return nil, invariant("frequencies not strictly ascending at index %d (%g after %g)", i, m.FrequencyHz[i], m.FrequencyHz[i-1])
		}
	}

	var warnings []string

	fMin := m.FrequencyHz[0]
	fMax := m.FrequencyHz[len(m.FrequencyHz)-1]

	if fMin < lim.MinFrequencyHz {
		warnings = append(warnings, fmt.Sprintf("minimum frequency (%.1f Hz) is below the expected lower bound (%.0f Hz)", fMin, lim.MinFrequencyHz))
	}
	if fMax > lim.MaxFrequencyHz {
		warnings = append(warnings, fmt.Sprintf("maximum frequency (%.1f Hz) exceeds the expected upper bound (%.0f Hz)", fMax, lim.MaxFrequencyHz))
	}
	if fMax-fMin < lim.MinSpanHz {
		warnings = append(warnings, fmt.Sprintf("frequency span (%.1f Hz) is narrower than the expected minimum (%.0f Hz)", fMax-fMin, lim.MinSpanHz))
	}

	mMin, mMax := minMax(m.MagnitudeDB)
	if mMin < lim.MagnitudeMinDB {
		warnings = append(warnings, fmt.Sprintf("magnitude minimum (%.1f dB) is below the plausible lower bound (%.0f dB)", mMin, lim.MagnitudeMinDB))
	}
	if mMax > lim.MagnitudeMaxDB {
		warnings = append(warnings, fmt.Sprintf("magnitude maximum (%.1f dB) exceeds the plausible upper bound (%.0f dB)", mMax, lim.MagnitudeMaxDB))
	}

	if m.Points() < lim.MinRecommendedPoints {
		warnings = append(warnings, fmt.Sprintf("only %d data points; at least %d are recommended for reliable analysis", m.Points(), lim.MinRecommendedPoints))
	}

	if m.WindingConfig == "" {
		warnings = append(warnings, "winding configuration not declared")
	} else if m.WindingConfig == WindingOther {
		warnings = append(warnings, "winding configuration is set to the generic value Other")
	}

	if outliers := countOutliers(m.MagnitudeDB, lim.OutlierZScore); outliers > 0 {
		warnings = append(warnings, fmt.Sprintf("%d potential magnitude outlier(s) (z-score > %.0f)", outliers, lim.OutlierZScore))
	}

	return warnings, nil
}

func minMax(values []float64) (minV, maxV float64) {
	minV, maxV = values[0], values[0]
	for _, v := range values[1:] {
		if v < minV {
			minV = v
		}
		if v > maxV {
			maxV = v
		}
	}
	return minV, maxV
}

// countOutliers counts magnitude values whose z-score exceeds the
// threshold. Needs more than 3 points and non-zero spread to be
// meaningful.
func countOutliers(values []float64, threshold float64) int {
	if len(values) <= 3 || threshold <= 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))

	var sq float64
	for _, v := range values {
		d := v - mean
		sq += d * d
	}
	std := sq / float64(len(values))
	if std <= 0 {
		return 0
	}
	// std currently holds variance; compare squared distances to avoid
	// a sqrt per value.
	limit := threshold * threshold * std
	count := 0
	for _, v := range values {
		d := v - mean
		if d*d > limit {
			count++
		}
	}
	return count
}
