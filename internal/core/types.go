// Package core implements the FRA measurement import pipeline.
// This package has no HTTP or storage dependencies and can be driven by
// web handlers, CLI tools, or tests without modification.
package core

import (
	"time"

	"github.com/google/uuid"
)

// Vendor identifies the instrument manufacturer whose file format
// conventions a file follows.
type Vendor string

const (
	VendorOmicron Vendor = "Omicron"
	VendorMegger  Vendor = "Megger"
	VendorDoble   Vendor = "Doble"
	VendorGeneric Vendor = "Generic"
	VendorUnknown Vendor = "Unknown"
)

// Container identifies the file container format.
type Container string

const (
	ContainerCSV         Container = "csv"
	ContainerXML         Container = "xml"
	ContainerProprietary Container = "proprietary"
)

// DetectedFormat is the detector's best guess for a file. Detection is
// advisory: extraction may still fall back to the generic extractor.
type DetectedFormat struct {
	Vendor    Vendor
	Container Container
}

// WindingConfig is the electrical terminal pair across which a frequency
// sweep was measured.
type WindingConfig string

const (
	WindingHVLV   WindingConfig = "HV-LV"
	WindingHVTV   WindingConfig = "HV-TV"
	WindingLVTV   WindingConfig = "LV-TV"
	WindingHVGnd  WindingConfig = "HV-GND"
	WindingLVGnd  WindingConfig = "LV-GND"
	WindingTVGnd  WindingConfig = "TV-GND"
	WindingHVOpen WindingConfig = "HV-Open"
	WindingLVOpen WindingConfig = "LV-Open"
	WindingOther  WindingConfig = "Other"
)

// Hints carries the user-declared upload context. Declared values take
// precedence over anything extracted from the file itself.
type Hints struct {
	TransformerID      string
	WindingConfig      WindingConfig
	MeasurementDate    *time.Time
	TemperatureCelsius *float64
	Notes              string
}

// RawUpload is one uploaded file plus its declared hints. It is created
// once per request and never mutated by the pipeline.
type RawUpload struct {
	Data     []byte
	Filename string
	Hints    Hints
}

// RawRow is one extracted data row before normalization. Phase is
// meaningful only when HasPhase is true.
type RawRow struct {
	Frequency float64
	Magnitude float64
	Phase     float64
	HasPhase  bool
}

// UnitHints records the unit conventions detected in the file header.
type UnitHints struct {
	// FrequencyScale converts the file's frequency unit to Hz (1, 1e3, 1e6).
	FrequencyScale float64

	// MagnitudeLinear is true when magnitude is a linear ratio needing
	// conversion to dB.
	MagnitudeLinear bool

	// PhaseRadians is true when phase is in radians rather than degrees.
	PhaseRadians bool
}

// RawSeries is extracted, pre-normalization data: duplicates and
// out-of-order frequencies are allowed, units are not yet unified.
type RawSeries struct {
	Rows  []RawRow
	Units UnitHints

	// Metadata extracted from the file preamble, if any.
	Vendor             Vendor
	WindingConfig      string
	MeasurementDate    string
	TemperatureCelsius *float64
	SerialNumber       string
	TransformerName    string
	Meta               map[string]string
}

// HasAnyPhase reports whether at least one row carries phase data.
func (s *RawSeries) HasAnyPhase() bool {
	for _, r := range s.Rows {
		if r.HasPhase {
			return true
		}
	}
	return false
}

// Measurement is the canonical normalized FRA measurement. FrequencyHz is
// strictly ascending; PhaseDegrees is either nil or exactly as long as
// FrequencyHz, never partially populated.
type Measurement struct {
	ID                 uuid.UUID
	TransformerID      string
	FrequencyHz        []float64
	MagnitudeDB        []float64
	PhaseDegrees       []float64
	Vendor             Vendor
	OriginalFormat     string
	OriginalFile       string
	WindingConfig      WindingConfig
	MeasurementDate    time.Time
	TemperatureCelsius *float64
	Notes              string
	Metadata           map[string]string
	CreatedAt          time.Time
}

// HasPhase reports whether the measurement carries phase data.
func (m *Measurement) HasPhase() bool { return len(m.PhaseDegrees) > 0 }

// Points returns the number of data points.
func (m *Measurement) Points() int { return len(m.FrequencyHz) }

// ImportStatus is one state of the import session lifecycle.
type ImportStatus string

const (
	StatusPending     ImportStatus = "pending"
	StatusParsing     ImportStatus = "parsing"
	StatusValidating  ImportStatus = "validating"
	StatusNormalizing ImportStatus = "normalizing"
	StatusSuccess     ImportStatus = "success"
	StatusPartial     ImportStatus = "partial"
	StatusFailed      ImportStatus = "failed"
)

// Terminal reports whether the status is final.
func (s ImportStatus) Terminal() bool {
	return s == StatusSuccess || s == StatusPartial || s == StatusFailed
}

// Outcome is the audit record for one upload attempt. It is immutable
// once the pipeline completes and is handed to the history store as-is.
type Outcome struct {
	Status         ImportStatus
	Warnings       []string
	Fatal          *ImportError
	ParserUsed     string
	DetectedVendor Vendor
	DetectedFormat Container
	FrequencyRange string
	DataPoints     int
	TransformerID  string
	OriginalFile   string
	FileSizeBytes  int
	StartedAt      time.Time
	CompletedAt    time.Time
}

// UploadResponse is the boundary payload returned to the request layer
// after a successful or partial import.
type UploadResponse struct {
	MeasurementID      string   `json:"measurement_id"`
	TransformerID      string   `json:"transformer_id"`
	Filename           string   `json:"filename"`
	VendorDetected     Vendor   `json:"vendor_detected"`
	DataPoints         int      `json:"data_points"`
	FrequencyRange     string   `json:"frequency_range"`
	ValidationWarnings []string `json:"validation_warnings"`
	Message            string   `json:"message"`
}
