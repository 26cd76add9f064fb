package core

// pipeline.go orchestrates one import end to end: detect, extract,
// normalize, validate, and apply the user's declared hints. The pipeline
// itself is storage- and transport-free; the caller persists the
// measurement and the outcome.

import (
	"fmt"
	"time"
)

// Pipeline runs uploads through the import lifecycle.
type Pipeline struct {
	limits Limits
}

// NewPipeline returns a pipeline using the given validation limits.
func NewPipeline(limits Limits) *Pipeline {
	return &Pipeline{limits: limits}
}

// Run processes one upload. It always returns a terminal Outcome; the
// measurement is non-nil only for success and partial results. Panics in
// extractors are converted to invariant violations so a malformed file
// can never take the server down.
func (p *Pipeline) Run(upload RawUpload) (m *Measurement, out Outcome) {
	session := NewSession(upload.Filename, len(upload.Data))

	defer func() {
		if r := recover(); r != nil {
			m = nil
			out = session.Fail(invariant("pipeline panic: %v", r))
		}
	}()

	format := Detect(upload.Data, upload.Filename)
	session.SetDetection(format, ParserName(format))

	if err := session.To(StatusParsing); err != nil {
		return nil, session.Fail(mustImportError(err))
	}

	series, warnings, err := ExtractSeries(upload.Data, format)
	if err != nil && format.Vendor != VendorGeneric && format.Container != ContainerXML {
		// Vendor extractor rejected the file: give the generic text
		// extractor one chance before failing the import.
		generic := DetectedFormat{Vendor: VendorGeneric, Container: ContainerCSV}
		retried, retryWarnings, retryErr := extractGenericCSV(upload.Data, generic)
		if retryErr == nil {
			session.Warn(fmt.Sprintf("%s parser rejected the file (%v); recovered with generic parsing", format.Vendor, err))
			session.SetParser(ParserName(generic))
			series, warnings, err = retried, retryWarnings, nil
			series.Vendor = format.Vendor
		}
	}
	if err != nil {
		return nil, session.Fail(mustImportError(err))
	}
	session.Warn(warnings...)

	if err := session.To(StatusValidating); err != nil {
		return nil, session.Fail(mustImportError(err))
	}

	m, warnings, err = Normalize(series)
	if err != nil {
		session.Warn(warnings...)
		return nil, session.Fail(mustImportError(err))
	}
	session.Warn(warnings...)

	if err := session.To(StatusNormalizing); err != nil {
		return nil, session.Fail(mustImportError(err))
	}

	m.OriginalFormat = session.parser
	applyHints(m, upload)

	warnings, err = Validate(m, p.limits)
	if err != nil {
		return nil, session.Fail(mustImportError(err))
	}
	session.Warn(warnings...)

	// Default the winding only after validation so the missing-winding
	// warning still reaches the audit trail.
	if m.WindingConfig == "" {
		m.WindingConfig = WindingHVLV
	}

	return m, session.Finish(m)
}

// applyHints overlays the user's declared upload context onto the
// measurement. Declared values win over anything extracted from the file.
func applyHints(m *Measurement, upload RawUpload) {
	h := upload.Hints

	m.TransformerID = h.TransformerID
	m.OriginalFile = upload.Filename
	m.Notes = h.Notes

	if h.WindingConfig != "" {
		m.WindingConfig = NormalizeWinding(string(h.WindingConfig))
	}

	if h.MeasurementDate != nil {
		m.MeasurementDate = h.MeasurementDate.UTC()
	}
	if m.MeasurementDate.IsZero() {
		m.MeasurementDate = time.Now().UTC()
	}

	if h.TemperatureCelsius != nil {
		m.TemperatureCelsius = h.TemperatureCelsius
	}
}

// frequencyRange formats the sweep range for audit records and responses.
func frequencyRange(m *Measurement) string {
	if m.Points() == 0 {
		return ""
	}
	return fmt.Sprintf("%.1f-%.1f Hz", m.FrequencyHz[0], m.FrequencyHz[m.Points()-1])
}

// mustImportError coerces a pipeline error into the ImportError taxonomy.
// Anything else leaking out of a pipeline stage is by definition a bug.
func mustImportError(err error) *ImportError {
	if ie, ok := AsImportError(err); ok {
		return ie
	}
	return invariant("unexpected pipeline error: %v", err)
}
