package core

// extract.go holds the extractor dispatch table and the text-handling
// helpers shared by all vendor extractors: lenient decoding, preamble
// metadata scanning, and tolerant number parsing.
//
// Vendor files arrive with comma/semicolon/tab delimiters, metadata
// preambles, Windows line endings, UTF-8 BOMs, and occasional latin-1
// encoding. Extractors must absorb all of that; they reject a file only
// when no usable numeric data can be found at all.

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/fradiag/fraingest/internal/schema"
)

// Extractor turns raw file content into a RawSeries. Implementations
// return accumulated non-fatal warnings alongside the series.
type Extractor func(data []byte, format DetectedFormat) (RawSeries, []string, error)

// ExtractSeries dispatches to the extractor matching the detected format.
// The vendor set is closed, so this is a finite dispatch table rather
// than open-ended polymorphism.
func ExtractSeries(data []byte, format DetectedFormat) (RawSeries, []string, error) {
	if format.Container == ContainerXML {
		return extractXML(data, format)
	}
	switch format.Vendor {
	case VendorOmicron:
		return extractOmicron(data, format)
	case VendorMegger:
		return extractMegger(data, format)
	case VendorDoble:
		return extractDoble(data, format)
	default:
		return extractGenericCSV(data, format)
	}
}

var (
	// metadataKV matches "Key: value" / "Key = value" preamble lines.
	metadataKV = regexp.MustCompile(`^([A-Za-z][A-Za-z0-9 _./-]*?)\s*[:=]\s*(.+)$`)

	// vendorDelims splits vendor export data rows on any run of tabs,
	// commas, or semicolons.
	vendorDelims = regexp.MustCompile(`[\t,;]+`)

	// nonNumeric strips unit suffixes like "°C" from metadata values.
	nonNumeric = regexp.MustCompile(`[^0-9.\-+eE]`)
)

// decodeText decodes file bytes into a string for line-based parsing.
// UTF-8 (with optional BOM) is preferred; anything else falls back to a
// latin-1 interpretation so single high bytes never abort the import.
// Empty input and binary content (embedded NULs) are unreadable.
func decodeText(data []byte) (string, *ImportError) {
	if len(data) == 0 {
		return "", unreadable("file is empty")
	}
	data = trimBOM(data)
	for _, b := range data {
		if b == 0 {
			return "", unreadable("file contains binary data where text was expected")
		}
	}
	if utf8.Valid(data) {
		return string(data), nil
	}
	// latin-1: every byte maps directly to the code point of equal value.
	runes := make([]rune, len(data))
	for i, b := range data {
		runes[i] = rune(b)
	}
	return string(runes), nil
}

func trimBOM(data []byte) []byte {
	if len(data) >= 3 && data[0] == 0xEF && data[1] == 0xBB && data[2] == 0xBF {
		return data[3:]
	}
	return data
}

// textLines splits decoded content into trimmed lines, dropping blank
// leading/trailing lines but preserving interior order.
func textLines(text string) []string {
	raw := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	lines := make([]string, 0, len(raw))
	for _, l := range raw {
		lines = append(lines, strings.TrimSpace(strings.ReplaceAll(l, "\r", "")))
	}
	// Trim trailing blanks.
	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// preamble is the result of scanning a vendor file's header block.
type preamble struct {
	meta       map[string]string
	headerLine string // last non-metadata line before the data block, if any
	dataStart  int    // index of the first numeric data row
	found      bool   // whether a numeric data row exists
}

// scanPreamble walks the leading lines of a vendor export, collecting
// "key: value" metadata until the first row whose leading field parses
// as a number.
func scanPreamble(lines []string) preamble {
	p := preamble{meta: make(map[string]string)}
	for i, line := range lines {
		if line == "" {
			continue
		}
		if kv := metadataKV.FindStringSubmatch(line); kv != nil {
			p.meta[strings.TrimSpace(kv[1])] = strings.TrimSpace(kv[2])
			continue
		}
		fields := vendorDelims.Split(line, -1)
		if len(fields) > 0 {
			if _, err := parseNumber(fields[0]); err == nil {
				p.dataStart = i
				p.found = true
				return p
			}
		}
		p.headerLine = line
	}
	return p
}

// parseDelimitedRows parses the data block of a vendor export, splitting
// each line on tab/comma/semicolon runs. Unparseable rows are skipped and
// counted rather than failing the extraction.
func parseDelimitedRows(lines []string) (rows []RawRow, badRows int) {
	for _, line := range lines {
		if line == "" {
			continue
		}
		fields := vendorDelims.Split(line, -1)
		if len(fields) < 2 {
			badRows++
			continue
		}
		f, errF := parseNumber(fields[0])
		m, errM := parseNumber(fields[1])
		if errF != nil || errM != nil {
			badRows++
			continue
		}
		row := RawRow{Frequency: f, Magnitude: m}
		if len(fields) > 2 {
			if p, err := parseNumber(fields[2]); err == nil {
				row.Phase = p
				row.HasPhase = true
			}
		}
		rows = append(rows, row)
	}
	return rows, badRows
}

// parseNumber parses a float tolerating surrounding whitespace, quotes,
// and a European decimal comma (only when no dot is present, so "1,5"
// parses but "1,500.2" does not silently change meaning).
func parseNumber(s string) (float64, error) {
	s = strings.Trim(strings.TrimSpace(s), `"'`)
	v, err := strconv.ParseFloat(s, 64)
	if err == nil {
		return v, nil
	}
	if strings.Count(s, ",") == 1 && !strings.Contains(s, ".") {
		return strconv.ParseFloat(strings.Replace(s, ",", ".", 1), 64)
	}
	return 0, err
}

// applyMetadata maps recognized preamble keys onto the series fields.
// Unrecognized keys stay in Meta for the measurement's free-form
// metadata mapping.
func applyMetadata(s *RawSeries, meta map[string]string) {
	if s.Meta == nil {
		s.Meta = make(map[string]string, len(meta))
	}
	for key, val := range meta {
		s.Meta[key] = val
		k := strings.ToLower(key)
		switch {
		case strings.Contains(k, "serial"):
			s.SerialNumber = val
		case strings.Contains(k, "winding") || strings.Contains(k, "config"):
			s.WindingConfig = val
		case strings.Contains(k, "temp"):
			if t, err := strconv.ParseFloat(nonNumeric.ReplaceAllString(val, ""), 64); err == nil {
				s.TemperatureCelsius = &t
			}
		case strings.Contains(k, "date") || strings.Contains(k, "time"):
			s.MeasurementDate = val
		case strings.Contains(k, "transformer") || strings.Contains(k, "asset") || strings.Contains(k, "name"):
			s.TransformerName = val
		}
	}
}

// unitHintsFromHeader derives unit conventions from a header line using
// the shared schema patterns. Defaults are Hz, dB, degrees.
func unitHintsFromHeader(headerLine string) UnitHints {
	return UnitHints{
		FrequencyScale:  schema.FrequencyScale(headerLine),
		MagnitudeLinear: schema.MagnitudeIsLinear(headerLine),
		PhaseRadians:    schema.PhaseIsRadians(headerLine),
	}
}

// mustFinite reports whether v is a usable float.
func mustFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
