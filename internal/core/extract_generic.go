package core

// extract_generic.go is the catch-all extractor for delimited text files.
//
// It handles the layouts the vendor extractors do not claim: header rows
// with arbitrary column naming, headerless numeric dumps, comment-line
// metadata (# or //), and comma/semicolon/tab/pipe delimiters. Column
// identification is by header-name matching with a positional fallback
// (first two/three columns) when headers are absent or unrecognized.

import (
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/fradiag/fraingest/internal/schema"
)

// candidate delimiters for sniffing, in tie-break priority order.
var genericDelims = []rune{',', '\t', ';', '|'}

func extractGenericCSV(data []byte, format DetectedFormat) (RawSeries, []string, error) {
	text, ierr := decodeText(data)
	if ierr != nil {
		return RawSeries{}, nil, ierr
	}

	meta := make(map[string]string)
	var dataLines []string
	for _, line := range textLines(text) {
		switch {
		case line == "":
			continue
		case strings.HasPrefix(line, "#") || strings.HasPrefix(line, "//"):
			if kv := metadataKV.FindStringSubmatch(strings.TrimLeft(line, "#/ ")); kv != nil {
				meta[strings.TrimSpace(kv[1])] = strings.TrimSpace(kv[2])
			}
		default:
			dataLines = append(dataLines, line)
		}
	}

	if len(dataLines) < 2 {
		return RawSeries{}, nil, insufficient("file has %d data line(s) after stripping comments; need at least 2", len(dataLines))
	}

	delim := sniffDelimiter(dataLines)
	records, err := readDelimited(dataLines, delim)
	if err != nil || len(records) < 2 {
		return RawSeries{}, nil, unreadable("file could not be parsed as delimited text")
	}

	var warnings []string
	firstRow := records[0]

	freqIdx, magIdx, phaseIdx := -1, -1, -1
	dataStart := 0
	headerLine := ""

	if rowIsNumeric(firstRow) {
		// Headerless dump: assume frequency, magnitude, [phase] order.
		freqIdx, magIdx = 0, 1
		if len(firstRow) >= 3 {
			phaseIdx = 2
		}
		if len(firstRow) < 2 {
			return RawSeries{}, nil, noColumns("only %d column(s) found; need at least frequency and magnitude", len(firstRow))
		}
		warnings = append(warnings, "no header row detected; assuming column order: frequency, magnitude, phase")
	} else {
		headerLine = dataLines[0]
		dataStart = 1
		freqIdx, magIdx, phaseIdx = matchColumns(firstRow)
		if freqIdx < 0 || magIdx < 0 {
			if len(firstRow) < 2 {
				return RawSeries{}, nil, noColumns("only %d column(s) found; need at least frequency and magnitude", len(firstRow))
			}
			freqIdx, magIdx = 0, 1
			phaseIdx = -1
			if len(firstRow) >= 3 {
				phaseIdx = 2
			}
			warnings = append(warnings, fmt.Sprintf("could not match headers %v; assuming column order: frequency, magnitude, phase", firstRow))
		}
	}

	var rows []RawRow
	badRows := 0
	for _, rec := range records[dataStart:] {
		if freqIdx >= len(rec) || magIdx >= len(rec) {
			badRows++
			continue
		}
		f, errF := parseNumber(rec[freqIdx])
		m, errM := parseNumber(rec[magIdx])
		if errF != nil || errM != nil {
			badRows++
			continue
		}
		row := RawRow{Frequency: f, Magnitude: m}
		if phaseIdx >= 0 && phaseIdx < len(rec) {
			if p, err := parseNumber(rec[phaseIdx]); err == nil {
				row.Phase = p
				row.HasPhase = true
			}
		}
		rows = append(rows, row)
	}

	if badRows > 0 {
		warnings = append(warnings, fmt.Sprintf("skipped %d unparseable row(s)", badRows))
	}
	if len(rows) == 0 {
		return RawSeries{}, nil, noColumns("no valid data rows could be parsed")
	}
	if len(rows) < 2 {
		return RawSeries{}, nil, insufficient("only %d parseable data row(s); need at least 2", len(rows))
	}

	series := RawSeries{
		Rows:   rows,
		Units:  unitHintsFromHeader(headerLine),
		Vendor: VendorGeneric,
	}
	applyMetadata(&series, meta)
	return series, warnings, nil
}

// sniffDelimiter picks the candidate delimiter appearing most
// consistently across the first few data lines.
func sniffDelimiter(lines []string) rune {
	sample := lines
	if len(sample) > 5 {
		sample = sample[:5]
	}

	best := ','
	bestCount := 0
	for _, d := range genericDelims {
		count := strings.Count(sample[0], string(d))
		if count == 0 {
			continue
		}
		consistent := true
		for _, l := range sample[1:] {
			if strings.Count(l, string(d)) != count {
				consistent = false
				break
			}
		}
		if consistent && count > bestCount {
			best = d
			bestCount = count
		}
	}
	return best
}

// readDelimited parses lines with encoding/csv so quoted fields survive.
func readDelimited(lines []string, delim rune) ([][]string, error) {
	r := csv.NewReader(strings.NewReader(strings.Join(lines, "\n")))
	r.Comma = delim
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	for _, rec := range records {
		for i := range rec {
			rec[i] = strings.TrimSpace(rec[i])
		}
	}
	return records, nil
}

// rowIsNumeric reports whether every cell of a row parses as a float.
func rowIsNumeric(row []string) bool {
	if len(row) == 0 {
		return false
	}
	for _, cell := range row {
		if _, err := parseNumber(cell); err != nil {
			return false
		}
	}
	return true
}

// matchColumns maps header cells to (freq, mag, phase) column indices
// using the shared schema patterns. Missing columns return -1.
func matchColumns(headers []string) (freqIdx, magIdx, phaseIdx int) {
	freqIdx, magIdx, phaseIdx = -1, -1, -1
	for i, h := range headers {
		h = strings.TrimSpace(h)
		switch {
		case freqIdx < 0 && schema.FreqHeader.MatchString(h):
			freqIdx = i
		case magIdx < 0 && schema.MagHeader.MatchString(h):
			magIdx = i
		case phaseIdx < 0 && schema.PhaseHeader.MatchString(h):
			phaseIdx = i
		}
	}
	return freqIdx, magIdx, phaseIdx
}
