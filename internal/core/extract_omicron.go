package core

// Omicron FRAnalyzer exports carry a banner block naming the device,
// metadata lines, then tab-separated columns with square-bracket unit
// suffixes ("Frequency [Hz]"). The .fra extension is also accepted; its
// payload is the same line-oriented text.

import "fmt"

func extractOmicron(data []byte, format DetectedFormat) (RawSeries, []string, error) {
	text, ierr := decodeText(data)
	if ierr != nil {
		return RawSeries{}, nil, ierr
	}

	lines := textLines(text)
	p := scanPreamble(lines)
	if !p.found {
		return RawSeries{}, nil, noColumns("no numeric data rows found in Omicron file")
	}

	rows, badRows := parseDelimitedRows(lines[p.dataStart:])
	if len(rows) < 2 {
		return RawSeries{}, nil, insufficient("only %d parseable data row(s) in Omicron file; need at least 2", len(rows))
	}

	var warnings []string
	if badRows > 0 {
		warnings = append(warnings, fmt.Sprintf("skipped %d unparseable row(s)", badRows))
	}

	series := RawSeries{
		Rows:   rows,
		Units:  unitHintsFromHeader(p.headerLine),
		Vendor: VendorOmicron,
	}
	applyMetadata(&series, p.meta)
	return series, warnings, nil
}
