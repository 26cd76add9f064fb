package core

// Doble M4000/M5000 exports carry asset and test-condition header lines
// followed by comma-separated data. The .m4000 extension marks the
// proprietary export container; its data block is still delimited text.

import "fmt"

func extractDoble(data []byte, format DetectedFormat) (RawSeries, []string, error) {
	text, ierr := decodeText(data)
	if ierr != nil {
		return RawSeries{}, nil, ierr
	}

	lines := textLines(text)
	p := scanPreamble(lines)
	if !p.found {
		return RawSeries{}, nil, noColumns("no numeric data rows found in Doble file")
	}

	rows, badRows := parseDelimitedRows(lines[p.dataStart:])
	if len(rows) < 2 {
		return RawSeries{}, nil, insufficient("only %d parseable data row(s) in Doble file; need at least 2", len(rows))
	}

	var warnings []string
	if badRows > 0 {
		warnings = append(warnings, fmt.Sprintf("skipped %d unparseable row(s)", badRows))
	}

	series := RawSeries{
		Rows:   rows,
		Units:  unitHintsFromHeader(p.headerLine),
		Vendor: VendorDoble,
	}
	applyMetadata(&series, p.meta)
	return series, warnings, nil
}
