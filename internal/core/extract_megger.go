package core

// Megger FRAX exports open with a device/measurement info block
// ("Instrument: FRAX 101", serial, winding, temperature) followed by
// comma-separated frequency/magnitude/phase rows. Some field units ship
// with European decimal commas, which parseNumber absorbs.

import "fmt"

func extractMegger(data []byte, format DetectedFormat) (RawSeries, []string, error) {
	text, ierr := decodeText(data)
	if ierr != nil {
		return RawSeries{}, nil, ierr
	}

	lines := textLines(text)
	p := scanPreamble(lines)
	if !p.found {
		return RawSeries{}, nil, noColumns("no numeric data rows found in Megger FRAX file")
	}

	rows, badRows := parseDelimitedRows(lines[p.dataStart:])
	if len(rows) < 2 {
		return RawSeries{}, nil, insufficient("only %d parseable data row(s) in Megger FRAX file; need at least 2", len(rows))
	}

	var warnings []string
	if badRows > 0 {
		warnings = append(warnings, fmt.Sprintf("skipped %d unparseable row(s)", badRows))
	}

	series := RawSeries{
		Rows:   rows,
		Units:  unitHintsFromHeader(p.headerLine),
		Vendor: VendorMegger,
	}
	applyMetadata(&series, p.meta)
	return series, warnings, nil
}
