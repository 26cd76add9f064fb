package core

// export.go renders a normalized measurement back to CSV. Values use the
// shortest exact float representation so an exported file re-imports to
// the identical measurement.

import (
	"encoding/csv"
	"io"
	"strconv"
)

// WriteCSV writes the measurement as CSV with a header row. Phase is
// included only when present.
func WriteCSV(w io.Writer, m *Measurement) error {
	cw := csv.NewWriter(w)

	header := []string{"Frequency(Hz)", "Magnitude(dB)"}
	if m.HasPhase() {
		header = append(header, "Phase(deg)")
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	record := make([]string, len(header))
	for i := range m.FrequencyHz {
		record[0] = formatFloat(m.FrequencyHz[i])
		record[1] = formatFloat(m.MagnitudeDB[i])
		if m.HasPhase() {
			record[2] = formatFloat(m.PhaseDegrees[i])
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
