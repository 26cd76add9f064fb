package core

import (
	"bytes"
	"strings"
	"testing"
)

func TestWriteCSV_WithPhase(t *testing.T) {
	m := &Measurement{
		FrequencyHz:  []float64{20, 40.5},
		MagnitudeDB:  []float64{-1.25, -2},
		PhaseDegrees: []float64{10, 9.5},
	}

	var buf bytes.Buffer
	if err := WriteCSV(&buf, m); err != nil {
		t.Fatalf("WriteCSV() error = %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3", len(lines))
	}
	if lines[0] != "Frequency(Hz),Magnitude(dB),Phase(deg)" {
		t.Errorf("header = %q", lines[0])
	}
	if lines[1] != "20,-1.25,10" {
		t.Errorf("row 1 = %q", lines[1])
	}
	if lines[2] != "40.5,-2,9.5" {
		t.Errorf("row 2 = %q", lines[2])
	}
}

func TestWriteCSV_WithoutPhase(t *testing.T) {
	m := &Measurement{
		FrequencyHz: []float64{20, 40},
		MagnitudeDB: []float64{-1, -2},
	}

	var buf bytes.Buffer
	if err := WriteCSV(&buf, m); err != nil {
		t.Fatalf("WriteCSV() error = %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if lines[0] != "Frequency(Hz),Magnitude(dB)" {
		t.Errorf("header = %q", lines[0])
	}
	if len(lines) != 3 {
		t.Errorf("got %d lines, want 3", len(lines))
	}
}
