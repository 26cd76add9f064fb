package schema

import "testing"

func TestFreqHeader(t *testing.T) {
	matches := []string{"Freq", "frequency", "Frequency (Hz)", "f [kHz]", "FREQUENCY(MHz)", "freq_hz"}
	misses := []string{"frequency of visits", "phase", "", "f-number"}

	for _, h := range matches {
		if !FreqHeader.MatchString(h) {
			t.Errorf("FreqHeader should match %q", h)
		}
	}
	for _, h := range misses {
		if FreqHeader.MatchString(h) {
			t.Errorf("FreqHeader should not match %q", h)
		}
	}
}

func TestMagHeader(t *testing.T) {
	matches := []string{"Magnitude", "Magnitude (dB)", "Gain", "amplitude", "TF [dB]", "Transfer Function", "Impedance"}
	misses := []string{"magnet", "frequency", ""}

	for _, h := range matches {
		if !MagHeader.MatchString(h) {
			t.Errorf("MagHeader should match %q", h)
		}
	}
	for _, h := range misses {
		if MagHeader.MatchString(h) {
			t.Errorf("MagHeader should not match %q", h)
		}
	}
}

func TestPhaseHeader(t *testing.T) {
	matches := []string{"Phase", "Phase (deg)", "angle [rad]", "Arg", "Phase(°)"}
	misses := []string{"phases of testing", "frequency"}

	for _, h := range matches {
		if !PhaseHeader.MatchString(h) {
			t.Errorf("PhaseHeader should match %q", h)
		}
	}
	for _, h := range misses {
		if PhaseHeader.MatchString(h) {
			t.Errorf("PhaseHeader should not match %q", h)
		}
	}
}

func TestFrequencyScale(t *testing.T) {
	tests := []struct {
		header string
		want   float64
	}{
		{"Frequency [Hz]\tMagnitude [dB]", 1},
		{"Frequency [kHz]\tMagnitude [dB]", 1e3},
		{"Frequency (MHz),Magnitude (dB)", 1e6},
		{"freq,mag", 1},
		{"", 1},
	}

	for _, tt := range tests {
		if got := FrequencyScale(tt.header); got != tt.want {
			t.Errorf("FrequencyScale(%q) = %v, want %v", tt.header, got, tt.want)
		}
	}
}

func TestUnitFlags(t *testing.T) {
	if !MagnitudeIsLinear("Frequency (Hz),Magnitude (ratio)") {
		t.Error("ratio suffix should flag linear magnitude")
	}
	if MagnitudeIsLinear("Frequency (Hz),Magnitude (dB)") {
		t.Error("dB suffix must not flag linear magnitude")
	}
	if !PhaseIsRadians("freq (Hz), phase (rad)") {
		t.Error("rad suffix should flag radians")
	}
	if PhaseIsRadians("freq (Hz), phase (deg)") {
		t.Error("deg suffix must not flag radians")
	}
}

func TestProfileMatchers(t *testing.T) {
	if !Omicron.MatchesExtension(".fra") {
		t.Error("Omicron should claim .fra")
	}
	if Omicron.MatchesExtension(".frax") {
		t.Error(".frax belongs to Megger, not Omicron")
	}
	if !Megger.MatchesMagic("exported by megger frax 150") {
		t.Error("Megger magic should match")
	}
	if !Doble.MatchesHeader("sfra test record") {
		t.Error("Doble header hint should match")
	}
	if GenericCSV.MatchesMagic("anything at all") {
		t.Error("generic profile has no magic")
	}
}
