package schema

// Omicron describes FRAnalyzer exports: a metadata banner naming the
// device, then tab-separated columns using square-bracket unit suffixes
// ("Frequency [Hz]").
var Omicron = Profile{
	Name:       "omicron",
	Extensions: []string{".fra", ".csv", ".txt", ".xml"},
	Magic:      []string{"omicron", "franalyzer"},
	HeaderHints: []string{
		"frequency [hz]",
		"frequency [khz]",
		"magnitude [db]",
	},
}

// Megger describes FRAX-series exports: a device info block followed by
// comma-separated data.
var Megger = Profile{
	Name:       "megger_frax",
	Extensions: []string{".frax", ".csv", ".txt", ".xml"},
	Magic:      []string{"megger", "frax"},
	HeaderHints: []string{
		"sweep frequency",
	},
}

// Doble describes M4000/M5000 exports: test setup header lines followed
// by comma-separated data.
var Doble = Profile{
	Name:       "doble",
	Extensions: []string{".m4000", ".csv", ".txt", ".xml"},
	Magic:      []string{"doble", "m4000", "m5000"},
	HeaderHints: []string{
		"sfra test",
	},
}

// GenericCSV is the catch-all profile for delimited text files.
var GenericCSV = Profile{
	Name:       "generic_csv",
	Extensions: []string{".csv", ".txt", ".tsv"},
}

// GenericXML is the catch-all profile for XML containers.
var GenericXML = Profile{
	Name:       "generic_xml",
	Extensions: []string{".xml"},
}

// Vendors lists the vendor-specific profiles in detection priority order.
// Generic profiles are deliberately excluded: they are the fallback, not
// a signature to match against.
var Vendors = []Profile{Omicron, Megger, Doble}
