package core

// detect.go guesses the vendor and container format of an uploaded file.
//
// Detection never fails: unrecognized input resolves to the generic
// profile so the catch-all extractor gets a chance. The result is
// advisory only; the orchestrator falls back to generic extraction when
// a vendor-specific extractor rejects the file.

import (
	"bytes"
	"path/filepath"
	"strings"

	"github.com/fradiag/fraingest/internal/schema"
)

// sniffLen is how many leading bytes are inspected for banners, headers,
// and container markers.
const sniffLen = 4096

// Vendor-owned extensions. Shared extensions like .csv and .xml stay
// ambiguous and are resolved by content sniffing.
var extensionVendors = map[string]Vendor{
	".fra":   VendorOmicron,
	".frax":  VendorMegger,
	".m4000": VendorDoble,
}

// Detect inspects raw bytes and the original filename and returns the
// most likely vendor and container. Heuristics in priority order:
// vendor-owned extension, XML declaration, vendor magic substrings,
// vendor-specific column headers. Ties resolve toward the more specific
// vendor over Generic.
func Detect(data []byte, filename string) DetectedFormat {
	ext := strings.ToLower(filepath.Ext(filename))
	head := sniffHead(data)
	container := sniffContainer(data, ext)

	if v, ok := extensionVendors[ext]; ok {
		return DetectedFormat{Vendor: v, Container: container}
	}

	for _, p := range schema.Vendors {
		if p.MatchesMagic(head) {
			return DetectedFormat{Vendor: vendorForProfile(p.Name), Container: container}
		}
	}

	for _, p := range schema.Vendors {
		if p.MatchesHeader(head) {
			return DetectedFormat{Vendor: vendorForProfile(p.Name), Container: container}
		}
	}

	return DetectedFormat{Vendor: VendorGeneric, Container: container}
}

// sniffHead returns the lowercased leading bytes for substring matching.
func sniffHead(data []byte) string {
	n := len(data)
	if n > sniffLen {
		n = sniffLen
	}
	return strings.ToLower(string(data[:n]))
}

// sniffContainer guesses the container format from content and extension.
func sniffContainer(data []byte, ext string) Container {
	trimmed := bytes.TrimLeft(data, " \t\r\n\xef\xbb\xbf")
	if bytes.HasPrefix(trimmed, []byte("<?xml")) || ext == ".xml" && bytes.HasPrefix(trimmed, []byte("<")) {
		return ContainerXML
	}
	if ext == ".fra" || ext == ".m4000" {
		return ContainerProprietary
	}
	return ContainerCSV
}

// vendorForProfile maps a schema profile name to the Vendor enum.
func vendorForProfile(name string) Vendor {
	switch name {
	case schema.Omicron.Name:
		return VendorOmicron
	case schema.Megger.Name:
		return VendorMegger
	case schema.Doble.Name:
		return VendorDoble
	default:
		return VendorGeneric
	}
}

// ParserName returns the parser identifier recorded in the audit trail
// for a detected format.
func ParserName(f DetectedFormat) string {
	switch f.Vendor {
	case VendorOmicron:
		return schema.Omicron.Name
	case VendorMegger:
		return schema.Megger.Name
	case VendorDoble:
		return schema.Doble.Name
	}
	if f.Container == ContainerXML {
		return schema.GenericXML.Name
	}
	return schema.GenericCSV.Name
}
