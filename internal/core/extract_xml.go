package core

// extract_xml.go extracts FRA data from XML containers without assuming
// a fixed document shape. Vendors and third-party tools emit structures
// like:
//
//	<measurement><point><freq/><mag/><phase/></point>...</measurement>
//	<fra_data><data_point freq="..." mag="..."/>...</fra_data>
//
// The extractor finds the most-repeated sibling element (the data
// points), then pulls frequency/magnitude/phase from attributes or child
// elements whose names match the shared column patterns.

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
)

// Element and attribute name patterns. Unlike the CSV header patterns,
// these match substrings: XML tags tend to be compounds like "freq_hz".
var (
	xmlFreqPat  = regexp.MustCompile(`(?i)freq|frequency|f_hz`)
	xmlMagPat   = regexp.MustCompile(`(?i)mag|magnitude|amplitude|gain|transfer|impedance|tf`)
	xmlPhasePat = regexp.MustCompile(`(?i)phase|angle|arg`)

	xmlDatePat    = regexp.MustCompile(`(?i)date|timestamp|measured`)
	xmlTempPat    = regexp.MustCompile(`(?i)temp`)
	xmlSerialPat  = regexp.MustCompile(`(?i)serial|sn`)
	xmlWindingPat = regexp.MustCompile(`(?i)winding|config`)
)

// minRepeats is how many repeated siblings qualify as a data block.
const minRepeats = 5

// xmlNode is a generic parsed element.
type xmlNode struct {
	tag      string
	attrs    map[string]string
	text     string
	children []*xmlNode
}

func extractXML(data []byte, format DetectedFormat) (RawSeries, []string, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return RawSeries{}, nil, unreadable("file is empty")
	}

	root, err := parseXMLTree(data)
	if err != nil {
		return RawSeries{}, nil, unreadable("invalid XML: %v", err)
	}

	points := findDataElements(root)
	if len(points) == 0 {
		return RawSeries{}, nil, noColumns("could not find repeating data-point elements in XML")
	}

	var (
		rows      []RawRow
		badPoints int
	)
	for _, el := range points {
		f, okF := extractValue(el, xmlFreqPat)
		m, okM := extractValue(el, xmlMagPat)
		if !okF || !okM {
			badPoints++
			continue
		}
		row := RawRow{Frequency: f, Magnitude: m}
		if p, ok := extractValue(el, xmlPhasePat); ok {
			row.Phase = p
			row.HasPhase = true
		}
		rows = append(rows, row)
	}

	var warnings []string
	if badPoints > 0 {
		warnings = append(warnings, fmt.Sprintf("skipped %d data point(s) missing frequency or magnitude", badPoints))
	}
	if len(rows) < 2 {
		return RawSeries{}, nil, insufficient("only %d valid data point(s) in XML; need at least 2", len(rows))
	}

	vendor := format.Vendor
	if vendor == VendorUnknown {
		vendor = VendorGeneric
	}
	series := RawSeries{
		Rows:   rows,
		Units:  UnitHints{FrequencyScale: 1},
		Vendor: vendor,
	}
	applyMetadata(&series, collectXMLMetadata(root))
	return series, warnings, nil
}

// parseXMLTree builds a generic node tree via the streaming decoder.
func parseXMLTree(data []byte) (*xmlNode, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	// Vendor exports occasionally declare latin-1; accept it as-is.
	dec.CharsetReader = func(charset string, input io.Reader) (io.Reader, error) {
		return input, nil
	}

	var root *xmlNode
	var stack []*xmlNode
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			n := &xmlNode{tag: localName(t.Name.Local), attrs: make(map[string]string, len(t.Attr))}
			for _, a := range t.Attr {
				n.attrs[localName(a.Name.Local)] = a.Value
			}
			if len(stack) == 0 {
				if root != nil {
					return nil, fmt.Errorf("multiple root elements")
				}
				root = n
			} else {
				parent := stack[len(stack)-1]
				parent.children = append(parent.children, n)
			}
			stack = append(stack, n)
		case xml.EndElement:
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		case xml.CharData:
			if len(stack) > 0 {
				stack[len(stack)-1].text += string(t)
			}
		}
	}
	if root == nil {
		return nil, fmt.Errorf("no root element")
	}
	return root, nil
}

// localName strips any namespace prefix.
func localName(s string) string {
	if i := strings.LastIndex(s, ":"); i >= 0 {
		return s[i+1:]
	}
	return s
}

// findDataElements locates the repeated sibling elements most likely to
// be data points, recursing until a tag repeats at least minRepeats
// times.
func findDataElements(root *xmlNode) []*xmlNode {
	groups := make(map[string][]*xmlNode)
	for _, child := range root.children {
		groups[child.tag] = append(groups[child.tag], child)
	}

	bestTag := ""
	bestCount := 0
	for tag, els := range groups {
		if len(els) > bestCount {
			bestTag = tag
			bestCount = len(els)
		}
	}
	if bestCount >= minRepeats {
		return groups[bestTag]
	}

	for _, child := range root.children {
		if found := findDataElements(child); found != nil {
			return found
		}
	}
	return nil
}

// extractValue pulls a numeric value from an attribute or child element
// whose name matches the pattern.
func extractValue(el *xmlNode, pat *regexp.Regexp) (float64, bool) {
	for name, val := range el.attrs {
		if pat.MatchString(name) {
			if v, err := strconv.ParseFloat(strings.TrimSpace(val), 64); err == nil {
				return v, true
			}
		}
	}
	for _, child := range el.children {
		if pat.MatchString(child.tag) {
			if v, err := strconv.ParseFloat(strings.TrimSpace(child.text), 64); err == nil {
				return v, true
			}
		}
	}
	return 0, false
}

// collectXMLMetadata walks non-data elements for measurement metadata.
func collectXMLMetadata(root *xmlNode) map[string]string {
	meta := make(map[string]string)
	var walk func(el *xmlNode, depth int)
	walk = func(el *xmlNode, depth int) {
		if depth > 4 {
			return
		}
		record := func(name, val string) {
			val = strings.TrimSpace(val)
			if val == "" {
				return
			}
			switch {
			case xmlDatePat.MatchString(name):
				meta["date"] = val
			case xmlTempPat.MatchString(name):
				meta["temperature"] = val
			case xmlSerialPat.MatchString(name):
				meta["serial"] = val
			case xmlWindingPat.MatchString(name):
				meta["winding"] = val
			}
		}
		record(el.tag, el.text)
		for name, val := range el.attrs {
			record(name, val)
		}
		for _, child := range el.children {
			walk(child, depth+1)
		}
	}
	walk(root, 0)
	return meta
}
