package processor

import (
	"bytes"
	"encoding/xml"
	"io"
	"strings"
)

// XMP namespaces that carry a "last modified by" property
const (
	nsXMPMM = "http://ns.adobe.com/xap/1.0/mm/"
	nsPDFX  = "http://ns.adobe.com/pdfx/1.3/"
)

// xmpModifierKeys is checked in order by the primary PDF strategy
var xmpModifierKeys = []xml.Name{
	{Space: nsXMPMM, Local: "LastModifiedBy"},
	{Space: nsXMPMM, Local: "LastModifier"},
	{Space: nsPDFX, Local: "LastModifiedBy"},
}

// xmpProperties collects simple XMP properties from both the element form
// (<ns:Prop>value</ns:Prop>) and the attribute form (<rdf:Description ns:Prop="value"/>).
// Nested values such as rdf:Alt/rdf:li are flattened into their text.
func xmpProperties(packet []byte) (map[xml.Name]string, error) {
	props := map[xml.Name]string{}
	dec := xml.NewDecoder(bytes.NewReader(packet))
	dec.Strict = false

	var stack []xml.Name
	var text []string

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return props, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			for _, attr := range t.Attr {
				if attr.Name.Space == "" || attr.Name.Space == "xmlns" {
					continue
				}
				if v := strings.TrimSpace(attr.Value); v != "" {
					setOnce(props, attr.Name, v)
				}
			}
			stack = append(stack, t.Name)
			text = append(text, "")
		case xml.CharData:
			for i := range text {
				text[i] += string(t)
			}
		case xml.EndElement:
			if len(stack) == 0 {
				continue
			}
			name := stack[len(stack)-1]
			v := strings.TrimSpace(text[len(text)-1])
			stack = stack[:len(stack)-1]
			text = text[:len(text)-1]
			if v != "" {
				setOnce(props, name, v)
			}
		}
	}
	return props, nil
}

func setOnce(props map[xml.Name]string, name xml.Name, v string) {
	if _, ok := props[name]; !ok {
		props[name] = v
	}
}

// xmpLookup returns the first non-empty property among keys. A packet that
// fails to parse part way is still searched up to the error; the error is
// returned only when none of the keys was found.
func xmpLookup(packet []byte, keys ...xml.Name) (string, error) {
	if len(packet) == 0 {
		return "", nil
	}
	props, err := xmpProperties(packet)
	for _, k := range keys {
		if v := props[k]; v != "" {
			return v, nil
		}
	}
	return "", err
}
