package edgar

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Document kinds returned by DetectXBRLType
const (
	XBRLInline     = "inline"
	XBRLStandalone = "standalone"
	XBRLUnknown    = "unknown"
)

// ParseInlineXBRL parses an inline XBRL (iXBRL) document from HTML
// Inline XBRL embeds XBRL facts within HTML using the ix: namespace
func ParseInlineXBRL(data []byte) (*XBRL, error) {
	xbrl := &XBRL{}

	if err := extractInline(xbrl, data); err != nil {
		return nil, fmt.Errorf("failed to extract facts: %w", err)
	}

	if err := resolveFacts(xbrl); err != nil {
		return nil, fmt.Errorf("failed to resolve facts: %w", err)
	}

	return xbrl, nil
}

// newHTMLDecoder tolerates the HTML entities and void elements of filed XHTML
func newHTMLDecoder(r io.Reader) *xml.Decoder {
	decoder := newDecoder(r)
	decoder.Strict = false
	decoder.AutoClose = xml.HTMLAutoClose
	decoder.Entity = xml.HTMLEntity
	return decoder
}

// extractInline collects contexts and units from ix:resources and facts
// from ix:nonFraction and ix:nonNumeric tags in a single pass
func extractInline(xbrl *XBRL, data []byte) error {
	decoder := newHTMLDecoder(bytes.NewReader(data))

	inResources := false

	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}

		switch elem := token.(type) {
		case xml.StartElement:
			switch elem.Name.Local {
			case "resources":
				inResources = true
			case "context":
				if !inResources {
					continue
				}
				var ctx Context
				if err := decoder.DecodeElement(&ctx, &elem); err != nil {
					return fmt.Errorf("failed to decode context: %w", err)
				}
				xbrl.Contexts = append(xbrl.Contexts, ctx)
			case "unit":
				if !inResources {
					continue
				}
				var unit Unit
				if err := decoder.DecodeElement(&unit, &elem); err != nil {
					return fmt.Errorf("failed to decode unit: %w", err)
				}
				xbrl.Units = append(xbrl.Units, unit)
			case "nonFraction", "nonNumeric":
				fact, ok, err := decodeInlineFact(decoder, elem)
				if err != nil {
					return err
				}
				if ok {
					xbrl.Facts = append(xbrl.Facts, fact)
				}
			}

		case xml.EndElement:
			if elem.Name.Local == "resources" {
				inResources = false
			}
		}
	}

	return nil
}

func decodeInlineFact(decoder *xml.Decoder, elem xml.StartElement) (Fact, bool, error) {
	value, err := elementText(decoder, elem)
	if err != nil {
		return Fact{}, false, fmt.Errorf("failed to read %s: %w", elem.Name.Local, err)
	}

	contextRef := getAttr(elem.Attr, "contextRef")
	conceptName := getAttr(elem.Attr, "name")
	if contextRef == "" || conceptName == "" {
		return Fact{}, false, nil
	}

	fact := Fact{
		Concept:    conceptName,
		Value:      CleanExtractedText(value),
		ContextRef: contextRef,
		UnitRef:    getAttr(elem.Attr, "unitRef"),
		Decimals:   getAttr(elem.Attr, "decimals"),
		Nil:        getAttr(elem.Attr, "nil") == "true",
	}

	if elem.Name.Local != "nonFraction" || fact.Nil {
		return fact, true, nil
	}

	num, err := ParseInlineNumber(fact.Value, getAttr(elem.Attr, "format"))
	if err != nil {
		// Unparseable display text stays as a non-numeric fact
		return fact, true, nil
	}
	if scale := getAttr(elem.Attr, "scale"); scale != "" {
		s, err := strconv.Atoi(scale)
		if err != nil {
			return Fact{}, false, fmt.Errorf("invalid scale %q on %s", scale, conceptName)
		}
		num = num.Shift(int32(s))
	}
	if getAttr(elem.Attr, "sign") == "-" {
		num = num.Neg()
	}
	fact.Numeric = &num
	return fact, true, nil
}

// elementText returns the concatenated character data of elem and its children
func elementText(decoder *xml.Decoder, elem xml.StartElement) (string, error) {
	var sb strings.Builder
	depth := 1
	for depth > 0 {
		token, err := decoder.Token()
		if err != nil {
			return "", err
		}
		switch t := token.(type) {
		case xml.StartElement:
			depth++
		case xml.EndElement:
			depth--
		case xml.CharData:
			sb.Write(t)
		}
	}
	return sb.String(), nil
}

// DetectXBRLType determines if the data is inline XBRL or standalone XBRL
func DetectXBRLType(data []byte) string {
	content := string(data)

	if strings.Contains(content, "xmlns:ix=") ||
		strings.Contains(content, "<ix:") ||
		strings.Contains(content, "inlineXBRL") {
		return XBRLInline
	}

	if strings.Contains(content, "<xbrl") ||
		strings.Contains(content, "xmlns:xbrli=") {
		return XBRLStandalone
	}

	return XBRLUnknown
}

// ParseXBRLAuto automatically detects and parses inline or standalone XBRL
func ParseXBRLAuto(data []byte) (*XBRL, error) {
	switch DetectXBRLType(data) {
	case XBRLInline:
		return ParseInlineXBRL(data)
	case XBRLStandalone:
		return ParseXBRL(data)
	default:
		return nil, fmt.Errorf("unable to detect XBRL type")
	}
}
