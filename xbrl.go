package edgar

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/net/html/charset"
)

// XBRL represents a parsed XBRL instance document (10-K, 10-Q, etc.)
type XBRL struct {
	XMLName  xml.Name  `xml:"xbrl"`
	Contexts []Context `xml:"context"`
	Units    []Unit    `xml:"unit"`
	Facts    []Fact    `xml:"-"` // Populated during parsing
}

// Context defines the dimensional context for facts (period, entity, segments)
type Context struct {
	ID       string     `xml:"id,attr"`
	Entity   Entity     `xml:"entity"`
	Period   Period     `xml:"period"`
	Scenario *Qualifier `xml:"scenario"`
}

// Entity identifies the reporting company
type Entity struct {
	Identifier string     `xml:"identifier"`
	Segment    *Qualifier `xml:"segment"`
}

// Qualifier is a segment or scenario block narrowing a context
type Qualifier struct {
	ExplicitMembers []Member `xml:"explicitMember"`
	TypedMembers    []Member `xml:"typedMember"`
	Inner           string   `xml:",innerxml"`
}

// Member is one dimension/value pair (us-gaap:StatementBusinessSegmentsAxis = aapl:IPhoneMember)
type Member struct {
	Dimension string `xml:"dimension,attr"`
	Value     string `xml:",chardata"`
}

// Period defines the time period for a fact (instant or duration)
type Period struct {
	Instant   string `xml:"instant,omitempty"`   // Point in time (balance sheet)
	StartDate string `xml:"startDate,omitempty"` // Duration start (income statement)
	EndDate   string `xml:"endDate,omitempty"`   // Duration end
}

// Unit defines the measurement unit for a fact (USD, shares, etc.)
type Unit struct {
	ID      string  `xml:"id,attr"`
	Measure string  `xml:"measure"`
	Divide  *Divide `xml:"divide,omitempty"` // For ratios like USD/share
}

// Divide represents a ratio unit (numerator/denominator)
type Divide struct {
	Numerator   string `xml:"unitNumerator>measure"`
	Denominator string `xml:"unitDenominator>measure"`
}

// Fact represents a single XBRL fact (financial data point)
type Fact struct {
	Concept    string // XBRL concept name (e.g., "us-gaap:Cash")
	Value      string // Raw value as string
	ContextRef string // Reference to Context.ID
	UnitRef    string // Reference to Unit.ID
	Decimals   string // Precision as written ("-6", "INF", "")
	Nil        bool   // xsi:nil="true"

	// Derived fields (populated after parsing)
	StandardLabel string           // Standardized concept label (from mappings)
	Statement     StatementKind    // Statement the concept belongs to, if mapped
	Context       *Context         // Resolved context
	Period        *Period          // Resolved period from context
	Numeric       *decimal.Decimal // Parsed numeric value (nil if non-numeric)
}

// HasDimensions reports whether the context is qualified by a segment or scenario
func (c *Context) HasDimensions() bool {
	return c.Entity.Segment.nonEmpty() || c.Scenario.nonEmpty()
}

// Members returns every explicit and typed member of the context
func (c *Context) Members() []Member {
	var out []Member
	for _, q := range []*Qualifier{c.Entity.Segment, c.Scenario} {
		if q == nil {
			continue
		}
		out = append(out, q.ExplicitMembers...)
		out = append(out, q.TypedMembers...)
	}
	return out
}

func (q *Qualifier) nonEmpty() bool {
	if q == nil {
		return false
	}
	return len(q.ExplicitMembers) > 0 || len(q.TypedMembers) > 0 || strings.TrimSpace(q.Inner) != ""
}

// Label returns the unit as written in tables (USD, shares, USD/shares)
func (u *Unit) Label() string {
	if u.Divide != nil {
		return localName(u.Divide.Numerator) + "/" + localName(u.Divide.Denominator)
	}
	return localName(u.Measure)
}

// newDecoder returns an XML decoder that understands the legacy charsets found in older filings
func newDecoder(r io.Reader) *xml.Decoder {
	decoder := xml.NewDecoder(r)
	decoder.CharsetReader = charset.NewReaderLabel
	return decoder
}

// ParseXBRL parses an XBRL instance document from XML bytes
func ParseXBRL(data []byte) (*XBRL, error) {
	var xbrl XBRL
	if err := newDecoder(bytes.NewReader(data)).Decode(&xbrl); err != nil {
		return nil, fmt.Errorf("failed to parse XBRL XML: %w", err)
	}

	// XBRL facts are dynamic elements (us-gaap:Cash, us-gaap:Revenue, etc.)
	// so they are collected with a token walk
	if err := extractFacts(&xbrl, data); err != nil {
		return nil, fmt.Errorf("failed to extract facts: %w", err)
	}

	if err := resolveFacts(&xbrl); err != nil {
		return nil, fmt.Errorf("failed to resolve facts: %w", err)
	}

	return &xbrl, nil
}

// extractFacts parses the XML tree to find all fact elements
// XBRL facts are dynamic elements with namespaces (us-gaap:*, dei:*, etc.)
func extractFacts(xbrl *XBRL, data []byte) error {
	decoder := newDecoder(bytes.NewReader(data))
	prefixes := make(map[string]string) // namespace URI -> declared prefix

	var facts []Fact

	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}

		elem, ok := token.(xml.StartElement)
		if !ok {
			continue
		}
		for _, attr := range elem.Attr {
			if attr.Name.Space == "xmlns" {
				prefixes[attr.Value] = attr.Name.Local
			}
		}

		// Fact elements are the ones carrying a contextRef attribute
		contextRef := getAttr(elem.Attr, "contextRef")
		if contextRef == "" {
			continue
		}

		var value string
		if err := decoder.DecodeElement(&value, &elem); err != nil {
			return fmt.Errorf("failed to decode %s: %w", elem.Name.Local, err)
		}

		conceptName := elem.Name.Local
		if elem.Name.Space != "" {
			prefix, ok := prefixes[elem.Name.Space]
			if !ok {
				prefix = getNamespacePrefix(elem.Name.Space)
			}
			conceptName = prefix + ":" + elem.Name.Local
		}

		facts = append(facts, Fact{
			Concept:    conceptName,
			Value:      strings.TrimSpace(value),
			ContextRef: contextRef,
			UnitRef:    getAttr(elem.Attr, "unitRef"),
			Decimals:   getAttr(elem.Attr, "decimals"),
			Nil:        getAttr(elem.Attr, "nil") == "true",
		})
	}

	xbrl.Facts = facts
	return nil
}

// resolveFacts enriches facts with resolved contexts and standardized labels
func resolveFacts(xbrl *XBRL) error {
	contextMap := make(map[string]*Context, len(xbrl.Contexts))
	for i := range xbrl.Contexts {
		contextMap[xbrl.Contexts[i].ID] = &xbrl.Contexts[i]
	}

	for i := range xbrl.Facts {
		fact := &xbrl.Facts[i]

		if ctx, ok := contextMap[fact.ContextRef]; ok {
			fact.Context = ctx
			fact.Period = &ctx.Period
		}

		if ref, ok := LookupConcept(fact.Concept); ok {
			fact.StandardLabel = ref.Label
			fact.Statement = ref.Statement
		}

		// Only unit-bearing facts are numeric; text blocks never are
		if fact.UnitRef == "" || fact.Nil || fact.Numeric != nil {
			continue
		}
		if val, err := decimal.NewFromString(strings.ReplaceAll(fact.Value, ",", "")); err == nil {
			fact.Numeric = &val
		}
	}

	return nil
}

// UnitLabel returns the display label of a unit id, or the id itself if undeclared
func (x *XBRL) UnitLabel(id string) string {
	for i := range x.Units {
		if x.Units[i].ID == id {
			return x.Units[i].Label()
		}
	}
	return id
}

// getAttr gets an attribute value by name
func getAttr(attrs []xml.Attr, name string) string {
	for _, attr := range attrs {
		if attr.Name.Local == name {
			return attr.Value
		}
	}
	return ""
}

// getNamespacePrefix guesses a prefix for an undeclared namespace URI
// Example: "http://fasb.org/us-gaap/2023" -> "us-gaap"
func getNamespacePrefix(namespace string) string {
	if strings.Contains(namespace, "us-gaap") {
		return "us-gaap"
	}
	if strings.Contains(namespace, "/dei/") {
		return "dei"
	}
	if strings.Contains(namespace, "xbrli") {
		return "xbrli"
	}

	parts := strings.Split(strings.TrimRight(namespace, "/"), "/")
	if len(parts) > 0 && parts[len(parts)-1] != "" {
		return parts[len(parts)-1]
	}

	return "unknown"
}

func localName(qname string) string {
	qname = strings.TrimSpace(qname)
	if i := strings.LastIndex(qname, ":"); i >= 0 {
		return qname[i+1:]
	}
	return qname
}

// IsNumeric reports whether the fact carries a parsed numeric value
func (f *Fact) IsNumeric() bool {
	return f.Numeric != nil
}

// IsInstant returns true if this fact is for a point in time (balance sheet)
func (f *Fact) IsInstant() bool {
	return f.Period != nil && f.Period.Instant != ""
}

// IsDuration returns true if this fact is for a time period (income statement)
func (f *Fact) IsDuration() bool {
	return f.Period != nil && f.Period.StartDate != "" && f.Period.EndDate != ""
}

// IsDimensional reports whether the fact belongs to a segment or scenario context
func (f *Fact) IsDimensional() bool {
	return f.Context != nil && f.Context.HasDimensions()
}

// GetEndDate returns the end date of the period
func (f *Fact) GetEndDate() (time.Time, error) {
	if f.Period == nil {
		return time.Time{}, fmt.Errorf("fact has no period")
	}

	dateStr := f.Period.EndDate
	if dateStr == "" {
		dateStr = f.Period.Instant
	}

	if dateStr == "" {
		return time.Time{}, fmt.Errorf("fact has no end date or instant")
	}

	return time.Parse(time.DateOnly, dateStr)
}

// Duration returns the length of a duration period
func (f *Fact) Duration() (time.Duration, error) {
	if !f.IsDuration() {
		return 0, fmt.Errorf("fact %s is not a duration", f.Concept)
	}
	start, err := time.Parse(time.DateOnly, f.Period.StartDate)
	if err != nil {
		return 0, err
	}
	end, err := time.Parse(time.DateOnly, f.Period.EndDate)
	if err != nil {
		return 0, err
	}
	return end.Sub(start), nil
}

// GetPeriodLabel returns a human-readable period label
func (f *Fact) GetPeriodLabel() string {
	if f.Period == nil {
		return "Unknown"
	}
	return f.Period.Label()
}

// Label returns the period as shown in table headings
func (p Period) Label() string {
	if p.Instant != "" {
		return p.Instant
	}
	if p.StartDate != "" && p.EndDate != "" {
		return fmt.Sprintf("%s to %s", p.StartDate, p.EndDate)
	}
	return "Unknown"
}

// End returns the instant, or the end date of a duration
func (p Period) End() string {
	if p.Instant != "" {
		return p.Instant
	}
	return p.EndDate
}
