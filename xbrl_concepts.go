package edgar

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
)

//go:embed concept_mappings.json
var conceptMappingsJSON []byte

// StatementKind names one of the financial statements
type StatementKind string

const (
	BalanceSheet    StatementKind = "balance_sheet"
	IncomeStatement StatementKind = "income_statement"
	CashFlow        StatementKind = "cash_flow"
)

// Title returns the heading printed above the statement table
func (k StatementKind) Title() string {
	switch k {
	case BalanceSheet:
		return "Balance Sheet"
	case IncomeStatement:
		return "Income Statement"
	case CashFlow:
		return "Cash Flow Statement"
	}
	return string(k)
}

// ConceptMapping represents the structure of concept_mappings.json
type ConceptMapping struct {
	Schema      string                         `json:"$schema"`
	Description string                         `json:"description"`
	Version     string                         `json:"version"`
	Statements  map[StatementKind][]LineConcept `json:"statements"`
}

// LineConcept is one statement line and the XBRL concepts reporting it, in order of preference
type LineConcept struct {
	Label    string   `json:"label"`
	Concepts []string `json:"concepts"`
	Notes    string   `json:"notes,omitempty"`
}

// ConceptRef is the statement line an XBRL concept reports
type ConceptRef struct {
	Statement StatementKind
	Label     string
}

// conceptMapper provides lookup capabilities for XBRL concepts
type conceptMapper struct {
	statements    map[StatementKind][]LineConcept
	reverseLookup map[string]ConceptRef // lower-cased XBRL concept -> line
}

var globalMapper *conceptMapper

func init() {
	var err error
	globalMapper, err = loadConceptMappings(conceptMappingsJSON)
	if err != nil {
		panic(fmt.Sprintf("Failed to load concept mappings: %v", err))
	}
}

// loadConceptMappings parses the mapping JSON and builds lookup tables
func loadConceptMappings(data []byte) (*conceptMapper, error) {
	var mapping ConceptMapping
	if err := json.Unmarshal(data, &mapping); err != nil {
		return nil, fmt.Errorf("failed to parse concept_mappings.json: %w", err)
	}

	mapper := &conceptMapper{
		statements:    mapping.Statements,
		reverseLookup: make(map[string]ConceptRef),
	}

	labels := make(map[string]bool)
	for kind, lines := range mapping.Statements {
		for _, line := range lines {
			if labels[line.Label] {
				return nil, fmt.Errorf("label %q mapped twice", line.Label)
			}
			labels[line.Label] = true
			for _, concept := range line.Concepts {
				key := strings.ToLower(concept)
				if prev, dup := mapper.reverseLookup[key]; dup {
					return nil, fmt.Errorf("concept %s mapped to both %q and %q", concept, prev.Label, line.Label)
				}
				mapper.reverseLookup[key] = ConceptRef{Statement: kind, Label: line.Label}
			}
		}
	}

	return mapper, nil
}

// Lookup returns the statement line of an XBRL concept. Matching ignores
// case since some filings vary in capitalization.
func (m *conceptMapper) Lookup(xbrlConcept string) (ConceptRef, bool) {
	ref, ok := m.reverseLookup[strings.ToLower(xbrlConcept)]
	return ref, ok
}

// Lines returns the ordered line items of a statement
func (m *conceptMapper) Lines(kind StatementKind) []LineConcept {
	return m.statements[kind]
}

// LookupConcept returns the statement and standardized label an XBRL concept
// reports. ok is false for unmapped concepts.
func LookupConcept(xbrlConcept string) (ConceptRef, bool) {
	return globalMapper.Lookup(xbrlConcept)
}

// StatementLines returns the ordered line items of a statement
func StatementLines(kind StatementKind) []LineConcept {
	return globalMapper.Lines(kind)
}
