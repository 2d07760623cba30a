package edgar

import (
	"fmt"
	"io"
	"os"
)

// Parsed is the result of parsing one XBRL document
type Parsed struct {
	Document        DocumentInfo `json:"document" yaml:"document"`
	BalanceSheet    *Statement   `json:"balanceSheet" yaml:"balance_sheet"`
	IncomeStatement *Statement   `json:"incomeStatement" yaml:"income_statement"`
	CashFlow        *Statement   `json:"cashFlow,omitempty" yaml:"cash_flow,omitempty"`
	FactCount       int          `json:"factCount" yaml:"fact_count"`
}

// Parse reads an XBRL document, auto-detecting inline or standalone markup
func Parse(r io.Reader) (*XBRL, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}
	return ParseXBRLAuto(data)
}

// ParseFile parses the XBRL document at path
func ParseFile(path string) (*XBRL, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	return Parse(f)
}

// ParseStatements parses a document and derives its statements
func ParseStatements(r io.Reader) (*Parsed, error) {
	x, err := Parse(r)
	if err != nil {
		return nil, err
	}
	return x.Statements(), nil
}

// Statements derives every statement of the document
func (x *XBRL) Statements() *Parsed {
	return &Parsed{
		Document:        x.DocumentInfo(),
		BalanceSheet:    x.BalanceSheet(),
		IncomeStatement: x.IncomeStatement(),
		CashFlow:        x.CashFlowStatement(),
		FactCount:       len(x.Facts),
	}
}
