package edgar

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// minReportingPeriod separates quarterly and annual durations from the
// short stub periods some filers report
const minReportingPeriod = 80 * 24 * time.Hour

// FactQuery provides a fluent interface for querying XBRL facts
type FactQuery struct {
	facts          []Fact
	conceptFilter  []string
	labelFilter    string
	statement      StatementKind
	periodFilter   string
	instantOnly    bool
	durationOnly   bool
	numericOnly    bool
	nonDimensional bool
}

// Query returns a new FactQuery for the XBRL document
func (x *XBRL) Query() *FactQuery {
	return &FactQuery{facts: x.Facts}
}

// ByConcept filters facts by XBRL concept name (e.g., "us-gaap:Cash"), ignoring case
func (q *FactQuery) ByConcept(concepts ...string) *FactQuery {
	q.conceptFilter = concepts
	return q
}

// ByLabel filters facts by standardized label (e.g., "Cash and Cash Equivalents")
func (q *FactQuery) ByLabel(label string) *FactQuery {
	q.labelFilter = label
	return q
}

// ByStatement filters facts by the statement their concept maps to
func (q *FactQuery) ByStatement(kind StatementKind) *FactQuery {
	q.statement = kind
	return q
}

// ForPeriodEndingOn filters facts by period end date (YYYY-MM-DD)
func (q *FactQuery) ForPeriodEndingOn(date string) *FactQuery {
	q.periodFilter = date
	return q
}

// InstantOnly returns only instant facts (balance sheet items)
func (q *FactQuery) InstantOnly() *FactQuery {
	q.instantOnly = true
	return q
}

// DurationOnly returns only duration facts (income statement items)
func (q *FactQuery) DurationOnly() *FactQuery {
	q.durationOnly = true
	return q
}

// NumericOnly drops facts without a parsed value
func (q *FactQuery) NumericOnly() *FactQuery {
	q.numericOnly = true
	return q
}

// NonDimensional drops facts reported against a segment or scenario
func (q *FactQuery) NonDimensional() *FactQuery {
	q.nonDimensional = true
	return q
}

// Get returns all matching facts
func (q *FactQuery) Get() []Fact {
	var results []Fact

	for _, fact := range q.facts {
		if len(q.conceptFilter) > 0 {
			matched := false
			for _, concept := range q.conceptFilter {
				if strings.EqualFold(fact.Concept, concept) {
					matched = true
					break
				}
			}
			if !matched {
				continue
			}
		}

		if q.labelFilter != "" && fact.StandardLabel != q.labelFilter {
			continue
		}
		if q.statement != "" && fact.Statement != q.statement {
			continue
		}

		if q.periodFilter != "" {
			endDate, err := fact.GetEndDate()
			if err != nil {
				continue
			}
			if endDate.Format(time.DateOnly) != q.periodFilter {
				continue
			}
		}

		if q.instantOnly && !fact.IsInstant() {
			continue
		}
		if q.durationOnly && !fact.IsDuration() {
			continue
		}
		if q.numericOnly && !fact.IsNumeric() {
			continue
		}
		if q.nonDimensional && fact.IsDimensional() {
			continue
		}

		results = append(results, fact)
	}

	return results
}

// First returns the first matching fact, or error if none found
func (q *FactQuery) First() (*Fact, error) {
	results := q.Get()
	if len(results) == 0 {
		return nil, fmt.Errorf("no facts found")
	}
	return &results[0], nil
}

// MostRecent returns the fact with the most recent period end date
func (q *FactQuery) MostRecent() (*Fact, error) {
	results := q.Get()
	if len(results) == 0 {
		return nil, fmt.Errorf("no facts found")
	}

	sort.SliceStable(results, func(i, j int) bool {
		dateI, errI := results[i].GetEndDate()
		dateJ, errJ := results[j].GetEndDate()
		if errI != nil || errJ != nil {
			return false
		}
		return dateI.After(dateJ)
	})

	return &results[0], nil
}

// LineItem is one row of a statement table
type LineItem struct {
	Label   string          `json:"label" yaml:"label"`
	Concept string          `json:"concept" yaml:"concept"`
	Value   decimal.Decimal `json:"value" yaml:"value"`
	Unit    string          `json:"unit,omitempty" yaml:"unit,omitempty"`
}

// Statement is a balance sheet, income statement or cash flow statement for one period
type Statement struct {
	Kind   StatementKind `json:"kind" yaml:"kind"`
	Period Period        `json:"period" yaml:"period"`
	Items  []LineItem    `json:"items" yaml:"items"`
}

// Empty reports whether the statement has no line items
func (s *Statement) Empty() bool {
	return s == nil || len(s.Items) == 0
}

// Map returns the statement as label -> value
func (s *Statement) Map() map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(s.Items))
	for _, item := range s.Items {
		out[item.Label] = item.Value
	}
	return out
}

// Value returns the value of a line by label
func (s *Statement) Value(label string) (decimal.Decimal, bool) {
	for _, item := range s.Items {
		if item.Label == label {
			return item.Value, true
		}
	}
	return decimal.Zero, false
}

// BalanceSheet returns the balance sheet at the document period end date,
// or at the latest reported instant when the cover page gives none
func (x *XBRL) BalanceSheet() *Statement {
	var ends []string
	if end := strings.TrimSpace(x.DocumentInfo().PeriodEnd); end != "" {
		ends = append(ends, end)
	}
	if doc, ok := x.documentPeriod(); ok {
		ends = append(ends, doc.End())
	}
	for _, end := range ends {
		if facts := x.statementFacts(BalanceSheet).InstantOnly().ForPeriodEndingOn(end).Get(); len(facts) > 0 {
			return x.buildStatement(BalanceSheet, Period{Instant: end}, facts)
		}
	}

	latest, err := x.statementFacts(BalanceSheet).InstantOnly().MostRecent()
	if err != nil {
		return &Statement{Kind: BalanceSheet}
	}
	period := Period{Instant: latest.Period.Instant}
	return x.buildStatement(BalanceSheet, period, x.statementFacts(BalanceSheet).InstantOnly().Get())
}

// IncomeStatement returns the income statement for the period of the document
// context (the quarter for a 10-Q, the fiscal year for a 10-K)
func (x *XBRL) IncomeStatement() *Statement {
	facts := x.statementFacts(IncomeStatement).DurationOnly().Get()
	period, ok := x.reportingPeriod(IncomeStatement, facts)
	if !ok {
		return &Statement{Kind: IncomeStatement}
	}
	return x.buildStatement(IncomeStatement, period, facts)
}

// CashFlowStatement returns the cash flow statement for the longest duration
// ending on the document period end date. Quarterly filings report it year to date.
func (x *XBRL) CashFlowStatement() *Statement {
	facts := x.statementFacts(CashFlow).DurationOnly().Get()
	period, ok := x.reportingPeriod(CashFlow, facts)
	if !ok {
		return &Statement{Kind: CashFlow}
	}
	return x.buildStatement(CashFlow, period, facts)
}

// Statement returns the statement of the given kind
func (x *XBRL) Statement(kind StatementKind) *Statement {
	switch kind {
	case BalanceSheet:
		return x.BalanceSheet()
	case IncomeStatement:
		return x.IncomeStatement()
	case CashFlow:
		return x.CashFlowStatement()
	}
	return &Statement{Kind: kind}
}

func (x *XBRL) statementFacts(kind StatementKind) *FactQuery {
	return x.Query().ByStatement(kind).NumericOnly().NonDimensional()
}

// documentPeriod returns the period of the context the cover page facts are
// reported in
func (x *XBRL) documentPeriod() (Period, bool) {
	for _, concept := range []string{"dei:DocumentType", "dei:DocumentPeriodEndDate"} {
		fact, err := x.Query().ByConcept(concept).NonDimensional().First()
		if err == nil && fact.Period != nil && fact.Period.End() != "" {
			return *fact.Period, true
		}
	}
	return Period{}, false
}

// annual reports whether the document covers a fiscal year
func (x *XBRL) annual() bool {
	info := x.DocumentInfo()
	return strings.HasPrefix(info.FormType, "10-K") || strings.EqualFold(info.FiscalPeriod, "FY")
}

// reportingPeriod picks the duration a flow statement covers. The income
// statement takes the document context itself when it has facts for it.
// Otherwise durations ending on the document end date are tried, then
// durations ending on the latest end date: the shortest for a quarterly
// income statement, the longest for annual ones and for cash flow.
func (x *XBRL) reportingPeriod(kind StatementKind, facts []Fact) (Period, bool) {
	doc, hasDoc := x.documentPeriod()
	if hasDoc && kind == IncomeStatement && doc.StartDate != "" && hasPeriod(facts, doc) {
		return doc, true
	}

	shortest := kind == IncomeStatement && !x.annual()
	if hasDoc {
		if period, ok := primaryDuration(facts, doc.End(), shortest); ok {
			return period, true
		}
	}
	return primaryDuration(facts, "", shortest)
}

func hasPeriod(facts []Fact, period Period) bool {
	for _, f := range facts {
		if f.Period != nil && *f.Period == period {
			return true
		}
	}
	return false
}

// primaryDuration picks a duration of at least minReportingPeriod among facts
// ending on end, or on the latest end date when end is empty
func primaryDuration(facts []Fact, end string, shortest bool) (Period, bool) {
	if end == "" {
		for _, f := range facts {
			if f.Period.EndDate > end {
				end = f.Period.EndDate
			}
		}
		if end == "" {
			return Period{}, false
		}
	}

	var (
		best    Period
		bestLen time.Duration
		found   bool
	)
	for _, f := range facts {
		if f.Period.EndDate != end {
			continue
		}
		d, err := f.Duration()
		if err != nil || d < minReportingPeriod {
			continue
		}
		if !found || (shortest && d < bestLen) || (!shortest && d > bestLen) {
			best, bestLen, found = *f.Period, d, true
		}
	}
	return best, found
}

// buildStatement fills the statement lines in mapping order; within a line the
// first listed concept reported for the period wins
func (x *XBRL) buildStatement(kind StatementKind, period Period, facts []Fact) *Statement {
	stmt := &Statement{Kind: kind, Period: period}

	for _, line := range StatementLines(kind) {
		candidates := (&FactQuery{facts: facts}).ByLabel(line.Label).Get()
		for _, concept := range line.Concepts {
			fact, ok := findFact(candidates, concept, period)
			if !ok {
				continue
			}
			stmt.Items = append(stmt.Items, LineItem{
				Label:   line.Label,
				Concept: fact.Concept,
				Value:   *fact.Numeric,
				Unit:    x.UnitLabel(fact.UnitRef),
			})
			break
		}
	}

	return stmt
}

func findFact(facts []Fact, concept string, period Period) (*Fact, bool) {
	for i := range facts {
		f := &facts[i]
		if strings.EqualFold(f.Concept, concept) && *f.Period == period {
			return f, true
		}
	}
	return nil, false
}

// DocumentInfo is the Document and Entity Information (dei) cover data
type DocumentInfo struct {
	CompanyName   string `json:"companyName,omitempty" yaml:"company_name,omitempty"`
	CIK           string `json:"cik,omitempty" yaml:"cik,omitempty"`
	TradingSymbol string `json:"tradingSymbol,omitempty" yaml:"trading_symbol,omitempty"`
	FormType      string `json:"formType,omitempty" yaml:"form_type,omitempty"`       // "10-K", "10-Q", etc.
	PeriodEnd     string `json:"periodEnd,omitempty" yaml:"period_end,omitempty"`     // DocumentPeriodEndDate
	FiscalYear    string `json:"fiscalYear,omitempty" yaml:"fiscal_year,omitempty"`   // DocumentFiscalYearFocus
	FiscalPeriod  string `json:"fiscalPeriod,omitempty" yaml:"fiscal_period,omitempty"` // "FY" for 10-K, "Q1/Q2/Q3" for 10-Q
}

// DocumentInfo extracts company and document metadata from DEI facts
func (x *XBRL) DocumentInfo() DocumentInfo {
	var info DocumentInfo
	for _, fact := range x.Facts {
		switch fact.Concept {
		case "dei:EntityRegistrantName":
			info.CompanyName = fact.Value
		case "dei:EntityCentralIndexKey":
			info.CIK = fact.Value
		case "dei:TradingSymbol":
			info.TradingSymbol = fact.Value
		case "dei:DocumentType":
			info.FormType = fact.Value
		case "dei:DocumentPeriodEndDate":
			info.PeriodEnd = fact.Value
		case "dei:DocumentFiscalYearFocus":
			info.FiscalYear = fact.Value
		case "dei:DocumentFiscalPeriodFocus":
			info.FiscalPeriod = fact.Value
		}
	}
	return info
}
