package edgar

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"text/tabwriter"

	"github.com/shopspring/decimal"
)

// Section is one parsed filing ready for display
type Section struct {
	Label           string       `json:"label" yaml:"label"`
	Period          YearQuarter  `json:"period" yaml:"period"`
	Path            string       `json:"path" yaml:"path"`
	Document        DocumentInfo `json:"document" yaml:"document"`
	BalanceSheet    *Statement   `json:"balanceSheet" yaml:"balance_sheet"`
	IncomeStatement *Statement   `json:"incomeStatement" yaml:"income_statement"`
}

// Statements returns the tables of the section in display order
func (s Section) Statements() []*Statement {
	return []*Statement{s.BalanceSheet, s.IncomeStatement}
}

// Renderer displays sections as they are produced
type Renderer interface {
	RenderSection(Section) error
}

// RendererFunc adapts a function to Renderer
type RendererFunc func(Section) error

func (f RendererFunc) RenderSection(s Section) error { return f(s) }

// TextRenderer writes sections as aligned text tables
type TextRenderer struct {
	w io.Writer
}

// NewTextRenderer creates a renderer writing to w
func NewTextRenderer(w io.Writer) *TextRenderer {
	return &TextRenderer{w: w}
}

func (t *TextRenderer) RenderSection(s Section) error {
	if _, err := fmt.Fprintf(t.w, "%s\n\n", s.Label); err != nil {
		return err
	}
	for _, stmt := range s.Statements() {
		if err := WriteStatementTable(t.w, stmt); err != nil {
			return err
		}
	}
	return nil
}

// WriteStatementTable writes one statement as a titled two-column table
func WriteStatementTable(w io.Writer, stmt *Statement) error {
	if stmt == nil {
		return nil
	}
	if _, err := fmt.Fprintf(w, "%s (%s)\n", stmt.Kind.Title(), stmt.Period.Label()); err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, item := range stmt.Items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t\n", item.Label, FormatAmount(item.Value), item.Unit)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w)
	return err
}

// Collector keeps every rendered section in order
type Collector struct {
	mu       sync.Mutex
	sections []Section
}

func (c *Collector) RenderSection(s Section) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sections = append(c.sections, s)
	return nil
}

// Sections returns a copy of the collected sections
func (c *Collector) Sections() []Section {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Section(nil), c.sections...)
}

// FormatAmount renders a value with thousands separators (1234567.5 -> 1,234,567.5)
func FormatAmount(d decimal.Decimal) string {
	s := d.String()
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}

	intPart, frac := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, frac = s[:i], s[i:]
	}

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return sign + b.String() + frac
}
