package edgar

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
)

// Submissions represents the complete SEC submissions data for a CIK
type Submissions struct {
	CIK            string      `json:"cik"`
	EntityType     string      `json:"entityType"`
	SIC            string      `json:"sic"`
	SICDescription string      `json:"sicDescription"`
	Name           string      `json:"name"`
	Ticker         []string    `json:"tickers"`
	Exchanges      []string    `json:"exchanges"`
	FiscalYearEnd  string      `json:"fiscalYearEnd"`
	Filings        FilingsData `json:"filings"`
}

// FilingsData contains recent and paginated filings information
type FilingsData struct {
	Recent FilingArrays `json:"recent"`
	Files  []FilingFile `json:"files"`
}

// FilingFile represents a paginated file containing older filings
type FilingFile struct {
	Name        string `json:"name"`
	FilingCount int    `json:"filingCount"`
	FilingFrom  string `json:"filingFrom"`
	FilingTo    string `json:"filingTo"`
}

// FilingArrays contains parallel arrays of filing data
// Each index in the arrays represents one filing
type FilingArrays struct {
	AccessionNumber       []string `json:"accessionNumber"`
	FilingDate            []string `json:"filingDate"`
	ReportDate            []string `json:"reportDate"`
	Form                  []string `json:"form"`
	Size                  []int    `json:"size"`
	IsXBRL                []int    `json:"isXBRL"`
	IsInlineXBRL          []int    `json:"isInlineXBRL"`
	PrimaryDocument       []string `json:"primaryDocument"`
	PrimaryDocDescription []string `json:"primaryDocDescription"`
}

// Filing represents a single filing with all its metadata
type Filing struct {
	AccessionNumber       string
	FilingDate            string
	ReportDate            string
	Form                  string
	Size                  int
	IsXBRL                bool
	IsInlineXBRL          bool
	PrimaryDocument       string
	PrimaryDocDescription string
	// Derived fields
	CIK string
}

// FetchSubmissions fetches and parses the CIK submissions JSON from SEC
func (c *Client) FetchSubmissions(ctx context.Context, cik string) (*Submissions, error) {
	url := fmt.Sprintf("%s/submissions/CIK%s.json", c.dataBaseURL, PadCIK(cik))

	data, err := c.Get(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch submissions: %w", err)
	}
	return ParseSubmissions(bytes.NewReader(data))
}

// ParseSubmissions parses a submissions JSON from a reader (for local files or testing)
func ParseSubmissions(r io.Reader) (*Submissions, error) {
	var subs Submissions
	if err := json.NewDecoder(r).Decode(&subs); err != nil {
		return nil, fmt.Errorf("failed to parse submissions JSON: %w", err)
	}
	return &subs, nil
}

// FetchPaginatedFilings fetches and parses a paginated filings file
func (c *Client) FetchPaginatedFilings(ctx context.Context, filename string) (*FilingArrays, error) {
	url := fmt.Sprintf("%s/submissions/%s", c.dataBaseURL, filename)

	data, err := c.Get(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch paginated filings: %w", err)
	}

	// Paginated files only contain the FilingArrays
	var filings FilingArrays
	if err := json.Unmarshal(data, &filings); err != nil {
		return nil, fmt.Errorf("failed to parse paginated filings JSON: %w", err)
	}
	return &filings, nil
}

// GetFilings converts the parallel arrays in FilingArrays into a slice of Filing structs
func (fa *FilingArrays) GetFilings(cik string) []Filing {
	count := len(fa.AccessionNumber)
	filings := make([]Filing, 0, count)

	for i := 0; i < count; i++ {
		if i >= len(fa.FilingDate) || i >= len(fa.Form) {
			break
		}
		filing := Filing{
			CIK:             cik,
			AccessionNumber: fa.AccessionNumber[i],
			FilingDate:      fa.FilingDate[i],
			Form:            fa.Form[i],
		}

		// Handle optional fields with bounds checking
		if i < len(fa.PrimaryDocument) {
			filing.PrimaryDocument = fa.PrimaryDocument[i]
		}
		if i < len(fa.ReportDate) {
			filing.ReportDate = fa.ReportDate[i]
		}
		if i < len(fa.Size) {
			filing.Size = fa.Size[i]
		}
		if i < len(fa.IsXBRL) {
			filing.IsXBRL = fa.IsXBRL[i] != 0
		}
		if i < len(fa.IsInlineXBRL) {
			filing.IsInlineXBRL = fa.IsInlineXBRL[i] != 0
		}
		if i < len(fa.PrimaryDocDescription) {
			filing.PrimaryDocDescription = fa.PrimaryDocDescription[i]
		}

		filings = append(filings, filing)
	}

	return filings
}

// FolderURL returns the archive folder holding every document of the filing
func (f *Filing) FolderURL(archivesBaseURL string) string {
	// https://www.sec.gov/Archives/edgar/data/{CIK}/{ACCESSION}/
	return fmt.Sprintf("%s/%s/%s",
		strings.TrimRight(archivesBaseURL, "/"),
		strings.TrimLeft(f.CIK, "0"),
		strings.ReplaceAll(f.AccessionNumber, "-", ""),
	)
}

// GetRecentFilings returns all recent filings as a slice
func (s *Submissions) GetRecentFilings() []Filing {
	return s.Filings.Recent.GetFilings(s.CIK)
}

// GetFilingsSince returns recent filings plus every paginated file that may
// hold filings dated on or after since (YYYY-MM-DD)
func (s *Submissions) GetFilingsSince(ctx context.Context, c *Client, since string) ([]Filing, error) {
	allFilings := s.GetRecentFilings()

	for _, fileInfo := range s.Filings.Files {
		if fileInfo.FilingTo != "" && fileInfo.FilingTo < since {
			continue
		}
		page, err := c.FetchPaginatedFilings(ctx, fileInfo.Name)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch %s: %w", fileInfo.Name, err)
		}
		allFilings = append(allFilings, page.GetFilings(s.CIK)...)
	}

	return allFilings, nil
}

// FilterByForm filters filings by exact form type.
// "10-K" does not match "10-K/A"; request amendments explicitly.
func FilterByForm(filings []Filing, formType string) []Filing {
	formType = strings.TrimSpace(formType)
	var filtered []Filing
	for _, f := range filings {
		if f.Form == formType {
			filtered = append(filtered, f)
		}
	}
	return filtered
}

// LatestInWindow returns up to amount filings filed on or after the after date
// and strictly before the before date, newest first. An empty before leaves the
// window open.
func LatestInWindow(filings []Filing, after, before string, amount int) []Filing {
	var filtered []Filing
	for _, f := range filings {
		if f.FilingDate < after || (before != "" && f.FilingDate >= before) {
			continue
		}
		filtered = append(filtered, f)
	}
	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].FilingDate > filtered[j].FilingDate
	})
	if amount > 0 && len(filtered) > amount {
		filtered = filtered[:amount]
	}
	return filtered
}

// PadCIK pads a CIK number to 10 digits with leading zeros
func PadCIK(cik string) string {
	cik = strings.TrimLeft(strings.TrimSpace(cik), "0")
	if len(cik) >= 10 {
		return cik
	}
	return strings.Repeat("0", 10-len(cik)) + cik
}
