package edgar

import (
	"os"
	"strings"
	"testing"
)

func loadAppleSubmissions(t *testing.T) *Submissions {
	t.Helper()
	f, err := os.Open("testdata/cik/CIK0000320193.json")
	if err != nil {
		t.Fatalf("Failed to open test file: %v", err)
	}
	defer f.Close()

	subs, err := ParseSubmissions(f)
	if err != nil {
		t.Fatalf("Failed to parse submissions: %v", err)
	}
	return subs
}

func TestParseSubmissions(t *testing.T) {
	subs := loadAppleSubmissions(t)

	if subs.CIK != "320193" {
		t.Errorf("Expected CIK 320193, got %s", subs.CIK)
	}
	if subs.Name != "Apple Inc." {
		t.Errorf("Expected name Apple Inc., got %s", subs.Name)
	}
	if len(subs.Filings.Recent.AccessionNumber) != 7 {
		t.Errorf("Expected 7 recent filings, got %d", len(subs.Filings.Recent.AccessionNumber))
	}
	if len(subs.Filings.Files) != 1 {
		t.Fatalf("Expected 1 pagination file, got %d", len(subs.Filings.Files))
	}
	if subs.Filings.Files[0].FilingTo != "2019-12-31" {
		t.Errorf("Expected pagination file to end 2019-12-31, got %s", subs.Filings.Files[0].FilingTo)
	}
}

func TestGetRecentFilings(t *testing.T) {
	subs := loadAppleSubmissions(t)

	filings := subs.GetRecentFilings()
	if len(filings) != 7 {
		t.Fatalf("Expected 7 filings, got %d", len(filings))
	}

	first := filings[0]
	if first.AccessionNumber != "0000320193-21-000010" {
		t.Errorf("AccessionNumber = %s", first.AccessionNumber)
	}
	if first.Form != "10-Q" || first.FilingDate != "2021-01-28" || first.ReportDate != "2020-12-26" {
		t.Errorf("unexpected first filing: %+v", first)
	}
	if !first.IsXBRL || !first.IsInlineXBRL {
		t.Error("Expected first filing to be inline XBRL")
	}
	if first.CIK != "320193" {
		t.Errorf("CIK = %s", first.CIK)
	}
	if filings[6].IsXBRL {
		t.Error("8-K should not be flagged as XBRL")
	}
}

func TestGetFilingsRaggedArrays(t *testing.T) {
	fa := FilingArrays{
		AccessionNumber: []string{"0000320193-20-000062", "0000320193-20-000052"},
		FilingDate:      []string{"2020-07-31", "2020-05-01"},
		Form:            []string{"10-Q", "10-Q"},
		PrimaryDocument: []string{"aapl-20200627.htm"},
	}

	filings := fa.GetFilings("320193")
	if len(filings) != 2 {
		t.Fatalf("Expected 2 filings, got %d", len(filings))
	}
	if filings[1].PrimaryDocument != "" {
		t.Errorf("Expected empty primary document, got %q", filings[1].PrimaryDocument)
	}

	fa.Form = fa.Form[:1]
	if got := len(fa.GetFilings("320193")); got != 1 {
		t.Errorf("Expected truncation at shortest required array, got %d", got)
	}
}

func TestFilterByForm(t *testing.T) {
	filings := loadAppleSubmissions(t).GetRecentFilings()

	tests := []struct {
		form string
		want int
	}{
		{"10-Q", 4},
		{"10-K", 1},
		{"10-Q/A", 1},
		{" 10-K ", 1},
		{"S-1", 0},
	}
	for _, tt := range tests {
		t.Run(tt.form, func(t *testing.T) {
			got := FilterByForm(filings, tt.form)
			if len(got) != tt.want {
				t.Errorf("FilterByForm(%q) returned %d filings, want %d", tt.form, len(got), tt.want)
			}
			for _, f := range got {
				if f.Form != strings.TrimSpace(tt.form) {
					t.Errorf("FilterByForm(%q) returned form %s", tt.form, f.Form)
				}
			}
		})
	}
}

func TestLatestInWindow(t *testing.T) {
	quarterly := FilterByForm(loadAppleSubmissions(t).GetRecentFilings(), Form10Q)

	tests := []struct {
		name   string
		after  string
		before string
		want   string
	}{
		{"first quarter", "2020-01-01", "2020-04-01", "0000320193-20-000010"},
		{"second quarter", "2020-04-01", "2020-07-01", "0000320193-20-000052"},
		{"third quarter", "2020-07-01", "2020-10-01", "0000320193-20-000062"},
		{"filed on the after date", "2020-07-31", "2020-10-01", "0000320193-20-000062"},
		{"open window takes the newest", "2020-01-01", "", "0000320193-21-000010"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := LatestInWindow(quarterly, tt.after, tt.before, 1)
			if len(got) != 1 {
				t.Fatalf("Expected 1 filing, got %d", len(got))
			}
			if got[0].AccessionNumber != tt.want {
				t.Errorf("LatestInWindow(%s, %s) = %s, want %s", tt.after, tt.before, got[0].AccessionNumber, tt.want)
			}
		})
	}

	// The before date is exclusive
	if got := LatestInWindow(quarterly, "2020-06-01", "2020-07-31", 1); len(got) != 0 {
		t.Errorf("Expected no filings before 2020-07-31, got %s", got[0].AccessionNumber)
	}
	if got := LatestInWindow(quarterly, "2020-10-01", "2021-01-01", 1); len(got) != 0 {
		t.Errorf("Expected no 10-Q in the fiscal year end quarter, got %d", len(got))
	}

	all := LatestInWindow(quarterly, "2020-01-01", "", 0)
	if len(all) != 4 {
		t.Fatalf("Expected amount 0 to return all 4 filings, got %d", len(all))
	}
	for i := 1; i < len(all); i++ {
		if all[i-1].FilingDate < all[i].FilingDate {
			t.Errorf("filings not sorted newest first: %s before %s", all[i-1].FilingDate, all[i].FilingDate)
		}
	}
}

func TestFolderURL(t *testing.T) {
	filing := Filing{CIK: "0000320193", AccessionNumber: "0000320193-20-000062"}

	got := filing.FolderURL(DefaultArchivesBaseURL + "/")
	want := "https://www.sec.gov/Archives/edgar/data/320193/000032019320000062"
	if got != want {
		t.Errorf("FolderURL() = %s, want %s", got, want)
	}
}

func TestPadCIK(t *testing.T) {
	tests := map[string]string{
		"320193":      "0000320193",
		"0000320193":  "0000320193",
		" 789019 ":    "0000789019",
		"12345678901": "12345678901",
	}
	for in, want := range tests {
		if got := PadCIK(in); got != want {
			t.Errorf("PadCIK(%q) = %q, want %q", in, got, want)
		}
	}
}
