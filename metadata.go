package edgar

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	archiveURLPattern = regexp.MustCompile(`/edgar/data/(\d+)/(\d+)/`)
	accessionPattern  = regexp.MustCompile(`^\d{10}-\d{2}-\d{6}$`)
)

// FilingMetadata contains information extracted from SEC URLs or download paths
type FilingMetadata struct {
	CIK       string `json:"cik,omitempty" yaml:"cik,omitempty"`
	Ticker    string `json:"ticker,omitempty" yaml:"ticker,omitempty"`
	Accession string `json:"accession,omitempty" yaml:"accession,omitempty"`
	FormType  string `json:"formType,omitempty" yaml:"form_type,omitempty"`
}

// ExtractMetadataFromURL parses SEC EDGAR URLs to extract CIK and accession number
// Example URL: https://www.sec.gov/Archives/edgar/data/320193/000032019320000096/aapl-20200926_htm.xml
func ExtractMetadataFromURL(url string) (*FilingMetadata, error) {
	matches := archiveURLPattern.FindStringSubmatch(url)
	if len(matches) < 3 {
		return nil, fmt.Errorf("could not extract CIK and accession from URL")
	}

	return &FilingMetadata{
		CIK:       matches[1],
		Accession: FormatAccession(matches[2]),
	}, nil
}

// ExtractMetadataFromPath reads ticker, form and accession from a downloaded
// document path: .../{ticker}/{form}/{accession}/{file}
func ExtractMetadataFromPath(path string) (*FilingMetadata, error) {
	parts := strings.Split(filepath.ToSlash(filepath.Clean(path)), "/")
	if len(parts) < 4 {
		return nil, fmt.Errorf("could not extract filing metadata from %s", path)
	}

	accession := parts[len(parts)-2]
	if !accessionPattern.MatchString(accession) {
		return nil, fmt.Errorf("no accession number in %s", path)
	}

	return &FilingMetadata{
		Ticker:    parts[len(parts)-4],
		FormType:  parts[len(parts)-3],
		Accession: accession,
	}, nil
}

// FormatAccession inserts dashes into an 18 digit accession number
// (000032019320000096 -> 0000320193-20-000096)
func FormatAccession(accession string) string {
	if len(accession) == 18 && !strings.Contains(accession, "-") {
		return accession[:10] + "-" + accession[10:12] + "-" + accession[12:]
	}
	return accession
}

// FormatJSON returns pretty-printed JSON for v
func FormatJSON(v any) ([]byte, error) {
	return json.MarshalIndent(v, "", "  ")
}

// FormatYAML returns YAML for v
func FormatYAML(v any) ([]byte, error) {
	return yaml.Marshal(v)
}

// SaveReport writes the report as YAML (.yaml, .yml) or JSON (anything else)
func SaveReport(path string, report *Report) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = FormatYAML(report)
	default:
		data, err = FormatJSON(report)
	}
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to save report: %w", err)
	}
	return nil
}
