package edgar_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	edgar "github.com/RxDataLab/edgar-statements"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestExtractMetadataFromURL(t *testing.T) {
	meta, err := edgar.ExtractMetadataFromURL("https://www.sec.gov/Archives/edgar/data/320193/000032019320000096/aapl-20200926_htm.xml")
	require.NoError(t, err)
	assert.Equal(t, "320193", meta.CIK)
	assert.Equal(t, "0000320193-20-000096", meta.Accession)

	_, err = edgar.ExtractMetadataFromURL("https://www.sec.gov/cgi-bin/browse-edgar")
	assert.Error(t, err)
}

func TestExtractMetadataFromPath(t *testing.T) {
	path := filepath.Join("AAPL_10-Q_2020_Q3", "sec-edgar-filings", "AAPL", "10-Q", "0000320193-20-000062", "aapl-20200627_htm.xml")

	meta, err := edgar.ExtractMetadataFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, &edgar.FilingMetadata{Ticker: "AAPL", FormType: "10-Q", Accession: "0000320193-20-000062"}, meta)

	_, err = edgar.ExtractMetadataFromPath(filepath.Join("AAPL", "10-Q", "latest", "file.xml"))
	assert.Error(t, err)
	_, err = edgar.ExtractMetadataFromPath("file.xml")
	assert.Error(t, err)
}

func TestFormatAccession(t *testing.T) {
	assert.Equal(t, "0000320193-20-000096", edgar.FormatAccession("000032019320000096"))
	assert.Equal(t, "0000320193-20-000096", edgar.FormatAccession("0000320193-20-000096"))
	assert.Equal(t, "12345", edgar.FormatAccession("12345"))
}

func TestSaveReport(t *testing.T) {
	report := edgar.NewReport(edgar.Request{Ticker: "AAPL", StartYear: 2020, EndYear: 2020, ReportType: edgar.Form10Q})
	report.Fetches = append(report.Fetches, edgar.FetchResult{
		Period:  edgar.YearQuarter{Year: 2020, Quarter: 1},
		After:   "2020-01-01",
		Filings: 1,
		Dir:     "AAPL_10-Q_2020_Q1",
	})
	dir := t.TempDir()

	t.Run("json", func(t *testing.T) {
		path := filepath.Join(dir, "out", "report.json")
		require.NoError(t, edgar.SaveReport(path, report))

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		var got edgar.Report
		require.NoError(t, json.Unmarshal(data, &got))
		assert.Equal(t, "AAPL", got.Request.Ticker)
		require.Len(t, got.Fetches, 1)
		assert.Equal(t, "2020-01-01", got.Fetches[0].After)
	})

	t.Run("yaml", func(t *testing.T) {
		path := filepath.Join(dir, "report.yaml")
		require.NoError(t, edgar.SaveReport(path, report))

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		var got map[string]any
		require.NoError(t, yaml.Unmarshal(data, &got))
		assert.Contains(t, got, "request")
		assert.Contains(t, got, "started_at")
		assert.Contains(t, string(data), "report_type: 10-Q")
	})
}
