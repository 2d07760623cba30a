package edgar_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	edgar "github.com/RxDataLab/edgar-statements"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const balanceOnly = `<?xml version="1.0" encoding="utf-8"?>
<xbrli:xbrl xmlns:xbrli="http://www.xbrl.org/2003/instance" xmlns:us-gaap="http://fasb.org/us-gaap/2020-01-31">
  <xbrli:context id="i"><xbrli:entity><xbrli:identifier scheme="http://www.sec.gov/CIK">1</xbrli:identifier></xbrli:entity>
    <xbrli:period><xbrli:instant>2020-06-27</xbrli:instant></xbrli:period></xbrli:context>
  <xbrli:unit id="usd"><xbrli:measure>iso4217:USD</xbrli:measure></xbrli:unit>
  <us-gaap:Assets contextRef="i" unitRef="usd" decimals="-6">1000000</us-gaap:Assets>
</xbrli:xbrl>
`

// fakeDownloader writes documents into WorkDir the way EDGARDownloader lays them out
type fakeDownloader struct {
	workDir string
	docs    map[string][]byte // file name -> contents, written for every filing
	none    map[string]bool   // After dates with no matching filing
	failOn  string            // After date returning an error

	mu      sync.Mutex
	queries []edgar.FilingQuery
}

func (f *fakeDownloader) Get(ctx context.Context, q edgar.FilingQuery) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	f.mu.Lock()
	f.queries = append(f.queries, q)
	f.mu.Unlock()

	if q.After == f.failOn {
		return 0, errors.New("SEC returned status 503")
	}
	if f.none[q.After] {
		return 0, nil
	}

	dir := filepath.Join(f.workDir, q.Ticker, q.Form, fakeAccession(q.After))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, err
	}
	for name, data := range f.docs {
		if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
			return 0, err
		}
	}
	return 1, nil
}

// fakeAccession derives an accession number from a quarter start date:
// 2020-04-01 -> 0000320193-20-000004
func fakeAccession(after string) string {
	return "0000320193-" + after[2:4] + "-0000" + after[5:7]
}

func (f *fakeDownloader) calls() []edgar.FilingQuery {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]edgar.FilingQuery(nil), f.queries...)
}

type countingRecorder struct {
	mu       sync.Mutex
	fetches  int
	fetchErr int
	files    map[edgar.FileStatus]int
	stages   map[string]int
}

func newCountingRecorder() *countingRecorder {
	return &countingRecorder{files: map[edgar.FileStatus]int{}, stages: map[string]int{}}
}

func (r *countingRecorder) FetchRequest(form string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fetches++
	if err != nil {
		r.fetchErr++
	}
}

func (r *countingRecorder) FileProcessed(status edgar.FileStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.files[status]++
}

func (r *countingRecorder) StageDuration(stage string, d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stages[stage]++
}

func newTestPipeline(t *testing.T, docs map[string][]byte) (*edgar.Pipeline, *fakeDownloader) {
	t.Helper()
	root := t.TempDir()
	workDir := filepath.Join(root, edgar.DefaultWorkDir)
	d := &fakeDownloader{workDir: workDir, docs: docs, none: map[string]bool{}}
	return edgar.NewPipeline(d, root, workDir), d
}

func sampleInstance(t *testing.T) []byte {
	t.Helper()
	data, err := os.ReadFile("testdata/xbrl/sample_10q/input.xml")
	require.NoError(t, err)
	return data
}

func assertCountsAddUp(t *testing.T, r *edgar.Report) {
	t.Helper()
	assert.Equal(t, r.Attempted, r.Rendered+r.Empty+r.Failed)
	assert.Len(t, r.Files, r.Attempted)
	assert.Len(t, r.Errors, r.Failed)
}

func TestPipelineRunAnnual(t *testing.T) {
	p, d := newTestPipeline(t, map[string][]byte{"aapl_htm.xml": sampleInstance(t)})

	var c edgar.Collector
	req := edgar.Request{Ticker: "AAPL", StartYear: 2020, EndYear: 2020, ReportType: edgar.Form10K}
	report, err := p.Run(context.Background(), req, &c)
	require.NoError(t, err)

	want := []edgar.FilingQuery{
		{Form: "10-K", Ticker: "AAPL", Amount: 1, After: "2020-01-01", Before: "2020-04-01"},
		{Form: "10-K", Ticker: "AAPL", Amount: 1, After: "2020-04-01", Before: "2020-07-01"},
		{Form: "10-K", Ticker: "AAPL", Amount: 1, After: "2020-07-01", Before: "2020-10-01"},
		{Form: "10-K", Ticker: "AAPL", Amount: 1, After: "2020-10-01", Before: "2021-01-01"},
	}
	if diff := cmp.Diff(want, d.calls()); diff != "" {
		t.Errorf("downloader queries mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 4, report.FetchRequests())

	for q := 1; q <= 4; q++ {
		assert.DirExists(t, filepath.Join(p.Root, fmt.Sprintf("AAPL_10-K_2020_Q%d", q)))
	}
	assert.NoDirExists(t, p.WorkDir)

	sections := c.Sections()
	require.Len(t, sections, 4)
	assert.Equal(t, "10-K for AAPL - 2020 Q1", sections[0].Label)
	assert.Equal(t, "10-K for AAPL - 2020 Q4", sections[3].Label)
	assert.False(t, sections[0].BalanceSheet.Empty())
	assert.False(t, sections[0].IncomeStatement.Empty())
	assert.Equal(t, "Apple Inc.", sections[0].Document.CompanyName)

	require.NotEmpty(t, report.Files)
	assert.Equal(t, &edgar.FilingMetadata{Ticker: "AAPL", FormType: "10-K", Accession: "0000320193-20-000001"}, report.Files[0].Filing)

	assert.Equal(t, 4, report.Rendered)
	assertCountsAddUp(t, report)
	assert.False(t, report.FinishedAt.Before(report.StartedAt))
}

func TestPipelineRunQuarterlyRange(t *testing.T) {
	p, d := newTestPipeline(t, nil)

	req := edgar.Request{Ticker: "msft", StartYear: 2019, EndYear: 2021, ReportType: edgar.Form10Q}
	report, err := p.Run(context.Background(), req, &edgar.Collector{})
	require.NoError(t, err)

	calls := d.calls()
	require.Len(t, calls, 12)
	assert.Equal(t, "MSFT", calls[0].Ticker)
	assert.Equal(t, "2019-01-01", calls[0].After)
	assert.Equal(t, "2021-10-01", calls[11].After)
	assert.Equal(t, "2022-01-01", calls[11].Before)
	assert.Equal(t, 12, report.FetchRequests())
	assert.Equal(t, filepath.Join(p.Root, "MSFT_10-Q_2021_Q4"), report.Fetches[11].Dir)
}

func TestPipelineRunInvalidRequest(t *testing.T) {
	p, d := newTestPipeline(t, nil)

	invalid := []edgar.Request{
		{Ticker: "", StartYear: 2020, EndYear: 2020, ReportType: edgar.Form10Q},
		{Ticker: "AAPL", StartYear: 2021, EndYear: 2020, ReportType: edgar.Form10Q},
		{Ticker: "AAPL", StartYear: 2020, EndYear: 2020, ReportType: "8-K"},
	}
	for _, req := range invalid {
		report, err := p.Run(context.Background(), req, &edgar.Collector{})
		assert.ErrorIs(t, err, edgar.ErrInvalidRequest)
		assert.Nil(t, report)
	}
	assert.Empty(t, d.calls())
}

func TestPipelineEmptyPeriods(t *testing.T) {
	p, d := newTestPipeline(t, map[string][]byte{"aapl_htm.xml": sampleInstance(t)})
	d.none["2020-01-01"] = true
	d.none["2020-04-01"] = true
	d.none["2020-07-01"] = true
	d.none["2020-10-01"] = true

	var c edgar.Collector
	report, err := p.Run(context.Background(), edgar.Request{Ticker: "AAPL", StartYear: 2020, EndYear: 2020, ReportType: edgar.Form10Q}, &c)
	require.NoError(t, err)

	assert.Empty(t, c.Sections())
	assert.Zero(t, report.Attempted)
	for _, f := range report.Fetches {
		assert.Zero(t, f.Filings)
		assert.DirExists(t, f.Dir)
	}
}

func TestPipelineSkipsMalformedDocuments(t *testing.T) {
	p, _ := newTestPipeline(t, map[string][]byte{
		"aapl_htm.xml":      sampleInstance(t),
		"aapl.xsd":          []byte(`<?xml version="1.0"?><xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema" xmlns:xbrli="http://www.xbrl.org/2003/instance"/>`),
		"broken.xml":        []byte(`<xbrli:xbrl xmlns:xbrli="http://www.xbrl.org/2003/instance"><xbrli:context`),
		"FilingSummary.xml": []byte(`<?xml version="1.0"?><FilingSummary><ReportType>10-Q</ReportType></FilingSummary>`),
		"balance_only.xml":  []byte(balanceOnly),
		"R1.htm":            []byte(`<html></html>`),
	})
	recorder := newCountingRecorder()
	p.Metrics = recorder

	var c edgar.Collector
	report, err := p.Run(context.Background(), edgar.Request{Ticker: "AAPL", StartYear: 2020, EndYear: 2020, ReportType: edgar.Form10Q}, &c)
	require.NoError(t, err)

	// Per quarter: one rendered, one empty, three skipped; the .htm is never parsed
	assert.Equal(t, 20, report.Attempted)
	assert.Equal(t, 4, report.Rendered)
	assert.Equal(t, 4, report.Empty)
	assert.Equal(t, 12, report.Failed)
	assertCountsAddUp(t, report)
	assert.Len(t, c.Sections(), 4)

	assert.Equal(t, 4, recorder.fetches)
	assert.Equal(t, 12, recorder.files[edgar.StatusFailed])
	assert.Equal(t, 1, recorder.stages[edgar.StageFetch])
	assert.Equal(t, 1, recorder.stages[edgar.StageExtract])
}

func TestPipelineFetchError(t *testing.T) {
	p, d := newTestPipeline(t, nil)
	d.failOn = "2020-07-01"
	recorder := newCountingRecorder()
	p.Metrics = recorder

	var c edgar.Collector
	report, err := p.Run(context.Background(), edgar.Request{Ticker: "AAPL", StartYear: 2020, EndYear: 2020, ReportType: edgar.Form10Q}, &c)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetch AAPL 10-Q 2020 Q3")
	require.NotNil(t, report)
	assert.Equal(t, 2, report.FetchRequests())
	assert.Len(t, d.calls(), 3)
	assert.Equal(t, 1, recorder.fetchErr)
	assert.Empty(t, c.Sections())
}

func TestPipelineCleansStaleWorkDir(t *testing.T) {
	p, _ := newTestPipeline(t, nil)
	stale := filepath.Join(p.WorkDir, "AAPL", "10-Q", "stale", "left-over.xml")
	require.NoError(t, os.MkdirAll(filepath.Dir(stale), 0o755))
	require.NoError(t, os.WriteFile(stale, sampleInstance(t), 0o644))

	var c edgar.Collector
	report, err := p.Run(context.Background(), edgar.Request{Ticker: "AAPL", StartYear: 2020, EndYear: 2020, ReportType: edgar.Form10Q}, &c)
	require.NoError(t, err)
	assert.Zero(t, report.Attempted)
	assert.Empty(t, c.Sections())
}

func TestPipelineRerunReplacesPeriodDirs(t *testing.T) {
	p, d := newTestPipeline(t, map[string][]byte{"first.xml": sampleInstance(t)})
	req := edgar.Request{Ticker: "AAPL", StartYear: 2020, EndYear: 2020, ReportType: edgar.Form10Q}

	_, err := p.Run(context.Background(), req, &edgar.Collector{})
	require.NoError(t, err)

	d.docs = map[string][]byte{"second.xml": sampleInstance(t)}
	report, err := p.Run(context.Background(), req, &edgar.Collector{})
	require.NoError(t, err)

	assert.Equal(t, 4, report.Attempted)
	for _, f := range report.Files {
		assert.Equal(t, "second.xml", filepath.Base(f.Path))
	}
}

func TestPipelineRerunWithoutFilingClearsPeriod(t *testing.T) {
	p, d := newTestPipeline(t, map[string][]byte{"aapl_htm.xml": sampleInstance(t)})
	req := edgar.Request{Ticker: "AAPL", StartYear: 2020, EndYear: 2020, ReportType: edgar.Form10Q}

	_, err := p.Run(context.Background(), req, &edgar.Collector{})
	require.NoError(t, err)

	// Q3 has no filing the second time round
	d.none["2020-07-01"] = true
	var c edgar.Collector
	report, err := p.Run(context.Background(), req, &c)
	require.NoError(t, err)

	assert.Equal(t, 3, report.Attempted)
	q3 := filepath.Join(p.Root, "AAPL_10-Q_2020_Q3")
	assert.DirExists(t, q3)
	files, err := edgar.FindDocuments(q3, edgar.DefaultExtensions)
	require.NoError(t, err)
	assert.Empty(t, files)
	for _, s := range c.Sections() {
		assert.NotEqual(t, 3, s.Period.Quarter)
	}
}

func TestPipelineRejectsWorkDirContainingRoot(t *testing.T) {
	tests := []struct {
		name    string
		root    func(base string) string
		workDir func(base string) string
	}{
		{"same directory", func(b string) string { return b }, func(b string) string { return b }},
		{"root below work dir", func(b string) string { return filepath.Join(b, "data") }, func(b string) string { return b }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base := t.TempDir()
			notes := filepath.Join(base, "notes.txt")
			earlier := filepath.Join(base, "AAPL_10-K_2019_Q1", edgar.DefaultWorkDir, "x.xml")
			require.NoError(t, os.WriteFile(notes, []byte("keep"), 0o644))
			require.NoError(t, os.MkdirAll(filepath.Dir(earlier), 0o755))
			require.NoError(t, os.WriteFile(earlier, []byte("keep"), 0o644))

			d := &fakeDownloader{workDir: tt.workDir(base), none: map[string]bool{}}
			p := edgar.NewPipeline(d, tt.root(base), tt.workDir(base))
			assert.ErrorIs(t, p.CheckDirs(), edgar.ErrUnsafeWorkDir)

			_, err := p.Run(context.Background(), edgar.Request{Ticker: "AAPL", StartYear: 2020, EndYear: 2020, ReportType: edgar.Form10K}, &edgar.Collector{})
			assert.ErrorIs(t, err, edgar.ErrUnsafeWorkDir)
			assert.Empty(t, d.calls())
			assert.FileExists(t, notes)
			assert.FileExists(t, earlier)
		})
	}
}

func TestPipelineCheckDirs(t *testing.T) {
	root := t.TempDir()
	assert.NoError(t, edgar.NewPipeline(nil, root, filepath.Join(root, edgar.DefaultWorkDir)).CheckDirs())
	assert.NoError(t, edgar.NewPipeline(nil, filepath.Join(root, "out"), filepath.Join(root, "work")).CheckDirs())
	assert.ErrorIs(t, edgar.NewPipeline(nil, "", ".").CheckDirs(), edgar.ErrUnsafeWorkDir)
}

func TestPipelineExtractOffline(t *testing.T) {
	fetcher, _ := newTestPipeline(t, map[string][]byte{"aapl_htm.xml": sampleInstance(t)})
	req := edgar.Request{Ticker: "AAPL", StartYear: 2020, EndYear: 2020, ReportType: edgar.Form10Q}

	fetched, err := fetcher.Fetch(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 4, fetched.FetchRequests())
	assert.Zero(t, fetched.Attempted)

	offline := edgar.NewPipeline(nil, fetcher.Root, fetcher.WorkDir)
	var c edgar.Collector
	report, err := offline.Extract(context.Background(), req, &c)
	require.NoError(t, err)
	assert.Zero(t, report.FetchRequests())
	assert.Equal(t, 4, report.Rendered)
	assert.Len(t, c.Sections(), 4)
}

func TestPipelineRenderError(t *testing.T) {
	p, _ := newTestPipeline(t, map[string][]byte{"aapl_htm.xml": sampleInstance(t)})
	boom := errors.New("client went away")

	rendered := 0
	r := edgar.RendererFunc(func(edgar.Section) error {
		rendered++
		if rendered == 2 {
			return boom
		}
		return nil
	})

	_, err := p.Run(context.Background(), edgar.Request{Ticker: "AAPL", StartYear: 2020, EndYear: 2020, ReportType: edgar.Form10Q}, r)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 2, rendered)
}

func TestPipelineCanceled(t *testing.T) {
	p, d := newTestPipeline(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Run(ctx, edgar.Request{Ticker: "AAPL", StartYear: 2020, EndYear: 2020, ReportType: edgar.Form10Q}, &edgar.Collector{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, d.calls())
}

func TestFindDocuments(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.xml", "a.XSD", "c.htm", filepath.Join("nested", "d.xml")} {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, nil, 0o644))
	}

	files, err := edgar.FindDocuments(dir, edgar.DefaultExtensions)
	require.NoError(t, err)
	want := []string{
		filepath.Join(dir, "a.XSD"),
		filepath.Join(dir, "b.xml"),
		filepath.Join(dir, "nested", "d.xml"),
	}
	assert.Equal(t, want, files)

	files, err = edgar.FindDocuments(filepath.Join(dir, "missing"), edgar.DefaultExtensions)
	require.NoError(t, err)
	assert.Empty(t, files)
}
