package edgar_test

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path"
	"strings"
	"sync"
	"testing"

	edgar "github.com/RxDataLab/edgar-statements"

	"github.com/stretchr/testify/require"
)

const testEmail = "analyst@rxdatalab.com"

const testSchema = `<?xml version="1.0" encoding="utf-8"?>
<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema" targetNamespace="http://www.apple.com/20200627"/>
`

// fakeSEC serves the fixtures under testdata/ with the same URL layout as
// data.sec.gov, www.sec.gov/files and the EDGAR archives.
type fakeSEC struct {
	*httptest.Server

	mu         sync.Mutex
	paths      []string
	userAgents []string
}

func newFakeSEC(t *testing.T) *fakeSEC {
	t.Helper()

	instance, err := os.ReadFile("testdata/xbrl/sample_10q/input.xml")
	require.NoError(t, err)

	files := map[string]string{
		"/files/company_tickers.json":                     "testdata/edgar/company_tickers.json",
		"/submissions/CIK0000320193.json":                 "testdata/cik/CIK0000320193.json",
		"/submissions/CIK0000320193-submissions-001.json": "testdata/cik/CIK0000320193-submissions-001.json",
	}

	f := &fakeSEC{}
	f.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.paths = append(f.paths, r.URL.Path)
		f.userAgents = append(f.userAgents, r.Header.Get("User-Agent"))
		f.mu.Unlock()

		if name, ok := files[r.URL.Path]; ok {
			http.ServeFile(w, r, name)
			return
		}

		if strings.HasPrefix(r.URL.Path, "/Archives/edgar/data/320193/") {
			switch base := path.Base(r.URL.Path); {
			case base == "index.json":
				http.ServeFile(w, r, "testdata/edgar/index.json")
			case strings.HasSuffix(base, "_htm.xml"):
				w.Header().Set("Content-Type", "application/xml")
				w.Write(instance)
			case strings.HasSuffix(base, ".xsd"):
				w.Header().Set("Content-Type", "application/xml")
				w.Write([]byte(testSchema))
			default:
				w.Write([]byte("<html></html>"))
			}
			return
		}

		http.NotFound(w, r)
	}))
	t.Cleanup(f.Close)
	return f
}

func (f *fakeSEC) client(t *testing.T) *edgar.Client {
	t.Helper()
	c, err := edgar.NewClient(testEmail,
		edgar.WithRateLimit(1000),
		edgar.WithBaseURLs(f.URL, f.URL+"/Archives/edgar/data", f.URL+"/files"),
	)
	require.NoError(t, err)
	return c
}

// requested returns the paths served so far
func (f *fakeSEC) requested() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.paths...)
}

func (f *fakeSEC) agents() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.userAgents...)
}

func countPrefix(paths []string, prefix string) int {
	n := 0
	for _, p := range paths {
		if strings.HasPrefix(p, prefix) {
			n++
		}
	}
	return n
}
