package edgar

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

// DefaultWorkDir is the conventional directory filings are downloaded into
const DefaultWorkDir = "sec-edgar-filings"

// DefaultExtensions are the document types downloaded and parsed
var DefaultExtensions = []string{".xml", ".xsd"}

// FilingQuery asks for the Amount most recent filings of Form filed on or
// after After and before Before (YYYY-MM-DD). An empty Before means up to today.
type FilingQuery struct {
	Form   string
	Ticker string
	Amount int
	After  string
	Before string
}

// Downloader retrieves filings into a local working directory.
// It returns the number of filings written.
type Downloader interface {
	Get(ctx context.Context, q FilingQuery) (int, error)
}

// EDGARDownloader downloads filings from EDGAR into
// {WorkDir}/{ticker}/{form}/{accession}/
type EDGARDownloader struct {
	Client     *Client
	Tickers    *TickerIndex
	WorkDir    string
	Extensions []string
	Logger     zerolog.Logger
}

// NewEDGARDownloader creates a downloader writing into workDir
func NewEDGARDownloader(client *Client, workDir string, extensions []string) *EDGARDownloader {
	if workDir == "" {
		workDir = DefaultWorkDir
	}
	if len(extensions) == 0 {
		extensions = DefaultExtensions
	}
	return &EDGARDownloader{
		Client:     client,
		Tickers:    NewTickerIndex(client),
		WorkDir:    workDir,
		Extensions: extensions,
		Logger:     zerolog.Nop(),
	}
}

// Get resolves the ticker, selects matching filings and downloads their documents
func (d *EDGARDownloader) Get(ctx context.Context, q FilingQuery) (int, error) {
	if q.Amount <= 0 {
		q.Amount = 1
	}

	cik, err := d.Tickers.LookupCIK(ctx, q.Ticker)
	if err != nil {
		return 0, err
	}

	subs, err := d.Client.FetchSubmissions(ctx, cik)
	if err != nil {
		return 0, err
	}
	if subs.CIK == "" {
		subs.CIK = cik
	}

	all, err := subs.GetFilingsSince(ctx, d.Client, q.After)
	if err != nil {
		return 0, err
	}

	selected := LatestInWindow(FilterByForm(all, q.Form), q.After, q.Before, q.Amount)
	if len(selected) == 0 {
		d.Logger.Info().
			Str("ticker", q.Ticker).
			Str("form", q.Form).
			Str("after", q.After).
			Str("before", q.Before).
			Msg("no matching filings")
		return 0, nil
	}

	ticker := strings.ToUpper(strings.TrimSpace(q.Ticker))
	for _, filing := range selected {
		dest := filepath.Join(d.WorkDir, ticker, q.Form, filing.AccessionNumber)
		n, err := d.downloadFiling(ctx, filing, dest)
		if err != nil {
			return 0, fmt.Errorf("failed to download %s: %w", filing.AccessionNumber, err)
		}
		d.Logger.Debug().
			Str("accession", filing.AccessionNumber).
			Str("filed", filing.FilingDate).
			Int("documents", n).
			Msg("filing downloaded")
	}
	return len(selected), nil
}

// FilingIndexItem is one document listed in a filing folder's index.json
type FilingIndexItem struct {
	Name         string `json:"name"`
	Type         string `json:"type"`
	Size         string `json:"size"`
	LastModified string `json:"last-modified"`
}

// ParseFilingIndex parses the EDGAR folder listing index.json
func ParseFilingIndex(data []byte) ([]FilingIndexItem, error) {
	var index struct {
		Directory struct {
			Item []FilingIndexItem `json:"item"`
			Name string            `json:"name"`
		} `json:"directory"`
	}
	if err := json.Unmarshal(data, &index); err != nil {
		return nil, fmt.Errorf("failed to parse filing index: %w", err)
	}
	return index.Directory.Item, nil
}

func (d *EDGARDownloader) downloadFiling(ctx context.Context, filing Filing, dest string) (int, error) {
	folder := filing.FolderURL(d.Client.archivesBaseURL)

	body, err := d.Client.Get(ctx, folder+"/index.json")
	if err != nil {
		return 0, err
	}
	items, err := ParseFilingIndex(body)
	if err != nil {
		return 0, err
	}

	if err := os.MkdirAll(dest, 0o755); err != nil {
		return 0, fmt.Errorf("failed to create %s: %w", dest, err)
	}

	count := 0
	for _, item := range items {
		// Folder listings include sub-directories; skip them and anything not in the set.
		if item.Type == "folder.gif" || !HasExtension(item.Name, d.Extensions) {
			continue
		}
		if err := d.writeDocument(ctx, folder+"/"+item.Name, filepath.Join(dest, path.Base(item.Name))); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

func (d *EDGARDownloader) writeDocument(ctx context.Context, url, target string) error {
	f, err := os.Create(target)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", target, err)
	}
	if _, err := d.Client.Download(ctx, url, f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// HasExtension reports whether name ends with one of exts (case-insensitive)
func HasExtension(name string, exts []string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range exts {
		if ext == strings.ToLower(e) {
			return true
		}
	}
	return false
}

// Relocate moves workDir into target, creating target if needed.
// An existing copy in target is replaced, so a missing workDir leaves target empty.
func Relocate(workDir, target string) error {
	if err := os.MkdirAll(target, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", target, err)
	}

	dest := filepath.Join(target, filepath.Base(workDir))
	if err := os.RemoveAll(dest); err != nil {
		return fmt.Errorf("failed to clear %s: %w", dest, err)
	}

	if _, err := os.Stat(workDir); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to stat %s: %w", workDir, err)
	}

	if err := os.Rename(workDir, dest); err != nil {
		return fmt.Errorf("failed to move %s to %s: %w", workDir, dest, err)
	}
	return nil
}
