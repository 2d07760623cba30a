package edgar

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// FileStatus is the outcome of processing one downloaded document
type FileStatus string

const (
	StatusRendered FileStatus = "rendered" // both statements found and rendered
	StatusEmpty    FileStatus = "empty"    // parsed, but a statement was missing
	StatusFailed   FileStatus = "failed"   // parse error, skipped
)

// ErrUnsafeWorkDir is returned when removing WorkDir would remove the storage root
var ErrUnsafeWorkDir = errors.New("unsafe work dir")

// Pipeline stages reported to the Recorder
const (
	StageFetch   = "fetch"
	StageExtract = "extract"
)

// Recorder receives pipeline measurements
type Recorder interface {
	FetchRequest(form string, err error)
	FileProcessed(status FileStatus)
	StageDuration(stage string, d time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) FetchRequest(string, error)         {}
func (nopRecorder) FileProcessed(FileStatus)           {}
func (nopRecorder) StageDuration(string, time.Duration) {}

// FetchResult records one download request
type FetchResult struct {
	Period  YearQuarter `json:"period" yaml:"period"`
	After   string      `json:"after" yaml:"after"`
	Before  string      `json:"before" yaml:"before"`
	Filings int         `json:"filings" yaml:"filings"`
	Dir     string      `json:"dir" yaml:"dir"`
}

// FileResult records the outcome of one document
type FileResult struct {
	Path     string          `json:"path" yaml:"path"`
	Period   YearQuarter     `json:"period" yaml:"period"`
	Status   FileStatus      `json:"status" yaml:"status"`
	Error    string          `json:"error,omitempty" yaml:"error,omitempty"`
	Filing   *FilingMetadata `json:"filing,omitempty" yaml:"filing,omitempty"`
	Document *DocumentInfo   `json:"document,omitempty" yaml:"document,omitempty"`
}

// Report contains the results of a run
type Report struct {
	Request    Request       `json:"request" yaml:"request"`
	StartedAt  time.Time     `json:"startedAt" yaml:"started_at"`
	FinishedAt time.Time     `json:"finishedAt" yaml:"finished_at"`
	Fetches    []FetchResult `json:"fetches" yaml:"fetches"`
	Files      []FileResult  `json:"files" yaml:"files"`

	Attempted int `json:"attempted" yaml:"attempted"`
	Rendered  int `json:"rendered" yaml:"rendered"`
	Empty     int `json:"empty" yaml:"empty"`
	Failed    int `json:"failed" yaml:"failed"`

	Errors []error `json:"-" yaml:"-"` // Parse errors of skipped files
}

// NewReport starts an empty report for req
func NewReport(req Request) *Report {
	return &Report{
		Request:   req,
		StartedAt: time.Now().UTC(),
		Fetches:   make([]FetchResult, 0),
		Files:     make([]FileResult, 0),
	}
}

// FetchRequests returns the number of download requests issued
func (r *Report) FetchRequests() int {
	return len(r.Fetches)
}

func (r *Report) addFile(res FileResult, err error) {
	r.Files = append(r.Files, res)
	r.Attempted++
	switch res.Status {
	case StatusRendered:
		r.Rendered++
	case StatusEmpty:
		r.Empty++
	case StatusFailed:
		r.Failed++
		r.Errors = append(r.Errors, err)
	}
}

// Pipeline downloads filings for every quarter in a request and renders
// the statements found in them
type Pipeline struct {
	Downloader Downloader
	Root       string   // Directory holding the per-period directories
	WorkDir    string   // Directory the Downloader writes into
	Extensions []string // Documents considered for parsing
	Logger     zerolog.Logger
	Metrics    Recorder

	// Runs share WorkDir, so they are serialized
	mu sync.Mutex
}

// NewPipeline creates a pipeline with default extensions and no-op logging and metrics
func NewPipeline(d Downloader, root, workDir string) *Pipeline {
	if workDir == "" {
		workDir = DefaultWorkDir
	}
	return &Pipeline{
		Downloader: d,
		Root:       root,
		WorkDir:    workDir,
		Extensions: DefaultExtensions,
		Logger:     zerolog.Nop(),
		Metrics:    nopRecorder{},
	}
}

// PeriodDir returns the directory a period's filings are relocated into
func (p *Pipeline) PeriodDir(req Request, period YearQuarter) string {
	return filepath.Join(p.Root, req.DirName(period))
}

// Run validates req, fetches every period then parses and renders every period.
// Invalid requests return an error wrapping ErrInvalidRequest before any fetch.
func (p *Pipeline) Run(ctx context.Context, req Request, r Renderer) (*Report, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	report := NewReport(req)
	defer func() { report.FinishedAt = time.Now().UTC() }()

	if err := p.fetch(ctx, req, report); err != nil {
		return report, err
	}
	if err := p.extract(ctx, req, r, report); err != nil {
		return report, err
	}
	return report, nil
}

// Fetch runs only the fetch stage
func (p *Pipeline) Fetch(ctx context.Context, req Request) (*Report, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	report := NewReport(req)
	defer func() { report.FinishedAt = time.Now().UTC() }()
	return report, p.fetch(ctx, req, report)
}

// Extract runs only the parse-and-render stage over previously fetched periods
func (p *Pipeline) Extract(ctx context.Context, req Request, r Renderer) (*Report, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	report := NewReport(req)
	defer func() { report.FinishedAt = time.Now().UTC() }()
	return report, p.extract(ctx, req, r, report)
}

func (p *Pipeline) metrics() Recorder {
	if p.Metrics == nil {
		return nopRecorder{}
	}
	return p.Metrics
}

func (p *Pipeline) fetch(ctx context.Context, req Request, report *Report) error {
	start := time.Now()
	defer func() { p.metrics().StageDuration(StageFetch, time.Since(start)) }()

	// Anything left in WorkDir belongs to an interrupted run
	if err := p.CleanWorkDir(); err != nil {
		return err
	}

	for _, period := range req.Periods() {
		q := FilingQuery{
			Form:   req.ReportType,
			Ticker: req.Ticker,
			Amount: 1,
			After:  period.AfterDate(),
			Before: period.BeforeDate(),
		}

		n, err := p.Downloader.Get(ctx, q)
		p.metrics().FetchRequest(req.ReportType, err)
		if err != nil {
			return fmt.Errorf("fetch %s %s %s: %w", req.Ticker, req.ReportType, period, err)
		}

		dir := p.PeriodDir(req, period)
		if err := Relocate(p.WorkDir, dir); err != nil {
			return fmt.Errorf("relocate %s: %w", period, err)
		}

		report.Fetches = append(report.Fetches, FetchResult{
			Period:  period,
			After:   q.After,
			Before:  q.Before,
			Filings: n,
			Dir:     dir,
		})
		p.Logger.Info().
			Str("ticker", req.Ticker).
			Str("form", req.ReportType).
			Str("period", period.String()).
			Int("filings", n).
			Str("dir", dir).
			Msg("fetched")
	}

	return nil
}

func (p *Pipeline) extract(ctx context.Context, req Request, r Renderer, report *Report) error {
	start := time.Now()
	defer func() { p.metrics().StageDuration(StageExtract, time.Since(start)) }()

	extensions := p.Extensions
	if len(extensions) == 0 {
		extensions = DefaultExtensions
	}

	for _, period := range req.Periods() {
		if err := ctx.Err(); err != nil {
			return err
		}

		files, err := FindDocuments(p.PeriodDir(req, period), extensions)
		if err != nil {
			return err
		}

		for _, path := range files {
			res, section, perr := processFile(path, req, period)
			report.addFile(res, perr)
			p.metrics().FileProcessed(res.Status)

			switch res.Status {
			case StatusFailed:
				p.Logger.Error().Err(perr).Str("file", path).Msg("failed to parse")
			case StatusEmpty:
				p.Logger.Debug().Str("file", path).Msg("no statements found")
			case StatusRendered:
				if err := r.RenderSection(section); err != nil {
					return fmt.Errorf("render %s: %w", path, err)
				}
			}
		}
	}

	return nil
}

func processFile(path string, req Request, period YearQuarter) (FileResult, Section, error) {
	res := FileResult{Path: path, Period: period}
	if meta, err := ExtractMetadataFromPath(path); err == nil {
		res.Filing = meta
	}

	x, err := ParseFile(path)
	if err != nil {
		res.Status = StatusFailed
		res.Error = err.Error()
		return res, Section{}, err
	}

	info := x.DocumentInfo()
	res.Document = &info

	balance := x.BalanceSheet()
	income := x.IncomeStatement()
	if balance.Empty() || income.Empty() {
		res.Status = StatusEmpty
		return res, Section{}, nil
	}

	res.Status = StatusRendered
	return res, Section{
		Label:           req.SectionLabel(period),
		Period:          period,
		Path:            path,
		Document:        info,
		BalanceSheet:    balance,
		IncomeStatement: income,
	}, nil
}

// FindDocuments walks dir for files with one of the extensions, in lexical order.
// A missing dir yields no files.
func FindDocuments(dir string, extensions []string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir && errors.Is(err, fs.ErrNotExist) {
				return filepath.SkipDir
			}
			return err
		}
		if !d.IsDir() && HasExtension(d.Name(), extensions) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", dir, err)
	}
	return files, nil
}

// CheckDirs rejects a WorkDir that is Root or one of its parents, since
// WorkDir is removed before every fetch
func (p *Pipeline) CheckDirs() error {
	root := p.Root
	if root == "" {
		root = "."
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", root, err)
	}
	absWork, err := filepath.Abs(p.WorkDir)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", p.WorkDir, err)
	}

	rel, err := filepath.Rel(absWork, absRoot)
	if err != nil {
		return nil // different volumes
	}
	if rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return fmt.Errorf("%w: work dir %s contains storage root %s", ErrUnsafeWorkDir, p.WorkDir, root)
	}
	return nil
}

// CleanWorkDir removes a stale working directory left by an interrupted run
func (p *Pipeline) CleanWorkDir() error {
	if err := p.CheckDirs(); err != nil {
		return err
	}
	if err := os.RemoveAll(p.WorkDir); err != nil {
		return fmt.Errorf("failed to clean %s: %w", p.WorkDir, err)
	}
	return nil
}
