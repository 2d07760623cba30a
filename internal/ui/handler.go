package ui

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"

	edgar "github.com/RxDataLab/edgar-statements"

	"github.com/labstack/echo/v4"
)

// InvalidInputMessage is shown when the form cannot start a run
const InvalidInputMessage = "Please enter a valid stock ticker and year range."

//go:embed templates/*.html
var templateFS embed.FS

func parseTemplates() (*template.Template, error) {
	tmpl, err := template.New("index.html").
		Funcs(template.FuncMap{"amount": edgar.FormatAmount}).
		ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	return tmpl, nil
}

// page is the data rendered by index.html
type page struct {
	Title       string
	ReportTypes []string
	MinYear     int
	MaxYear     int
	Request     edgar.Request
	Warning     string
	FieldErrors []FieldError
	Error       string
	Sections    []edgar.Section
	Report      *edgar.Report
	Submitted   bool
}

func (s *Server) newPage(req edgar.Request) page {
	return page{
		Title:       "EDGAR Financial Statements Downloader",
		ReportTypes: edgar.ReportTypes,
		MinYear:     edgar.MinYear,
		MaxYear:     edgar.MaxYear,
		Request:     req,
	}
}

func (s *Server) handleIndex(c echo.Context) error {
	req := edgar.Request{ReportType: edgar.Form10Q}
	return s.render(c, http.StatusOK, s.newPage(req))
}

func (s *Server) handleRun(c echo.Context) error {
	var req edgar.Request
	if errs := readAndValidateRequest(c, &req); errs != nil {
		s.observe("invalid")
		p := s.newPage(req)
		p.Submitted = true
		p.Warning = InvalidInputMessage
		p.FieldErrors = errs
		return s.render(c, http.StatusUnprocessableEntity, p)
	}

	collector := &edgar.Collector{}
	report, err := s.runner.Run(c.Request().Context(), req, collector)

	p := s.newPage(req)
	p.Submitted = true
	p.Report = report
	p.Sections = collector.Sections()

	switch {
	case errors.Is(err, edgar.ErrInvalidRequest):
		s.observe("invalid")
		p.Warning = InvalidInputMessage
		return s.render(c, http.StatusUnprocessableEntity, p)
	case err != nil:
		s.observe("error")
		s.config.Logger.Error().Err(err).Str("ticker", req.Ticker).Msg("run failed")
		p.Error = err.Error()
		return s.render(c, http.StatusBadGateway, p)
	}

	s.observe("ok")
	return s.render(c, http.StatusOK, p)
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "ok",
		"version": edgar.VERSION,
	})
}

func (s *Server) observe(result string) {
	if s.config.Observer != nil {
		s.config.Observer.RunFinished(result)
	}
}

func (s *Server) render(c echo.Context, status int, p page) error {
	var buf bytes.Buffer
	if err := s.tmpl.ExecuteTemplate(&buf, "index.html", p); err != nil {
		return fmt.Errorf("failed to render page: %w", err)
	}
	return c.HTMLBlob(status, buf.Bytes())
}
