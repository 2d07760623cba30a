package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	edgar "github.com/RxDataLab/edgar-statements"

	"github.com/spf13/cobra"
)

// requestFlags are shared by run, fetch and extract
type requestFlags struct {
	ticker     string
	startYear  int
	endYear    int
	reportType string
	reportPath string
}

func (f *requestFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.ticker, "ticker", "t", "", "stock ticker of the company (e.g. AAPL)")
	cmd.Flags().IntVar(&f.startYear, "start", 0, "start year (e.g. 2020)")
	cmd.Flags().IntVar(&f.endYear, "end", 0, "end year, defaults to the start year")
	cmd.Flags().StringVar(&f.reportType, "type", edgar.Form10Q, "report type: 10-Q or 10-K")
	cmd.Flags().StringVarP(&f.reportPath, "report", "o", "", "write the run report to this .json or .yaml file")
	_ = cmd.MarkFlagRequired("ticker")
	_ = cmd.MarkFlagRequired("start")
}

func (f *requestFlags) request() edgar.Request {
	end := f.endYear
	if end == 0 {
		end = f.startYear
	}
	return edgar.Request{
		Ticker:     f.ticker,
		StartYear:  f.startYear,
		EndYear:    end,
		ReportType: f.reportType,
	}
}

func (f *requestFlags) finish(report *edgar.Report, runErr error) error {
	if report != nil {
		fmt.Fprintf(os.Stderr, "%d fetch requests, %d documents: %d rendered, %d empty, %d skipped\n",
			report.FetchRequests(), report.Attempted, report.Rendered, report.Empty, report.Failed)
		if f.reportPath != "" {
			if err := edgar.SaveReport(f.reportPath, report); err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "Saved report: %s\n", f.reportPath)
		}
	}
	return runErr
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

var (
	runFlags     requestFlags
	fetchFlags   requestFlags
	extractFlags requestFlags
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Download filings for a year range and print their statements",
	Example: `  goedgar run -t AAPL --start 2020 --end 2021 --type 10-Q
  goedgar run -t AAPL --start 2020 --type 10-K -o report.yaml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := newPipeline(false, nil)
		if err != nil {
			return err
		}
		ctx, cancel := signalContext()
		defer cancel()

		report, err := p.Run(ctx, runFlags.request(), edgar.NewTextRenderer(os.Stdout))
		return runFlags.finish(report, err)
	},
}

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download filings into per-quarter directories without parsing",
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := newPipeline(false, nil)
		if err != nil {
			return err
		}
		ctx, cancel := signalContext()
		defer cancel()

		report, err := p.Fetch(ctx, fetchFlags.request())
		return fetchFlags.finish(report, err)
	},
}

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Parse previously downloaded per-quarter directories and print their statements",
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := newPipeline(true, nil)
		if err != nil {
			return err
		}
		ctx, cancel := signalContext()
		defer cancel()

		report, err := p.Extract(ctx, extractFlags.request(), edgar.NewTextRenderer(os.Stdout))
		return extractFlags.finish(report, err)
	},
}

var parseFormat string

var parseCmd = &cobra.Command{
	Use:   "parse <source>",
	Short: "Parse one XBRL document from a URL or file path",
	Example: `  goedgar parse https://www.sec.gov/Archives/edgar/data/320193/000032019320000096/aapl-20200926_htm.xml
  goedgar parse ./aapl-20200926_htm.xml --format yaml`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		source := args[0]

		var data []byte
		if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
			client, err := newClient()
			if err != nil {
				return err
			}
			if meta, err := edgar.ExtractMetadataFromURL(source); err == nil {
				logger.Debug().Str("cik", meta.CIK).Str("accession", meta.Accession).Msg("source")
			}
			fmt.Fprintf(os.Stderr, "Fetching from SEC: %s\n", source)
			data, err = client.Get(cmd.Context(), source)
			if err != nil {
				return fmt.Errorf("failed to fetch document: %w", err)
			}
		} else {
			var err error
			data, err = os.ReadFile(source)
			if err != nil {
				return fmt.Errorf("failed to read file: %w", err)
			}
		}

		parsed, err := edgar.ParseStatements(bytes.NewReader(data))
		if err != nil {
			return fmt.Errorf("failed to parse document: %w", err)
		}

		var out []byte
		switch parseFormat {
		case "json":
			out, err = edgar.FormatJSON(parsed)
		case "yaml":
			out, err = edgar.FormatYAML(parsed)
		case "text":
			var buf bytes.Buffer
			for _, stmt := range []*edgar.Statement{parsed.BalanceSheet, parsed.IncomeStatement, parsed.CashFlow} {
				if err := edgar.WriteStatementTable(&buf, stmt); err != nil {
					return err
				}
			}
			out = buf.Bytes()
		default:
			return fmt.Errorf("unknown format %q (json, yaml, text)", parseFormat)
		}
		if err != nil {
			return fmt.Errorf("failed to format output: %w", err)
		}
		_, err = os.Stdout.Write(out)
		return err
	},
}

func init() {
	runFlags.register(runCmd)
	fetchFlags.register(fetchCmd)
	extractFlags.register(extractCmd)
	parseCmd.Flags().StringVarP(&parseFormat, "format", "f", "json", "output format: json, yaml or text")
}
