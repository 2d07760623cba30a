// goedgar downloads 10-Q/10-K filings from SEC EDGAR and shows their
// balance sheet and income statement, on the command line or in a browser.
package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	edgar "github.com/RxDataLab/edgar-statements"
	"github.com/RxDataLab/edgar-statements/internal/config"
	"github.com/RxDataLab/edgar-statements/internal/logging"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	cfg       *config.Config
	logger    = zerolog.Nop()
	logCloser io.Closer
)

func main() {
	err := rootCmd.Execute()
	if logCloser != nil {
		logCloser.Close()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "goedgar",
	Short: "Download SEC EDGAR filings and show their financial statements",
	Long: `goedgar fetches one filing per fiscal quarter for a ticker and year range,
parses the XBRL documents and prints the balance sheet and income statement.

Environment:
  SEC_EMAIL    Email for the SEC User-Agent header (required for downloads)
  GOEDGAR_*    Overrides any config key, e.g. GOEDGAR_STORAGE_ROOT`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// .env is optional
		if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to load .env: %w", err)
		}

		configFile, _ := cmd.Flags().GetString("config")
		var err error
		cfg, err = config.Load(configFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		if level, _ := cmd.Flags().GetString("log-level"); level != "" {
			cfg.Logging.Level = level
		}
		if email, _ := cmd.Flags().GetString("email"); email != "" {
			cfg.SEC.Email = email
		}

		logger, logCloser, err = logging.New(logging.Config{
			Level:  cfg.Logging.Level,
			Format: cfg.Logging.Format,
			Output: cfg.Logging.Output,
		})
		if err != nil {
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level override (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringP("email", "e", "", "email for SEC User-Agent header (or use SEC_EMAIL env var)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(parseCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("goedgar %s\n", edgar.VERSION)
	},
}

// newClient builds the SEC client from config, failing fast without a valid email.
func newClient() (*edgar.Client, error) {
	email := strings.TrimSpace(cfg.SEC.Email)
	if email == "" {
		var err error
		if email, err = edgar.GetSecEmail(); err != nil {
			return nil, err
		}
	} else if err := edgar.ValidateEmail(email); err != nil {
		return nil, err
	}
	return edgar.NewClient(email,
		edgar.WithRateLimit(cfg.SEC.RateLimit),
		edgar.WithTimeout(cfg.SEC.Timeout()),
	)
}

// newPipeline wires the EDGAR downloader into a pipeline.
// offline pipelines (extract only) need no SEC client.
func newPipeline(offline bool, metrics edgar.Recorder) (*edgar.Pipeline, error) {
	var downloader edgar.Downloader
	if !offline {
		client, err := newClient()
		if err != nil {
			return nil, err
		}
		d := edgar.NewEDGARDownloader(client, cfg.Storage.WorkDir, cfg.Extract.Extensions)
		d.Logger = logger.With().Str("component", "downloader").Logger()
		downloader = d
	}

	p := edgar.NewPipeline(downloader, cfg.Storage.Root, cfg.Storage.WorkDir)
	if !offline {
		if err := p.CheckDirs(); err != nil {
			return nil, err
		}
	}
	p.Extensions = cfg.Extract.Extensions
	p.Logger = logger.With().Str("component", "pipeline").Logger()
	if metrics != nil {
		p.Metrics = metrics
	}
	return p, nil
}
