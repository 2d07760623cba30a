package edgar

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"regexp"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	VERSION = "0.4.0"

	// RequestsPerSecond is the SEC fair access limit
	RequestsPerSecond = 10

	// SecEmailEnvVar is the environment variable name for SEC email
	SecEmailEnvVar = "SEC_EMAIL"

	DefaultDataBaseURL     = "https://data.sec.gov"
	DefaultArchivesBaseURL = "https://www.sec.gov/Archives/edgar/data"
	DefaultFilesBaseURL    = "https://www.sec.gov/files"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// GetSecEmail retrieves email from environment variable or returns error
func GetSecEmail() (string, error) {
	email := os.Getenv(SecEmailEnvVar)
	if email == "" {
		return "", fmt.Errorf("SEC email required: set %s environment variable or use --email flag", SecEmailEnvVar)
	}
	if err := ValidateEmail(email); err != nil {
		return "", err
	}
	return email, nil
}

// ValidateEmail checks that an address is usable as an SEC contact
func ValidateEmail(email string) error {
	if !emailRegex.MatchString(email) {
		return fmt.Errorf("invalid email format: %s", email)
	}
	if strings.HasSuffix(email, "example.com") {
		return fmt.Errorf("use a real email address, not example.com: %s", email)
	}
	return nil
}

// BuildUserAgent creates a proper SEC User-Agent string
func BuildUserAgent(email string) string {
	return fmt.Sprintf("go-edgar/%s (%s)", VERSION, email)
}

// HTTPDoer performs HTTP requests. *http.Client satisfies it.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client talks to data.sec.gov and the EDGAR archives.
// Every request carries the SEC User-Agent and waits on a shared rate limiter.
type Client struct {
	httpClient HTTPDoer
	limiter    *rate.Limiter
	userAgent  string

	dataBaseURL     string
	archivesBaseURL string
	filesBaseURL    string
}

// ClientOption customizes a Client
type ClientOption func(*Client)

// WithHTTPClient replaces the default http.Client
func WithHTTPClient(doer HTTPDoer) ClientOption {
	return func(c *Client) { c.httpClient = doer }
}

// WithRateLimit sets the maximum requests per second
func WithRateLimit(perSecond int) ClientOption {
	return func(c *Client) {
		if perSecond > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(perSecond), perSecond)
		}
	}
}

// WithTimeout sets the timeout of the default http.Client
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if hc, ok := c.httpClient.(*http.Client); ok && d > 0 {
			hc.Timeout = d
		}
	}
}

// WithBaseURLs points the client at alternative hosts (used by tests)
func WithBaseURLs(data, archives, files string) ClientOption {
	return func(c *Client) {
		if data != "" {
			c.dataBaseURL = strings.TrimRight(data, "/")
		}
		if archives != "" {
			c.archivesBaseURL = strings.TrimRight(archives, "/")
		}
		if files != "" {
			c.filesBaseURL = strings.TrimRight(files, "/")
		}
	}
}

// NewClient creates a client identified by the given contact email.
// Email is required by SEC - must be a valid email address
func NewClient(email string, opts ...ClientOption) (*Client, error) {
	if email == "" {
		return nil, fmt.Errorf("email is required for SEC requests")
	}

	c := &Client{
		httpClient:      &http.Client{Timeout: 30 * time.Second},
		limiter:         rate.NewLimiter(rate.Limit(RequestsPerSecond), RequestsPerSecond),
		userAgent:       BuildUserAgent(email),
		dataBaseURL:     DefaultDataBaseURL,
		archivesBaseURL: DefaultArchivesBaseURL,
		filesBaseURL:    DefaultFilesBaseURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Get fetches a URL and returns the response body
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	body, err := c.open(ctx, url)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	return data, nil
}

// Download streams a URL into w and returns the number of bytes written
func (c *Client) Download(ctx context.Context, url string, w io.Writer) (int64, error) {
	body, err := c.open(ctx, url)
	if err != nil {
		return 0, err
	}
	defer body.Close()

	n, err := io.Copy(w, body)
	if err != nil {
		return n, fmt.Errorf("failed to write %s: %w", url, err)
	}
	return n, nil
}

func (c *Client) open(ctx context.Context, url string) (io.ReadCloser, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("SEC returned status %d for %s", resp.StatusCode, url)
	}
	return resp.Body, nil
}
