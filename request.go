package edgar

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

const (
	MinYear = 1900
	MaxYear = 2100

	QuartersPerYear = 4
)

// Supported report types
const (
	Form10Q = "10-Q"
	Form10K = "10-K"
)

// ReportTypes lists the forms offered to users, in display order
var ReportTypes = []string{Form10Q, Form10K}

// ErrInvalidRequest is returned (wrapped) for requests that fail validation
var ErrInvalidRequest = errors.New("invalid request")

var validate = validator.New()

// Request is one download-and-parse job
type Request struct {
	Ticker     string `json:"ticker" yaml:"ticker" form:"ticker" validate:"required"`
	StartYear  int    `json:"start_year" yaml:"start_year" form:"start_year" validate:"gte=1900,lte=2100"`
	EndYear    int    `json:"end_year" yaml:"end_year" form:"end_year" validate:"gte=1900,lte=2100,gtefield=StartYear"`
	ReportType string `json:"report_type" yaml:"report_type" form:"report_type" default:"10-Q" validate:"oneof=10-Q 10-K"`
}

// YearQuarter identifies one fiscal quarter
type YearQuarter struct {
	Year    int `json:"year" yaml:"year"`
	Quarter int `json:"quarter" yaml:"quarter"`
}

// Normalize trims the ticker and upper-cases it
func (r *Request) Normalize() {
	r.Ticker = strings.ToUpper(strings.TrimSpace(r.Ticker))
	r.ReportType = strings.TrimSpace(r.ReportType)
}

// Validate normalizes the request and checks it.
// Errors wrap ErrInvalidRequest.
func (r *Request) Validate() error {
	r.Normalize()
	if err := validate.Struct(r); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	return nil
}

// Periods returns every (year, quarter) in the request, in fetch order
func (r Request) Periods() []YearQuarter {
	if r.EndYear < r.StartYear {
		return nil
	}
	periods := make([]YearQuarter, 0, (r.EndYear-r.StartYear+1)*QuartersPerYear)
	for year := r.StartYear; year <= r.EndYear; year++ {
		for q := 1; q <= QuartersPerYear; q++ {
			periods = append(periods, YearQuarter{Year: year, Quarter: q})
		}
	}
	return periods
}

// DirName returns the per-period directory name: {ticker}_{type}_{year}_Q{quarter}
func (r Request) DirName(p YearQuarter) string {
	return fmt.Sprintf("%s_%s_%d_Q%d", r.Ticker, r.ReportType, p.Year, p.Quarter)
}

// SectionLabel returns the heading shown above a parsed filing
func (r Request) SectionLabel(p YearQuarter) string {
	return fmt.Sprintf("%s for %s - %d Q%d", r.ReportType, r.Ticker, p.Year, p.Quarter)
}

// AfterDate returns the first day of the quarter's first month (YYYY-MM-DD)
func (p YearQuarter) AfterDate() string {
	return fmt.Sprintf("%04d-%02d-01", p.Year, p.Quarter*3-2)
}

// BeforeDate returns the first day of the following quarter (YYYY-MM-DD)
func (p YearQuarter) BeforeDate() string {
	if p.Quarter >= 4 {
		return fmt.Sprintf("%04d-01-01", p.Year+1)
	}
	return fmt.Sprintf("%04d-%02d-01", p.Year, p.Quarter*3+1)
}

func (p YearQuarter) String() string {
	return fmt.Sprintf("%d Q%d", p.Year, p.Quarter)
}
