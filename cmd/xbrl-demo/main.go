package main

import (
	"encoding/json"
	"fmt"
	"os"

	edgar "github.com/RxDataLab/edgar-statements"

	"github.com/shopspring/decimal"
)

var (
	billion = decimal.New(1, 9)
	million = decimal.New(1, 6)
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s <path-to-xbrl>\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Example:\n")
		fmt.Fprintf(os.Stderr, "  %s testdata/xbrl/sample_10q/input.xml\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Prints the statements of a 10-K/10-Q XBRL instance or inline XBRL document.\n")
		os.Exit(1)
	}

	filePath := os.Args[1]

	fmt.Fprintf(os.Stderr, "Loading: %s\n", filePath)
	data, err := os.ReadFile(filePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading file: %v\n", err)
		os.Exit(1)
	}

	fmt.Fprintf(os.Stderr, "File size: %.2f MB\n", float64(len(data))/1024/1024)

	xbrlType := edgar.DetectXBRLType(data)
	fmt.Fprintf(os.Stderr, "XBRL format: %s\n", xbrlType)

	if xbrlType == edgar.XBRLUnknown {
		fmt.Fprintf(os.Stderr, "Error: Not a recognized XBRL file\n")
		os.Exit(1)
	}

	xbrl, err := edgar.ParseXBRLAuto(data)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing XBRL: %v\n", err)
		os.Exit(1)
	}

	fmt.Fprintf(os.Stderr, "✓ Parsed successfully\n")
	fmt.Fprintf(os.Stderr, "  Contexts: %d\n", len(xbrl.Contexts))
	fmt.Fprintf(os.Stderr, "  Units: %d\n", len(xbrl.Units))
	fmt.Fprintf(os.Stderr, "  Facts: %d\n", len(xbrl.Facts))

	parsed := xbrl.Statements()
	doc := parsed.Document

	fmt.Println()
	fmt.Println("═══════════════════════════════════════════════════")
	fmt.Printf("  %s %s %s %s\n", doc.CompanyName, doc.FormType, doc.FiscalYear, doc.FiscalPeriod)
	fmt.Println("═══════════════════════════════════════════════════")

	for _, stmt := range []*edgar.Statement{parsed.BalanceSheet, parsed.IncomeStatement, parsed.CashFlow} {
		fmt.Printf("\n%s (%s)\n", stmt.Kind.Title(), stmt.Period.Label())
		fmt.Printf("%-45s %15s\n", "─────────────────────────────────────────", "──────────────")
		if stmt.Empty() {
			fmt.Println("  (not reported)")
			continue
		}
		for _, item := range stmt.Items {
			printMetric(item.Label, item.Value)
		}
	}
	fmt.Println()

	fmt.Fprintf(os.Stderr, "\nJSON Output:\n")
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(parsed); err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding JSON: %v\n", err)
		os.Exit(1)
	}
}

func printMetric(label string, value decimal.Decimal) {
	abs := value.Abs()
	switch {
	case abs.GreaterThanOrEqual(billion):
		fmt.Printf("%-45s %14sB\n", label, value.Div(billion).StringFixed(2))
	case abs.GreaterThanOrEqual(million):
		fmt.Printf("%-45s %14sM\n", label, value.Div(million).StringFixed(1))
	default:
		fmt.Printf("%-45s %15s\n", label, edgar.FormatAmount(value))
	}
}
