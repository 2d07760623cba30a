package edgar

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

var (
	whitespaceRun = regexp.MustCompile(`\s+`)
	numberStrip   = regexp.MustCompile(`[^0-9.,\-]`)
)

// CleanExtractedText normalizes text pulled out of a filed XHTML document:
// Unicode spaces become plain spaces, invisible characters are removed and
// whitespace runs collapse to one space.
func CleanExtractedText(text string) string {
	text = normalizeWhitespace(text)
	text = removeInvisibleChars(text)
	text = whitespaceRun.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// ParseInlineNumber converts the displayed text of an ix:nonFraction into a
// decimal according to its ixt format (num-dot-decimal, num-comma-decimal,
// fixed-zero, zerodash, ...). Scale and sign are applied by the caller.
func ParseInlineNumber(text, format string) (decimal.Decimal, error) {
	format = strings.ToLower(localName(format))
	text = CleanExtractedText(text)

	if strings.Contains(format, "zero") || isDash(text) {
		return decimal.Zero, nil
	}

	cleaned := numberStrip.ReplaceAllString(text, "")
	if strings.Contains(format, "comma-decimal") || strings.Contains(format, "numcommadecimal") {
		// 1.234.567,89 -> 1234567.89
		cleaned = strings.ReplaceAll(cleaned, ".", "")
		cleaned = strings.ReplaceAll(cleaned, ",", ".")
	} else {
		cleaned = strings.ReplaceAll(cleaned, ",", "")
	}

	if cleaned == "" || cleaned == "-" || cleaned == "." {
		return decimal.Zero, fmt.Errorf("empty or invalid value: %q", text)
	}

	val, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid number %q: %w", text, err)
	}
	return val, nil
}

func isDash(text string) bool {
	switch text {
	case "-", "\u2013", "\u2014":
		return true
	}
	return false
}

// normalizeWhitespace converts various Unicode whitespace characters to regular spaces
func normalizeWhitespace(text string) string {
	// U+00A0 (non-breaking space) is the most common issue
	var result strings.Builder
	result.Grow(len(text))

	for _, r := range text {
		switch r {
		case '\u00A0': // Non-breaking space (NBSP)
			result.WriteRune(' ')
		case '\u2000', '\u2001', '\u2002', '\u2003', '\u2004', '\u2005': // En quad, Em quad, etc.
			result.WriteRune(' ')
		case '\u2006', '\u2007', '\u2008', '\u2009', '\u200A': // Figure space, etc.
			result.WriteRune(' ')
		case '\u202F', '\u205F', '\u3000':
			result.WriteRune(' ')
		default:
			result.WriteRune(r)
		}
	}

	return result.String()
}

// removeInvisibleChars removes zero-width and other invisible characters
func removeInvisibleChars(text string) string {
	var result strings.Builder
	result.Grow(len(text))

	for _, r := range text {
		switch r {
		case '\u200B', '\u200C', '\u200D', '\uFEFF', '\u180E':
			continue
		default:
			if unicode.Is(unicode.Cf, r) {
				continue
			}
			result.WriteRune(r)
		}
	}

	return result.String()
}
