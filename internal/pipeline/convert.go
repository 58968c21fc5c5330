package pipeline

// convert.go handles the messy reality of POS export cells:
//   - currency symbols and thousands separators in amounts
//   - accounting-style negatives "(12.34)"
//   - a spread of timestamp layouts, with and without zone offsets
//   - various boolean spellings (yes/no, true/false, 1/0)
//   - Excel formula prefixes (="value") and stray quotes
//
// Coercers return an error rather than guessing; a failed coercion quarantines
// the row upstream.

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// numericRegex validates an amount after cleanup: integers, decimals, and
// scientific notation.
var numericRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// Timestamp layouts split by zone awareness. Zoned layouts are tried first so
// an offset in the input is never silently dropped.
var (
	zonedLayouts = []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02 15:04:05Z07:00",
		"2006-01-02 15:04:05 -0700",
	}
	naiveLayouts = []string{
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
		"2006-01-02 15:04",
		"1/2/2006 15:04:05",
		"1/2/2006 15:04",
		"01/02/2006 15:04:05",
		"2006-01-02",
		"1/2/2006",
	}
)

// CleanCell removes common export artifacts from a cell value: surrounding
// whitespace, Excel formula prefixes (="..."), and stray quotes.
func CleanCell(s string) string {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "=\"") && strings.HasSuffix(s, "\"") {
		s = s[2 : len(s)-1]
	} else if strings.HasPrefix(s, "=") {
		s = s[1:]
	}

	s = strings.Trim(s, `"'`)

	return strings.TrimSpace(s)
}

// parseAmount converts an amount cell to a float64. Currency symbols,
// thousands separators, and accounting negatives are tolerated.
func parseAmount(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errors.New("empty amount")
	}

	isNegative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		isNegative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}

	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, "€", "") // Euro
	s = strings.ReplaceAll(s, "£", "") // Pound
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)

	if isNegative {
		s = "-" + s
	}

	if !numericRegex.MatchString(s) {
		return 0, errors.New("not a number")
	}

	return strconv.ParseFloat(s, 64)
}

// parseBool converts a boolean cell. Accepts true/false, yes/no, t/f, y/n, 1/0.
func parseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "t", "yes", "y", "1":
		return true, nil
	case "false", "f", "no", "n", "0":
		return false, nil
	default:
		return false, fmt.Errorf("not a boolean: %q", s)
	}
}

// parseTimestamp parses a timestamp cell. zoned reports whether the input
// carried a zone offset; naive timestamps come back in time.UTC and are
// reinterpreted as store-local time by the timezone resolver.
func parseTimestamp(s string) (t time.Time, zoned bool, err error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false, errors.New("empty timestamp")
	}

	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true, nil
		}
	}
	for _, layout := range naiveLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, false, nil
		}
	}

	return time.Time{}, false, fmt.Errorf("unrecognized timestamp format: %q", s)
}
