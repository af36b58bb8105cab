package csvimport

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/width"
)

// DateLayouts are tried in order; day-first wins over month-first when both parse.
// Single-digit day and month fields accept zero-padded input as well.
var DateLayouts = []string{
	"2006-1-2",
	"2006/1/2",
	"2/1/2006",
	"1/2/2006",
	"20060102",
}

var amountStripper = strings.NewReplacer(
	",", "",
	"¥", "",
	"￥", "",
	"$", "",
	" ", "",
	"\t", "",
	"(", "-",
	")", "",
)

// Normalize folds full-width digits, letters and punctuation to ASCII
func Normalize(s string) string {
	return trimSpaces(width.Narrow.String(s))
}

// ParseDate parses a feed date cell into UTC midnight. A trailing time part
// ("2024-01-05 00:00:00", RFC 3339) is ignored.
func ParseDate(raw string) (time.Time, error) {
	s := Normalize(raw)
	if s == "" {
		return time.Time{}, fmt.Errorf("date is empty")
	}
	candidates := []string{s}
	if i := strings.IndexAny(s, " T"); i > 0 {
		candidates = append(candidates, s[:i])
	}
	for _, c := range candidates {
		for _, layout := range DateLayouts {
			if t, err := time.Parse(layout, c); err == nil {
				return t.UTC(), nil
			}
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date '%s'", raw)
}

// ParseAmount parses a money cell. Currency symbols and thousands
// separators are dropped, parentheses mark a negative and the absolute
// value is returned.
func ParseAmount(raw string) (decimal.Decimal, error) {
	s := amountStripper.Replace(Normalize(raw))
	if s == "" || s == "-" {
		return decimal.Zero, fmt.Errorf("amount is empty")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("unrecognised amount '%s'", raw)
	}
	return d.Abs(), nil
}

// ParseOptionalAmount treats an empty cell as zero
func ParseOptionalAmount(raw string) (decimal.Decimal, error) {
	if Normalize(raw) == "" {
		return decimal.Zero, nil
	}
	return ParseAmount(raw)
}

// Column returns field index of a record. A negative index counts from the
// end, so -1 is the last field. ok is false when the index is out of range.
func Column(fields []string, index int) (string, bool) {
	if index < 0 {
		index += len(fields)
	}
	if index < 0 || index >= len(fields) {
		return "", false
	}
	return fields[index], true
}
