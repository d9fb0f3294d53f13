package mapping

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// numericPattern matches plain integers, decimals and scientific notation.
var numericPattern = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// twoDigitYearPivot bounds how far into the future a two-digit year may land
// before it is moved back a century.
const twoDigitYearPivot = 20

var (
	timestampLayouts = []string{
		time.RFC3339Nano,
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
		"2006-01-02 15:04",
		"2006/01/02 15:04:05",
		"2006/01/02 15:04",
	}
	fourDigitYearLayouts = []string{
		"2006-01-02", "2006/01/02", "2006.01.02",
		"1/2/2006", "01/02/2006", "1-2-2006", "01-02-2006", "1.2.2006", "01.02.2006",
		"Jan 2, 2006", "2 Jan 2006", "January 2, 2006",
		"20060102",
	}
	twoDigitYearLayouts = []string{
		"1/2/06", "01/02/06", "1-2-06", "01-02-06", "1.2.06", "01.02.06",
	}
)

var truthyTokens = map[string]struct{}{
	"true": {}, "1": {}, "yes": {}, "y": {},
}

// Coerce converts a raw value to the canonical type t. Empty strings and nil
// always become nil; so does anything that cannot be parsed. It never fails.
//
// Result types: TypeString string, TypeNumber decimal.Decimal, TypeInteger
// int64, TypeDate time.Time (UTC), TypeBoolean bool.
func Coerce(value any, t FieldType) any {
	if isEmptyValue(value) {
		return nil
	}
	switch t {
	case TypeNumber:
		if d, ok := toDecimal(value); ok {
			return d
		}
		return nil
	case TypeInteger:
		if d, ok := toDecimal(value); ok {
			return d.Truncate(0).IntPart()
		}
		return nil
	case TypeBoolean:
		if b, ok := value.(bool); ok {
			return b
		}
		_, ok := truthyTokens[strings.ToLower(strings.TrimSpace(stringify(value)))]
		return ok
	case TypeDate:
		if ts, ok := parseDate(value); ok {
			return ts
		}
		return nil
	default:
		return stringify(value)
	}
}

// CoerceAttributes applies Coerce to every key using the declared type of
// that field. Keys whose result is nil are dropped.
func CoerceAttributes(attrs Attributes) Attributes {
	out := make(Attributes, len(attrs))
	for k, v := range attrs {
		if c := Coerce(v, TypeOf(k)); c != nil {
			out[k] = c
		}
	}
	return out
}

func isEmptyValue(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return x == ""
	case json.RawMessage:
		return len(x) == 0 || string(x) == "null"
	}
	return false
}

func stringify(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case time.Time:
		return x.UTC().Format(time.RFC3339)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case fmt.Stringer:
		return x.String()
	}
	return fmt.Sprint(v)
}

// toDecimal parses numbers leniently: currency symbols, thousands separators
// and accounting parentheses are accepted on strings.
func toDecimal(v any) (decimal.Decimal, bool) {
	switch x := v.(type) {
	case decimal.Decimal:
		return x, true
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return decimal.Zero, false
		}
		return decimal.NewFromFloat(x), true
	case float32:
		return toDecimal(float64(x))
	case int:
		return decimal.NewFromInt(int64(x)), true
	case int32:
		return decimal.NewFromInt(int64(x)), true
	case int64:
		return decimal.NewFromInt(x), true
	case json.Number:
		return parseNumericString(x.String())
	case string:
		return parseNumericString(x)
	}
	return decimal.Zero, false
}

var currencyReplacer = strings.NewReplacer(
	"NT$", "", "US$", "", "$", "", "€", "", "£", "", "¥", "", "￥", "", "元", "", ",", "", "，", "",
)

func parseNumericString(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, false
	}
	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}
	s = strings.TrimSpace(currencyReplacer.Replace(s))
	if !numericPattern.MatchString(s) {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	if negative {
		d = d.Neg()
	}
	return d, true
}

// parseDate understands RFC 3339 timestamps, common calendar layouts and
// epoch milliseconds given as numbers.
func parseDate(v any) (time.Time, bool) {
	switch x := v.(type) {
	case time.Time:
		return x.UTC(), true
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return time.Time{}, false
		}
		return time.UnixMilli(int64(x)).UTC(), true
	case int64:
		return time.UnixMilli(x).UTC(), true
	case int:
		return time.UnixMilli(int64(x)).UTC(), true
	case json.Number:
		if n, err := x.Int64(); err == nil {
			return time.UnixMilli(n).UTC(), true
		}
		return time.Time{}, false
	case string:
		return parseDateString(x)
	}
	return time.Time{}, false
}

func parseDateString(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts.UTC(), true
		}
	}
	for _, layout := range fourDigitYearLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, true
		}
	}
	pivot := time.Now().Year() + twoDigitYearPivot
	for _, layout := range twoDigitYearLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			if ts.Year() > pivot {
				ts = ts.AddDate(-100, 0, 0)
			}
			return ts, true
		}
	}
	return time.Time{}, false
}
