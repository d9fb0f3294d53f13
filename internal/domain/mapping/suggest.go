package mapping

import (
	"fmt"
	"strings"
)

// SuggestMapping proposes a target for every header. Headers with no synonym
// match are explicitly Unmapped.
func SuggestMapping(headers []string) FieldMapping {
	m := make(FieldMapping, len(headers))
	for _, h := range headers {
		if field, ok := matchSynonym(h); ok {
			m[h] = MapTo(field)
			continue
		}
		m[h] = Unmapped()
	}
	return m
}

var booleanTokens = map[string]struct{}{
	"true": {}, "false": {}, "1": {}, "0": {}, "yes": {}, "no": {},
}

// SuggestTypes infers a coarse type per header from sample records:
// number, then date, then boolean, else string.
func SuggestTypes(headers []string, records []*RawRecord) map[string]FieldType {
	out := make(map[string]FieldType, len(headers))
	for _, h := range headers {
		values := make([]any, 0, len(records))
		for _, r := range records {
			if v, ok := r.Get(h); ok && !isEmptyValue(v) {
				values = append(values, v)
			}
		}
		out[h] = inferType(values)
	}
	return out
}

func inferType(values []any) FieldType {
	if len(values) == 0 {
		return TypeString
	}
	switch {
	case allOf(values, isFiniteNumber):
		return TypeNumber
	case allOf(values, func(v any) bool { _, ok := parseDate(v); return ok }):
		return TypeDate
	case allOf(values, isBooleanToken):
		return TypeBoolean
	}
	return TypeString
}

func allOf(values []any, pred func(any) bool) bool {
	for _, v := range values {
		if !pred(v) {
			return false
		}
	}
	return true
}

func isFiniteNumber(v any) bool {
	switch x := v.(type) {
	case bool:
		return false
	case string:
		return numericPattern.MatchString(strings.TrimSpace(x))
	default:
		_, ok := toDecimal(x)
		return ok
	}
}

func isBooleanToken(v any) bool {
	if _, ok := v.(bool); ok {
		return true
	}
	_, ok := booleanTokens[strings.ToLower(strings.TrimSpace(fmt.Sprint(v)))]
	return ok
}
