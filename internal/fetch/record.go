package fetch

import (
	"strconv"
	"strings"
)

// recordString reads a string field, tolerating the occasional numeric
// JSON value some SODA datasets return for what's documented as a string
// column.
func recordString(r Record, key string) *string {
	v, ok := r[key]
	if !ok || v == nil {
		return nil
	}
	switch t := v.(type) {
	case string:
		if t == "" {
			return nil
		}
		return &t
	case float64:
		s := strconv.FormatFloat(t, 'f', -1, 64)
		return &s
	default:
		return nil
	}
}

// recordFloat parses a field as a float64 regardless of whether the SODA
// response encoded it as a JSON number or a numeric string.
func recordFloat(r Record, key string) *float64 {
	v, ok := r[key]
	if !ok || v == nil {
		return nil
	}
	switch t := v.(type) {
	case float64:
		return &t
	case string:
		if t == "" {
			return nil
		}
		f, err := strconv.ParseFloat(t, 64)
		if err != nil {
			return nil
		}
		return &f
	default:
		return nil
	}
}

func upperTrim(s *string) string {
	if s == nil {
		return ""
	}
	return strings.ToUpper(strings.TrimSpace(*s))
}

func orString(candidates ...*string) *string {
	for _, c := range candidates {
		if c != nil && *c != "" {
			return c
		}
	}
	return nil
}

func strPtr(s string) *string { return &s }
