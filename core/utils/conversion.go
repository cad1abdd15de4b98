package utils

import (
	"strconv"
	"strings"
)

// ToInt parses s, returning def when s is empty or not an integer.
func ToInt(s string, def int) int {
	i, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return def
	}
	return i
}

// ToFloat parses s, returning def when s is empty or not a finite number.
func ToFloat(s string, def float64) float64 {
	f, ok := parseFinite(s)
	if !ok {
		return def
	}
	return f
}

// ToBool accepts "1" and "true" (any case) as true. Empty strings yield def.
func ToBool(s string, def bool) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	return s == "1" || strings.ToLower(s) == "true"
}
