package common

import (
	"strconv"
	"strings"
)

// AtoiDefault converts the provided string to an integer falling back to the
// default when parsing fails.
func AtoiDefault(value string, def int) int {
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}

// ParseAmount parses a user-entered currency amount. A blank string yields
// (nil, true) meaning "not entered"; malformed input yields ok=false.
func ParseAmount(value string) (*float64, bool) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, true
	}
	// Counter input uses a comma decimal separator, optionally with dot
	// grouping ("1.234,50"). Dots are grouping only when a comma follows.
	if strings.Contains(trimmed, ",") {
		trimmed = strings.ReplaceAll(trimmed, ".", "")
		trimmed = strings.Replace(trimmed, ",", ".", 1)
	}
	parsed, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return nil, false
	}
	return &parsed, true
}
