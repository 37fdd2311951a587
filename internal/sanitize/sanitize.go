// Undangan - Multi-Tenant Wedding Invitation Server
// Copyright 2026 Kukuh W. (kukuhw)
// SPDX-License-Identifier: MIT
// https://github.com/kukuhw/undangan

// Package sanitize cleans visitor-supplied strings before they are stored
// or echoed back. It is a best-effort denylist (angle brackets, the
// javascript: protocol, inline event-handler attributes), not a parser
// based sanitizer, plus a hard length cap.
package sanitize

import (
	"regexp"
	"strings"
)

// MaxLength is the cap applied to every sanitized string, in runes.
const MaxLength = 1000

var (
	jsProtocol    = regexp.MustCompile(`(?i)javascript:`)
	eventHandlers = regexp.MustCompile(`(?i)on\w+=`)
)

// String strips markup-significant characters, script-injection prefixes,
// and inline event handlers, trims whitespace, and truncates to MaxLength.
func String(s string) string {
	s = strings.ReplaceAll(s, "<", "")
	s = strings.ReplaceAll(s, ">", "")
	s = jsProtocol.ReplaceAllString(s, "")
	s = eventHandlers.ReplaceAllString(s, "")
	s = strings.TrimSpace(s)

	if runes := []rune(s); len(runes) > MaxLength {
		s = string(runes[:MaxLength])
	}
	return s
}

// Map sanitizes every string in m recursively: strings are cleaned,
// numbers and booleans pass through, slices are sanitized element-wise,
// nested maps recurse, and values of any other type are dropped.
func Map(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		if cleaned, ok := value(v); ok {
			out[k] = cleaned
		}
	}
	return out
}

func value(v any) (any, bool) {
	switch val := v.(type) {
	case string:
		return String(val), true
	case float64, float32, int, int64, int32, bool:
		return val, true
	case []any:
		cleaned := make([]any, 0, len(val))
		for _, elem := range val {
			if c, ok := value(elem); ok {
				cleaned = append(cleaned, c)
			}
		}
		return cleaned, true
	case map[string]any:
		return Map(val), true
	default:
		return nil, false
	}
}
