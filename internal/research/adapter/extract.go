package adapter

import (
	"encoding/json"
	"regexp"
	"strings"
)

var fenceRe = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")

// ExtractJSON pulls the first complete JSON object out of a possibly noisy
// provider response. Three tiers: direct parse, fenced-block parse, then a
// balanced-brace scan over the raw text. Returns false when no valid object
// can be extracted.
func ExtractJSON(raw string) ([]byte, bool) {
	trimmed := strings.TrimSpace(raw)
	if isJSONObject(trimmed) {
		return []byte(trimmed), true
	}

	if m := fenceRe.FindStringSubmatch(raw); m != nil {
		if inner := strings.TrimSpace(m[1]); isJSONObject(inner) {
			return []byte(inner), true
		}
	}

	if obj, ok := scanBalanced(raw); ok {
		return obj, true
	}
	return nil, false
}

func isJSONObject(s string) bool {
	return strings.HasPrefix(s, "{") && json.Valid([]byte(s))
}

// scanBalanced walks from the first '{' counting brace depth, skipping
// string literals and escapes, and parses the first balanced object.
func scanBalanced(raw string) ([]byte, bool) {
	start := strings.IndexByte(raw, '{')
	if start == -1 {
		return nil, false
	}

	depth := 0
	inString := false
	escape := false
	for i := start; i < len(raw); i++ {
		ch := raw[i]
		switch {
		case escape:
			escape = false
		case ch == '\\' && inString:
			escape = true
		case ch == '"':
			inString = !inString
		case inString:
		case ch == '{':
			depth++
		case ch == '}':
			depth--
			if depth == 0 {
				candidate := raw[start : i+1]
				if json.Valid([]byte(candidate)) {
					return []byte(candidate), true
				}
				return nil, false
			}
		}
	}
	return nil, false
}
