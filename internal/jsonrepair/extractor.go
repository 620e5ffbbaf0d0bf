// Package jsonrepair recovers a single well-formed JSON object from noisy
// or partial model output. Every step is idempotent and skipped when the
// input already parses; Extract always returns a string and never panics.
// Callers own the final parse attempt and must treat parse failure as a
// normal failed decision.
package jsonrepair

import (
	"encoding/json"
	"regexp"
	"strings"
)

var (
	fencePattern  = regexp.MustCompile("(?s)^```(?:json|javascript|js)?\\s*(.*?)\\s*```$")
	objectPattern = regexp.MustCompile(`\{[\s\S]*\}`)
	bareKeys      = regexp.MustCompile(`([,{]\s*)([A-Za-z_][A-Za-z0-9_\-]*)\s*:`)
	trailingComma = regexp.MustCompile(`,\s*([}\]])`)
)

// Extract returns a best-effort well-formed JSON object string.
func Extract(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if valid(trimmed) {
		return trimmed
	}

	text := StripFences(trimmed)
	if valid(text) {
		return text
	}

	candidate := ScanObject(text)
	if candidate == "" {
		candidate = text
	}
	if valid(candidate) {
		return candidate
	}

	repaired := Repair(candidate)
	if valid(repaired) {
		return repaired
	}

	// Brace scanning stops early when a quote inside the object goes
	// unbalanced; the naive cut keeps the tail, so repair gets a second
	// input to work with.
	if simple := SimpleSlice(text); simple != "" && simple != candidate {
		if r := Repair(simple); valid(r) {
			return r
		}
	}

	// Last resort: hand back whatever looks like an object verbatim.
	if m := objectPattern.FindString(raw); m != "" {
		return m
	}
	return repaired
}

func valid(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" || s[0] != '{' {
		return false
	}
	return json.Valid([]byte(s))
}

// StripFences removes a leading/trailing markdown code fence if present.
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	if m := fencePattern.FindStringSubmatch(s); m != nil {
		return strings.TrimSpace(m[1])
	}
	// Unterminated fence: model ran out of tokens mid-block.
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimPrefix(s, "json")
		return strings.TrimSpace(s)
	}
	return s
}

// ScanObject locates the first balanced JSON object using brace scanning
// that respects string literals and escape sequences. Nested braces inside
// string values do not confuse it. Returns "" when no opening brace exists;
// an unterminated object is returned from the opening brace to the end so
// that Repair can balance it.
func ScanObject(s string) string {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if escaped {
			escaped = false
			continue
		}
		switch c {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case '{':
			if !inString {
				depth++
			}
		case '}':
			if !inString {
				depth--
				if depth == 0 {
					return s[start : i+1]
				}
			}
		}
	}
	return s[start:]
}

// SimpleSlice is the naive first-'{' to last-'}' cut. It silently corrupts
// nested-object payloads, so it only runs after the scanned slice failed
// to repair.
func SimpleSlice(s string) string {
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start < 0 || end <= start {
		return ""
	}
	return s[start : end+1]
}

// Repair applies textual fixes in order: strip JS-style comments, quote
// bare keys, normalize single quotes, remove trailing commas, and balance
// unmatched braces. Each fix is independently testable.
func Repair(s string) string {
	s = StripComments(s)
	s = QuoteBareKeys(s)
	s = NormalizeQuotes(s)
	s = RemoveTrailingCommas(s)
	s = BalanceBraces(s)
	return strings.TrimSpace(s)
}

// StripComments removes // line comments and /* */ block comments that
// appear outside double-quoted strings.
func StripComments(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	inString := false
	escaped := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			b.WriteByte(c)
			if escaped {
				escaped = false
			} else if c == '\\' {
				escaped = true
			} else if c == '"' {
				inString = false
			}
			continue
		}
		if c == '"' {
			inString = true
			b.WriteByte(c)
			continue
		}
		if c == '/' && i+1 < len(s) {
			if s[i+1] == '/' {
				for i < len(s) && s[i] != '\n' {
					i++
				}
				if i < len(s) {
					b.WriteByte('\n')
				}
				continue
			}
			if s[i+1] == '*' {
				i += 2
				for i+1 < len(s) && !(s[i] == '*' && s[i+1] == '/') {
					i++
				}
				i++ // skip the trailing '/'
				continue
			}
		}
		b.WriteByte(c)
	}
	return b.String()
}

// QuoteBareKeys wraps unquoted object keys in double quotes.
func QuoteBareKeys(s string) string {
	return bareKeys.ReplaceAllString(s, `$1"$2":`)
}

// NormalizeQuotes converts single-quoted string literals to double-quoted
// ones, escaping any embedded double quotes.
func NormalizeQuotes(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	inDouble := false
	inSingle := false
	escaped := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if escaped {
			b.WriteByte(c)
			escaped = false
			continue
		}
		switch {
		case c == '\\':
			b.WriteByte(c)
			escaped = true
		case c == '"' && !inSingle:
			inDouble = !inDouble
			b.WriteByte(c)
		case c == '"' && inSingle:
			b.WriteString(`\"`)
		case c == '\'' && !inDouble:
			inSingle = !inSingle
			b.WriteByte('"')
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// RemoveTrailingCommas drops commas that directly precede a closing
// brace or bracket.
func RemoveTrailingCommas(s string) string {
	return trailingComma.ReplaceAllString(s, `$1`)
}

// BalanceBraces appends closers for any braces/brackets left open outside
// string literals. Extra closers are not removed; truncated model output
// only ever under-closes.
func BalanceBraces(s string) string {
	var stack []byte
	inString := false
	escaped := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if escaped {
			escaped = false
			continue
		}
		switch c {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case '{':
			if !inString {
				stack = append(stack, '}')
			}
		case '[':
			if !inString {
				stack = append(stack, ']')
			}
		case '}', ']':
			if !inString && len(stack) > 0 && stack[len(stack)-1] == c {
				stack = stack[:len(stack)-1]
			}
		}
	}

	if inString {
		s += `"`
	}
	for i := len(stack) - 1; i >= 0; i-- {
		s += string(stack[i])
	}
	return s
}
