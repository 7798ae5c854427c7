// Package jsonrepair extracts and repairs structured JSON from language-model
// responses. Models wrap objects in markdown fences and occasionally emit
// trailing commas or raw newlines inside string values; callers get a bounded
// parse -> repair -> reparse chain instead of a hard failure.
package jsonrepair

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

var trailingComma = regexp.MustCompile(`,\s*([}\]])`)

// Extract strips markdown code-fence markers and returns the fenced body, or
// the trimmed input when no fence is present.
func Extract(text string) string {
	text = strings.TrimSpace(text)
	if i := strings.Index(text, "```json"); i >= 0 {
		rest := text[i+len("```json"):]
		if j := strings.Index(rest, "```"); j >= 0 {
			return strings.TrimSpace(rest[:j])
		}
		return strings.TrimSpace(rest)
	}
	if i := strings.Index(text, "```"); i >= 0 {
		rest := text[i+3:]
		if j := strings.Index(rest, "```"); j >= 0 {
			return strings.TrimSpace(rest[:j])
		}
		return strings.TrimSpace(rest)
	}
	return text
}

// Repair applies the bounded set of textual transforms: trailing commas
// before closing brackets are removed, and bare newlines inside string values
// are escaped.
func Repair(s string) string {
	s = trailingComma.ReplaceAllString(s, "$1")
	return escapeNewlinesInStrings(s)
}

// escapeNewlinesInStrings walks the text tracking string state and replaces
// literal newlines that occur inside a JSON string with \n.
func escapeNewlinesInStrings(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inString := false
	escaped := false
	for _, r := range s {
		switch {
		case escaped:
			escaped = false
			b.WriteRune(r)
		case r == '\\' && inString:
			escaped = true
			b.WriteRune(r)
		case r == '"':
			inString = !inString
			b.WriteRune(r)
		case r == '\n' && inString:
			b.WriteString(`\n`)
		case r == '\r' && inString:
			// Drop carriage returns inside strings.
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Unmarshal runs the chain: extract, parse, repair, reparse. The returned
// error wraps the final parse failure and callers still hold the raw text for
// diagnostics.
func Unmarshal(text string, v any) error {
	body := Extract(text)
	if err := json.Unmarshal([]byte(body), v); err == nil {
		return nil
	}
	repaired := Repair(body)
	if err := json.Unmarshal([]byte(repaired), v); err != nil {
		return fmt.Errorf("unparseable model output after repair: %w", err)
	}
	return nil
}
