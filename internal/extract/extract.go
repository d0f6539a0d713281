// Package extract recovers structured data from free-form model text.
// Models are asked to respond with JSON but only loosely comply, so
// recovery runs three escalating strategies: strict parse of the best
// candidate span, control-character repair inside string literals, and
// finally regex scraping of the common content fields. Each strategy is a
// separate function so its behavior can be pinned by its own tests.
package extract

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// ParseError means all recovery strategies failed. Snippet holds a short
// prefix of the offending text; the full text is never embedded so error
// messages stay bounded.
type ParseError struct {
	Snippet string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("no structured data recoverable from model output: %q", e.Snippet)
}

const snippetLen = 80

// Object returns the first JSON object recoverable from text, as raw JSON
// ready to unmarshal into a task-specific type.
func Object(text string) (json.RawMessage, error) {
	if span, ok := candidateSpan(text); ok {
		if raw, err := parseStrict(span); err == nil {
			return raw, nil
		}
		if raw, err := parseStrict(repairControlChars(span)); err == nil {
			return raw, nil
		}
	}

	if obj, ok := scrapeFields(text); ok {
		raw, err := json.Marshal(obj)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal scraped fields: %w", err)
		}
		return raw, nil
	}

	snippet := strings.TrimSpace(text)
	if len(snippet) > snippetLen {
		snippet = snippet[:snippetLen]
	}
	return nil, &ParseError{Snippet: snippet}
}

// fenceRe matches a fenced code block with an optional language tag.
var fenceRe = regexp.MustCompile("(?s)```[a-zA-Z]*\\s*\n?(.*?)```")

// candidateSpan locates the most promising JSON span: the first fenced
// code block if any, otherwise the first-{ to last-} stretch of the text.
func candidateSpan(text string) (string, bool) {
	if m := fenceRe.FindStringSubmatch(text); m != nil {
		if span := strings.TrimSpace(m[1]); span != "" {
			return span, true
		}
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return text[start : end+1], true
}

// parseStrict accepts the span only if it is a complete JSON object with
// no trailing junk.
func parseStrict(span string) (json.RawMessage, error) {
	var obj map[string]any
	if err := json.Unmarshal([]byte(span), &obj); err != nil {
		return nil, err
	}
	return json.RawMessage(span), nil
}

// repairControlChars rewrites literal control characters inside
// double-quoted string literals into their escaped forms. This repairs the
// common failure of a model emitting real newlines inside a JSON string
// value. Characters outside string literals are left alone.
func repairControlChars(span string) string {
	var b strings.Builder
	b.Grow(len(span))

	inString := false
	escaped := false
	for i := 0; i < len(span); i++ {
		c := span[i]

		if !inString {
			if c == '"' {
				inString = true
			}
			b.WriteByte(c)
			continue
		}

		if escaped {
			escaped = false
			b.WriteByte(c)
			continue
		}

		switch {
		case c == '\\':
			escaped = true
			b.WriteByte(c)
		case c == '"':
			inString = false
			b.WriteByte(c)
		case c == '\n':
			b.WriteString(`\n`)
		case c == '\r':
			b.WriteString(`\r`)
		case c == '\t':
			b.WriteString(`\t`)
		case c < 0x20:
			// Other control characters are dropped.
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// Field patterns tolerate both JSON-ish (`"title": "..."`) and prose
// (`title: "..."`) occurrences.
var (
	titleRe   = regexp.MustCompile(`(?i)"?title"?\s*:\s*"((?:[^"\\]|\\.)*)"`)
	contentRe = regexp.MustCompile(`(?i)"?content"?\s*:\s*"((?:[^"\\]|\\.)*)"`)
	hookRe    = regexp.MustCompile(`(?i)"?hook"?\s*:\s*"((?:[^"\\]|\\.)*)"`)
	ctaRe     = regexp.MustCompile(`(?i)"?call_to_action"?\s*:\s*"((?:[^"\\]|\\.)*)"`)
)

// scrapeFields pulls out the recoverable content fields independently and
// assembles a partial object with empty defaults. Succeeds only when at
// least a title or a content body was found.
func scrapeFields(text string) (map[string]any, bool) {
	find := func(re *regexp.Regexp) string {
		if m := re.FindStringSubmatch(text); m != nil {
			return m[1]
		}
		return ""
	}

	title := find(titleRe)
	content := unescape(find(contentRe))
	if title == "" && content == "" {
		return nil, false
	}

	return map[string]any{
		"title":              title,
		"hook":               find(hookRe),
		"content":            content,
		"call_to_action":     find(ctaRe),
		"meta_description":   "",
		"suggested_hashtags": []string{},
		"seo_keywords":       []string{},
	}, true
}

var unescaper = strings.NewReplacer(`\n`, "\n", `\"`, `"`)

func unescape(s string) string {
	return unescaper.Replace(s)
}
