// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package segment splits raw note text into ordered sentence spans with
// byte offsets into the original text. Splitting is a pure function of
// the input and never fails.
package segment

import (
	"regexp"
	"strings"

	"github.com/pdiddy/mednote-cleaner/pkg/types"
)

// bulletRe matches ICU shorthand bullets at line starts. They are
// rewritten to sentence-terminating punctuation for boundary detection
// only; offsets are always recovered against the original text.
var bulletRe = regexp.MustCompile(`\n[-*][ \t]*`)

// Split segments text into trimmed sentence spans. Empty (post-trim)
// sentences are dropped and Idx renumbered densely over the survivors.
// Offsets satisfy text[StartChar:EndChar] == span text wherever the
// trimmed sentence is recoverable verbatim; where bullet normalization
// rewrote it, the span falls back to the cursor position (best effort,
// never an error).
func Split(text string) []types.SentenceSpan {
	normalized := bulletRe.ReplaceAllString(text, ". ")

	spans := make([]types.SentenceSpan, 0, 8)
	cursor := 0
	for _, raw := range boundaries(normalized) {
		trimmed := strings.TrimSpace(raw)
		if trimmed == "" {
			continue
		}

		start := cursor
		if at := strings.Index(text[cursor:], trimmed); at >= 0 {
			start = cursor + at
		}
		end := start + len(trimmed)
		if end > len(text) {
			end = len(text)
		}
		if start >= end {
			continue
		}
		cursor = end

		spans = append(spans, types.SentenceSpan{
			Idx:       len(spans),
			Text:      trimmed,
			StartChar: start,
			EndChar:   end,
		})
	}
	return spans
}

// boundaries walks the normalized text and cuts it into candidate
// sentences. A sentence ends after a run of '.', '!' or '?' followed by
// whitespace or end of input, and at every newline. Interior punctuation
// like decimals ("3.5") does not split.
func boundaries(s string) []string {
	var out []string
	start, i := 0, 0
	for i < len(s) {
		switch c := s[i]; {
		case c == '\n':
			out = append(out, s[start:i])
			i++
			start = i
		case c == '.' || c == '!' || c == '?':
			j := i + 1
			for j < len(s) && (s[j] == '.' || s[j] == '!' || s[j] == '?') {
				j++
			}
			if j >= len(s) || s[j] == ' ' || s[j] == '\t' || s[j] == '\n' {
				out = append(out, s[start:j])
				start = j
			}
			i = j
		default:
			i++
		}
	}
	if start < len(s) {
		out = append(out, s[start:])
	}
	return out
}
