// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ner

import (
	"strings"
	"unicode"
)

// token is a tokenized slice of the input with byte offsets.
type token struct {
	text  string
	start int
	end   int
}

// tokenize splits text into alphanumeric runs and single punctuation
// tokens, recording byte offsets. Whitespace is discarded.
func tokenize(text string) []token {
	var toks []token
	i := 0
	for i < len(text) {
		c := rune(text[i])
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case isAlnum(byte(c)):
			j := i + 1
			for j < len(text) && isAlnum(text[j]) {
				j++
			}
			toks = append(toks, token{text[i:j], i, j})
			i = j
		default:
			toks = append(toks, token{text[i : i+1], i, i + 1})
			i++
		}
	}
	return toks
}

func isAlnum(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}

// features extracts the perceptron feature set for position i given the
// previously assigned tag.
func features(toks []token, i int, prevTag string) []string {
	w := strings.ToLower(toks[i].text)
	feats := []string{
		"bias",
		"w=" + w,
		"suf=" + tail(w, 3),
		"pre=" + head(w, 2),
		"shape=" + shape(toks[i].text),
		"prevtag=" + prevTag,
		"prevtag+w=" + prevTag + "+" + w,
	}
	if i > 0 {
		feats = append(feats, "w-1="+strings.ToLower(toks[i-1].text))
	} else {
		feats = append(feats, "w-1=<s>")
	}
	if i+1 < len(toks) {
		feats = append(feats, "w+1="+strings.ToLower(toks[i+1].text))
	} else {
		feats = append(feats, "w+1=</s>")
	}
	return feats
}

func head(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}

func tail(s string, n int) string {
	if len(s) > n {
		return s[len(s)-n:]
	}
	return s
}

// shape compresses the token into a coarse character-class signature:
// "MAP" -> "X", "norepi" -> "x", "70" -> "d", "4.1" -> "d.d".
func shape(s string) string {
	var b strings.Builder
	var last rune
	for _, r := range s {
		var c rune
		switch {
		case unicode.IsDigit(r):
			c = 'd'
		case unicode.IsUpper(r):
			c = 'X'
		case unicode.IsLetter(r):
			c = 'x'
		default:
			c = r
		}
		if c != last {
			b.WriteRune(c)
			last = c
		}
	}
	return b.String()
}
