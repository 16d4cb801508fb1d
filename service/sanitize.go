package service

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/cockroachdb/errors"
	"golang.org/x/text/unicode/norm"
)

var (
	tagPattern        = regexp.MustCompile(`(?s)<[^>]*>`)
	scriptPattern     = regexp.MustCompile(`(?is)<(script|style)[^>]*>.*?</(script|style)>`)
	whitespacePattern = regexp.MustCompile(`\s+`)
	leadingIntPattern = regexp.MustCompile(`^[+-]?\d+`)
)

// StripTags removes markup, dropping script and style bodies entirely.
func StripTags(s string) string {
	s = scriptPattern.ReplaceAllString(s, "")
	return tagPattern.ReplaceAllString(s, "")
}

// SanitizeText prepares user input for searching: invalid UTF-8 is dropped,
// the text is NFC-normalised, tags and control characters are removed, runs of
// whitespace collapse to one space and the ends are trimmed.
func SanitizeText(s string) string {
	if !utf8.ValidString(s) {
		s = strings.ToValidUTF8(s, "")
	}
	s = norm.NFC.String(s)
	s = StripTags(s)
	s = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && !unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
	s = whitespacePattern.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// TrimWords strips tags from text and keeps its first n words. When words were
// dropped, more is appended to the result.
func TrimWords(text string, n int, more string) string {
	words := strings.Fields(StripTags(text))
	if len(words) <= n {
		return strings.Join(words, " ")
	}
	return strings.Join(words[:n], " ") + more
}

// ParsePageSize reads the leading integer of raw. Missing, malformed and
// non-positive values yield fallback; values above limit, including ones too
// large for an int, are capped when limit is positive.
func ParsePageSize(raw string, fallback, limit int) int {
	// Atoi clamps out-of-range values to the int bounds.
	n, err := strconv.Atoi(leadingIntPattern.FindString(strings.TrimSpace(raw)))
	if (err != nil && !errors.Is(err, strconv.ErrRange)) || n <= 0 {
		n = fallback
	}
	if limit > 0 && n > limit {
		n = limit
	}
	return n
}
