package similarity

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf16"
)

// maxTokens is how many sorted unique tokens feed the hash
const maxTokens = 10

// nonWord matches anything that is neither an ASCII word character nor
// whitespace. RE2's \s is ASCII only, so the remaining separators are listed
// explicitly.
var nonWord = regexp.MustCompile(`[^\w\s\v\p{Z}\x{85}\x{FEFF}]`)

func isSeparator(r rune) bool {
	return unicode.IsSpace(r) || r == '\uFEFF'
}

// Fingerprint computes the coarse similarity hash of a suggestion.
// Texts sharing the same first ten sorted unique lower-cased tokens always
// collide, whatever their word order or repetition.
func Fingerprint(problem, solution string) string {
	text := strings.ToLower(strings.TrimSpace(problem)) + " " + strings.ToLower(strings.TrimSpace(solution))
	text = nonWord.ReplaceAllString(text, "")

	tokens := uniqueSorted(strings.FieldsFunc(text, isSeparator))
	if len(tokens) > maxTokens {
		tokens = tokens[:maxTokens]
	}

	return rollingHash(strings.Join(tokens, ""))
}

func uniqueSorted(tokens []string) []string {
	seen := make(map[string]bool, len(tokens))
	unique := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if seen[tok] {
			continue
		}
		seen[tok] = true
		unique = append(unique, tok)
	}
	sort.Strings(unique)
	return unique
}

// rollingHash is h = h*31 + c over UTF-16 code units, wrapped to int32,
// rendered as the lower-case hex of its absolute value.
func rollingHash(s string) string {
	var h int32
	for _, c := range utf16.Encode([]rune(s)) {
		h = h*31 + int32(c)
	}

	abs := int64(h)
	if abs < 0 {
		abs = -abs
	}
	return strconv.FormatInt(abs, 16)
}
