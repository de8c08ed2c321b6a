
package textutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Normalize folds s to NFKC, lower-cases it and replaces every rune that is
// not a letter or digit with a single space.
func Normalize(s string) string {
	s = norm.NFKC.String(s)
	var b strings.Builder
	b.Grow(len(s))
	space := true
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			b.WriteRune(unicode.ToLower(r))
			space = false
			continue
		}
		if !space {
			b.WriteByte(' ')
			space = true
		}
	}
	return strings.TrimSpace(b.String())
}

// Tokenize splits normalized text into words.
func Tokenize(s string) []string {
	return strings.Fields(Normalize(s))
}

// NGrams returns every run of n consecutive tokens joined by a space.
func NGrams(tokens []string, n int) []string {
	if n <= 0 || len(tokens) < n {
		return nil
	}
	out := make([]string, 0, len(tokens)-n+1)
	for i := 0; i+n <= len(tokens); i++ {
		out = append(out, strings.Join(tokens[i:i+n], " "))
	}
	return out
}

// BagOfWords tokenizes texts into a set, dropping stop words and tokens
// shorter than minLen runes.
func BagOfWords(stop StopWords, minLen int, texts ...string) Set[string] {
	out := Set[string]{}
	for _, t := range texts {
		for _, w := range Tokenize(t) {
			if len([]rune(w)) < minLen || stop.Contains(w) {
				continue
			}
			out.Add(w)
		}
	}
	return out
}
