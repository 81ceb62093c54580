package kard

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var punctRe = regexp.MustCompile(`[\t !"#$%&'()*\-/<=>?@\[\\\]^_` + "`" + `{|},.:;]+`)

// Slugify lower-cases text, splits it on punctuation and reduces each word
// to ASCII before joining the words with delim.
func Slugify(text, delim string) string {
	var words []string
	for _, w := range punctRe.Split(strings.ToLower(text), -1) {
		if w = asciiFold(w); w != "" {
			words = append(words, w)
		}
	}
	return strings.Join(words, delim)
}

// asciiFold strips combining marks after decomposition and drops whatever
// is still outside ASCII.
func asciiFold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.Map(func(r rune) rune {
		if r > unicode.MaxASCII || unicode.IsSpace(r) {
			return -1
		}
		return r
	}, out)
}
