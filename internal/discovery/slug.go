package discovery

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// legalSuffixes are trailing corporate designators stripped before slugging.
var legalSuffixes = []string{
	"incorporated", "corporation", "company", "limited",
	"inc", "llc", "ltd", "corp", "co", "plc", "llp", "lp", "pllc", "gmbh",
}

var nonAlnumRe = regexp.MustCompile(`[^a-z0-9]+`)

// foldDiacritics decomposes accented characters and drops the combining
// marks, so "Café Niño" becomes "Cafe Nino".
func foldDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// Slug normalizes a company name into a bare domain-candidate token:
// lowercase, diacritics folded, legal suffixes and punctuation removed.
func Slug(name string) string {
	s := strings.ToLower(foldDiacritics(name))
	s = nonAlnumRe.ReplaceAllString(s, " ")

	words := strings.Fields(s)
	for len(words) > 0 {
		last := words[len(words)-1]
		stripped := false
		for _, suffix := range legalSuffixes {
			if last == suffix {
				words = words[:len(words)-1]
				stripped = true
				break
			}
		}
		if !stripped {
			break
		}
	}

	return strings.Join(words, "")
}

// SlugWords is like Slug but keeps word boundaries, for hyphenated domain
// candidates.
func SlugWords(name string) []string {
	s := strings.ToLower(foldDiacritics(name))
	s = nonAlnumRe.ReplaceAllString(s, " ")

	words := strings.Fields(s)
	for len(words) > 0 {
		last := words[len(words)-1]
		stripped := false
		for _, suffix := range legalSuffixes {
			if last == suffix {
				words = words[:len(words)-1]
				stripped = true
				break
			}
		}
		if !stripped {
			break
		}
	}
	return words
}
