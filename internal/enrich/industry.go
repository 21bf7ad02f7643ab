package enrich

import (
	_ "embed"
	"os"
	"regexp"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

//go:embed taxonomy.yaml
var defaultTaxonomy []byte

// taxonomyFile is the on-disk shape of the industry keyword taxonomy.
type taxonomyFile struct {
	Industries map[string]struct {
		Keywords []string `yaml:"keywords"`
	} `yaml:"industries"`
}

// IndustryClassifier infers an industry label from free text by counting
// stemmed keyword hits against a taxonomy. At least two distinct hits are
// required before a label is asserted.
type IndustryClassifier struct {
	// industry -> set of stemmed keywords
	keywords map[string]map[string]struct{}
}

// NewIndustryClassifier loads the taxonomy from path, falling back to the
// embedded default when path is empty.
func NewIndustryClassifier(path string) (*IndustryClassifier, error) {
	raw := defaultTaxonomy
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, eris.Wrapf(err, "enrich: read taxonomy %s", path)
		}
		raw = b
	}

	var tf taxonomyFile
	if err := yaml.Unmarshal(raw, &tf); err != nil {
		return nil, eris.Wrap(err, "enrich: parse taxonomy")
	}
	if len(tf.Industries) == 0 {
		return nil, eris.New("enrich: taxonomy has no industries")
	}

	c := &IndustryClassifier{keywords: make(map[string]map[string]struct{}, len(tf.Industries))}
	for industry, entry := range tf.Industries {
		set := make(map[string]struct{}, len(entry.Keywords))
		for _, kw := range entry.Keywords {
			set[stem(strings.ToLower(kw))] = struct{}{}
		}
		c.keywords[industry] = set
	}
	return c, nil
}

// stopWords are tokens too generic to signal any industry.
var stopWords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "with": {}, "our": {}, "your": {},
	"are": {}, "was": {}, "has": {}, "have": {}, "this": {}, "that": {},
	"from": {}, "all": {}, "its": {}, "you": {}, "can": {}, "will": {},
	"not": {}, "but": {}, "their": {}, "been": {}, "more": {}, "than": {},
	"into": {}, "out": {}, "about": {}, "over": {}, "they": {}, "them": {},
	"company": {}, "business": {}, "service": {}, "services": {},
	"best": {}, "quality": {}, "local": {}, "years": {}, "team": {},
}

var tokenRe = regexp.MustCompile(`[a-z]+`)

// Infer returns the best-matching industry for text, or "" when no industry
// reaches two distinct keyword hits. Ties break alphabetically so repeated
// runs stay deterministic.
func (c *IndustryClassifier) Infer(text string) string {
	if text == "" {
		return ""
	}

	hits := make(map[string]map[string]struct{})
	for _, token := range tokenRe.FindAllString(strings.ToLower(text), -1) {
		if len(token) < 3 {
			continue
		}
		if _, stop := stopWords[token]; stop {
			continue
		}
		stemmed := stem(token)
		for industry, kws := range c.keywords {
			if _, ok := kws[stemmed]; ok {
				if hits[industry] == nil {
					hits[industry] = make(map[string]struct{})
				}
				hits[industry][stemmed] = struct{}{}
			}
		}
	}

	best := ""
	bestCount := 0
	for industry, matched := range hits {
		n := len(matched)
		if n > bestCount || (n == bestCount && (best == "" || industry < best)) {
			best = industry
			bestCount = n
		}
	}
	if bestCount < 2 {
		return ""
	}
	return best
}

// stem strips common English suffixes until none apply, so "builders",
// "buildings", and "builder" collapse to one token. Deliberately crude; the
// taxonomy keywords go through the same stemmer, so both sides agree.
func stem(word string) string {
	for {
		trimmed := word
		for _, suffix := range []string{"ing", "ers", "ies", "es", "er", "ed", "s"} {
			if strings.HasSuffix(word, suffix) && len(word)-len(suffix) >= 3 {
				trimmed = word[:len(word)-len(suffix)]
				break
			}
		}
		if trimmed == word {
			return word
		}
		word = trimmed
	}
}
