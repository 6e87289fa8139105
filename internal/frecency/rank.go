package frecency

import (
	"cmp"
	"unicode"
	"unicode/utf8"

	"github.com/sahilm/fuzzy"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Matcher scores text against a search pattern. ok is false when the
// pattern does not match at all.
type Matcher func(text, pattern string) (score int, ok bool)

// FuzzyMatch is the default Matcher. Both sides are folded first so "cafe"
// finds "Café". An empty pattern matches nothing.
func FuzzyMatch(text, pattern string) (int, bool) {
	if pattern == "" {
		return 0, false
	}
	matches := fuzzy.Find(Fold(pattern), []string{Fold(text)})
	if len(matches) == 0 {
		return 0, false
	}
	return matches[0].Score, true
}

// Fold strips combining marks after canonical decomposition.
func Fold(s string) string {
	if isASCII(s) {
		return s
	}
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

type hit struct {
	index int
	key   float64
}

// byKeyDesc orders hits by descending key. NaN keys sort last.
func byKeyDesc(a, b hit) int {
	return cmp.Compare(b.key, a.key)
}
