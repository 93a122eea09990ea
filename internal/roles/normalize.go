package roles

import (
	"slices"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// fold reduces a label to its comparison form: case-folded, diacritics
// stripped, separators collapsed to single spaces.
//
// "Front-End  Développeur" -> "front end developpeur"
func fold(s string) string {
	// Transformers carry state, so each call builds its own chain.
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), cases.Fold(), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = strings.ToLower(s)
	}
	return strings.Join(strings.FieldsFunc(folded, isSeparator), " ")
}

func isSeparator(r rune) bool {
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}

// trailingJobWords are dropped when a label does not match as written, so
// "Backend Engineer" and "backend dev" land on the same alias.
var trailingJobWords = []string{"developer", "developers", "engineer", "engineers", "dev", "devs", "specialist", "lead", "senior", "junior"}

func stripJobWords(folded string) string {
	words := strings.Fields(folded)
	for len(words) > 1 {
		last := words[len(words)-1]
		first := words[0]
		switch {
		case slices.Contains(trailingJobWords, last):
			words = words[:len(words)-1]
		case slices.Contains(trailingJobWords, first):
			words = words[1:]
		default:
			return strings.Join(words, " ")
		}
	}
	return strings.Join(words, " ")
}

// containsPhrase matches on word boundaries so "ci" does not hit "pricing".
func containsPhrase(folded, phrase string) bool {
	if phrase == "" {
		return false
	}
	return strings.Contains(" "+folded+" ", " "+phrase+" ")
}
