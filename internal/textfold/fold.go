// Package textfold normalizes place and lender names for matching.
package textfold

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fold strips diacritics, case-folds and collapses whitespace, so
// "Doña Ana  County" and "dona ana county" compare equal.
func Fold(s string) string {
	// transformers carry state; build one per call
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	out = cases.Fold().String(out)
	return strings.Join(strings.Fields(out), " ")
}

// LikePrefix folds s and escapes LIKE wildcards, returning a prefix pattern.
func LikePrefix(s string) string {
	return escapeLike(Fold(s)) + "%"
}

// LikeContains is LikePrefix for substring matches.
func LikeContains(s string) string {
	return "%" + escapeLike(Fold(s)) + "%"
}

// PrefixTSQuery folds s into a to_tsquery expression that matches rows
// containing a word starting with each of its words, so "naper" finds
// "chicago-naperville-elgin". Punctuation is dropped; "" means nothing to
// search for.
func PrefixTSQuery(s string) string {
	words := strings.FieldsFunc(Fold(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for i, w := range words {
		words[i] = w + ":*"
	}
	return strings.Join(words, " & ")
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
