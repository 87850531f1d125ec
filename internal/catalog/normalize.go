// Package catalog reconciles scraped credit card offers into the stored offer catalog.
package catalog

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/Veraticus/duecard/internal/model"
	"github.com/agnivade/levenshtein"
)

// Normalize case-folds s and strips everything that is not a letter or a digit.
// Letters from any script are kept, so Chinese card names survive normalization.
func Normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}

// normalizeText collapses runs of whitespace for free-text comparison.
func normalizeText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Similarity returns 1 - editDistance(a, b) / max(len(a), len(b)), measured in runes.
// Two empty strings are identical.
func Similarity(a, b string) float64 {
	longest := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b))
	if longest == 0 {
		return 1
	}
	return 1 - float64(levenshtein.ComputeDistance(a, b))/float64(longest)
}

// Dedupe collapses scraped offers sharing the same normalized name and bank, keeping
// the first occurrence. Offers whose name normalizes to nothing are dropped.
func Dedupe(scraped []model.ScrapedOffer) []model.ScrapedOffer {
	type key struct{ name, bank string }

	seen := make(map[key]struct{}, len(scraped))
	out := make([]model.ScrapedOffer, 0, len(scraped))
	for _, offer := range scraped {
		k := key{name: Normalize(offer.Name), bank: Normalize(offer.Bank)}
		if k.name == "" {
			continue
		}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, offer)
	}
	return out
}
