package books

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// foldText strips combining marks and case-folds, so "Márquez" matches
// "marquez". Search runs over the folded forms of title, author and
// description.
func foldText(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return cases.Fold().String(out)
}

func matchesQuery(b Book, foldedQuery string) bool {
	if foldedQuery == "" {
		return true
	}
	return strings.Contains(foldText(b.Title), foldedQuery) ||
		strings.Contains(foldText(b.AuthorName), foldedQuery) ||
		strings.Contains(foldText(b.Description), foldedQuery)
}
