// Package slug turns free text into storefront handles.
package slug

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var nonHandle = regexp.MustCompile(`[^a-z0-9]+`)

// Letters that do not decompose into a base letter plus a mark.
var folds = strings.NewReplacer(
	"ı", "i", "ß", "ss", "æ", "ae", "ø", "o", "œ", "oe", "ł", "l", "đ", "d",
)

// Handle lowercases name, folds accented letters to ASCII and joins the
// remaining alphanumeric runs with single hyphens.
//
//	"Red Mug"         -> "red-mug"
//	"Crème Brûlée Set" -> "creme-brulee-set"
//	"  --Gift--  "    -> "gift"
func Handle(name string) string {
	s := folds.Replace(strings.ToLower(strings.TrimSpace(name)))
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if folded, _, err := transform.String(t, s); err == nil {
		s = folded
	}
	return strings.Trim(nonHandle.ReplaceAllString(s, "-"), "-")
}

// Words is Handle with spaces instead of hyphens, for keyword matching.
func Words(text string) string {
	return strings.ReplaceAll(Handle(text), "-", " ")
}
