// Package slug builds URL path segments from product names.
package slug

import (
	"regexp"
	"strings"
)

var (
	nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

	folder = strings.NewReplacer(
		"à", "a", "á", "a", "â", "a", "ã", "a", "ä", "a", "å", "a", "æ", "ae",
		"ç", "c", "č", "c",
		"è", "e", "é", "e", "ê", "e", "ë", "e",
		"ì", "i", "í", "i", "î", "i", "ï", "i", "ı", "i",
		"ñ", "n",
		"ò", "o", "ó", "o", "ô", "o", "õ", "o", "ö", "o", "ø", "o", "œ", "oe",
		"ğ", "g", "š", "s", "ş", "s", "ß", "ss",
		"ù", "u", "ú", "u", "û", "u", "ü", "u",
		"ý", "y", "ÿ", "y", "ž", "z",
		"&", " and ", "'", "",
	)
)

// Generate lowercases name, folds common Latin accents to ASCII and joins
// the remaining alphanumeric runs with single hyphens.
//
//	"Crème Brûlée Cat Treats" -> "creme-brulee-cat-treats"
//	"Dogs & Cats: 2-Pack!"    -> "dogs-and-cats-2-pack"
//	"Mike's   Bones"          -> "mikes-bones"
func Generate(name string) string {
	s := folder.Replace(strings.ToLower(strings.TrimSpace(name)))
	return strings.Trim(nonAlnum.ReplaceAllString(s, "-"), "-")
}
