package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Article and organisational prefix tokens stripped from the ends of a
// ship name. Honorific tokens (SAN, SANTA, SAO) are part of the ship's
// identity and are deliberately absent from this set.
var articleTokens = map[string]bool{
	"de":  true,
	"het": true,
	"den": true,
	"der": true,
	"a":   true,
	"o":   true,
	"la":  true,
	"el":  true,
	"los": true,
	"las": true,
	"le":  true,
	"les": true,
	"hms": true,
	"voc": true,
	"ss":  true,
	"uss": true,
	"css": true,
	"rms": true,
	"s":   true,
	"t":   true,
}

// Key canonicalizes a raw ship name into a comparable key. The function
// is total, deterministic and idempotent: every input maps to a defined
// key, the empty string included, and re-normalizing a key returns it
// unchanged. It never fails.
//
// Pipeline: fold combining diacritics to their ASCII base letters,
// uppercase, collapse whitespace, drop every rune outside A-Z 0-9 and
// space, then strip leading and trailing article tokens while more than
// one token remains, so a single-token name such as "De" survives.
func Key(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}

	s := strings.ToUpper(foldDiacritics(raw))
	s = strings.Join(strings.Fields(s), " ")

	b := strings.Builder{}
	b.Grow(len(s))
	for _, r := range s {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == ' ' {
			b.WriteRune(r)
		}
	}

	tokens := strings.Fields(b.String())
	for len(tokens) > 1 && isArticle(tokens[0]) {
		tokens = tokens[1:]
	}
	for len(tokens) > 1 && isArticle(tokens[len(tokens)-1]) {
		tokens = tokens[:len(tokens)-1]
	}

	return strings.Join(tokens, " ")
}

// Person canonicalizes a person's name the same way Key does, minus
// the article stripping: name particles (van, de, 't) are part of the
// name and must survive.
func Person(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}

	s := strings.ToUpper(foldDiacritics(raw))
	s = strings.Join(strings.Fields(s), " ")

	b := strings.Builder{}
	b.Grow(len(s))
	for _, r := range s {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == ' ' {
			b.WriteRune(r)
		}
	}

	return strings.Join(strings.Fields(b.String()), " ")
}

func isArticle(token string) bool {
	return articleTokens[strings.ToLower(token)]
}

// foldDiacritics rewrites accented Latin letters to their unaccented
// base forms (São -> Sao, Göteborg -> Goteborg) so transliteration
// variants normalize to the same key. Non-Latin runes are left for the
// character filter to drop.
func foldDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return folded
}
