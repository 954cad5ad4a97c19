// Package resolve holds the pure name resolution logic: surface form
// normalization and similarity scoring between entity names. It has no
// database dependencies, so resolution behaviour can be tested in isolation.
package resolve

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// articles are stripped from the front of a name before title casing.
var articles = map[string]bool{
	"the": true,
	"a":   true,
	"an":  true,
}

// Normalize canonicalizes an entity surface form:
// trailing possessives are dropped ("Harry's" -> "Harry"), a leading
// article is dropped ("The Dark Forest" -> "Dark Forest"), whitespace
// is collapsed and the result is title cased.
// Normalize is idempotent, so already canonical names pass through unchanged.
func Normalize(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}

	name = stripPossessive(name)
	name = stripArticle(name)

	fields := strings.Fields(name)
	if len(fields) == 0 {
		return ""
	}

	return cases.Title(language.English).String(strings.Join(fields, " "))
}

// stripPossessive removes a trailing 's or ’s suffix
func stripPossessive(name string) string {
	lower := strings.ToLower(name)
	for _, suffix := range []string{"'s", "’s"} {
		if strings.HasSuffix(lower, suffix) {
			return strings.TrimSpace(name[:len(name)-len(suffix)])
		}
	}
	return name
}

// stripArticle removes a leading article unless the name is nothing but the article
func stripArticle(name string) string {
	fields := strings.Fields(name)
	if len(fields) < 2 {
		return name
	}
	if articles[strings.ToLower(fields[0])] {
		return strings.Join(fields[1:], " ")
	}
	return name
}
