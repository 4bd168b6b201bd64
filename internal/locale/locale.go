// Package locale derives language preferences for Accept-Language headers and
// language request parameters.
package locale

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/text/language"
)

// maxLanguages caps the number of entries in an Accept-Language header.
const maxLanguages = 6

// FromEnvironment returns the preferred languages from LC_ALL, LC_MESSAGES
// and LANG, in that order, falling back to English.
func FromEnvironment() []string {
	var langs []string
	for _, name := range []string{"LC_ALL", "LC_MESSAGES", "LANG"} {
		if tag, ok := parsePOSIX(os.Getenv(name)); ok {
			langs = append(langs, tag)
		}
	}
	langs = normalize(langs)
	if len(langs) == 0 {
		return []string{"en"}
	}
	return langs
}

// parsePOSIX converts a POSIX locale such as "pt_BR.UTF-8@euro" to a BCP 47
// tag.
func parsePOSIX(value string) (string, bool) {
	value = strings.TrimSpace(value)
	if i := strings.IndexAny(value, ".@"); i >= 0 {
		value = value[:i]
	}
	if value == "" || value == "C" || value == "POSIX" {
		return "", false
	}
	tag, err := language.Parse(strings.ReplaceAll(value, "_", "-"))
	if err != nil {
		return "", false
	}
	return tag.String(), true
}

// normalize parses, canonicalizes and de-duplicates language tags, dropping
// invalid ones.
func normalize(langs []string) []string {
	seen := make(map[string]struct{}, len(langs))
	out := make([]string, 0, len(langs))
	for _, l := range langs {
		tag, err := language.Parse(strings.TrimSpace(l))
		if err != nil || tag == language.Und {
			continue
		}
		s := tag.String()
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

// AcceptLanguage renders langs as a weighted Accept-Language value, e.g.
// "pt-BR, en;q=0.9". It returns "" when no valid tag is given.
func AcceptLanguage(langs []string) string {
	tags := normalize(langs)
	if len(tags) > maxLanguages {
		tags = tags[:maxLanguages]
	}
	parts := make([]string, 0, len(tags))
	for i, tag := range tags {
		if i == 0 {
			parts = append(parts, tag)
			continue
		}
		q := 1 - float64(i)*0.1
		parts = append(parts, fmt.Sprintf("%s;q=%.1f", tag, q))
	}
	return strings.Join(parts, ", ")
}

// Preferred returns the most preferred valid language, or "" if none.
func Preferred(langs []string) string {
	tags := normalize(langs)
	if len(tags) == 0 {
		return ""
	}
	return tags[0]
}
