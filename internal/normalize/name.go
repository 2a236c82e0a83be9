// Package normalize converts free-form business input into canonical
// forms suitable for comparison and storage.
package normalize

import (
	"regexp"
	"strings"
)

// suffixAbbreviations maps spelled-out legal suffixes to their
// standard abbreviated display forms. Matching is case-insensitive
// and anchored to the end of the name.
var suffixAbbreviations = []struct {
	long  string
	short string
}{
	{"incorporated", "Inc"},
	{"inc.", "Inc"},
	{"corporation", "Corp"},
	{"corp.", "Corp"},
	{"limited liability company", "LLC"},
	{"l.l.c.", "LLC"},
	{"l.l.c", "LLC"},
	{"limited", "Ltd"},
	{"ltd.", "Ltd"},
	{"company", "Co"},
	{"co.", "Co"},
	{"l.p.", "LP"},
	{"l.l.p.", "LLP"},
}

// legalSuffixTokens are dropped from the comparison form entirely, so
// "Joe's Diner" and "JOES DINER INC" key identically.
var legalSuffixTokens = map[string]bool{
	"inc": true, "incorporated": true,
	"corp": true, "corporation": true,
	"llc": true, "ltd": true, "limited": true,
	"co": true, "company": true,
	"lp": true, "llp": true,
}

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	namePunctRe  = regexp.MustCompile(`[^a-z0-9 ]`)
)

// Name returns the display form of a business name: whitespace
// trimmed, internal runs collapsed to one space, and a trailing legal
// suffix standardized to its abbreviation. Original casing is
// preserved everywhere except the standardized suffix.
func Name(raw string) (string, error) {
	name := collapseSpaces(raw)
	if name == "" {
		return "", &ValidationError{Field: "name", Reason: "must not be empty"}
	}

	// Suffixes are matched against the original string's tail so the
	// splice below never lands inside a multi-byte rune.
	for _, s := range suffixAbbreviations {
		n := len(name) - len(s.long)
		if n <= 0 || name[n-1] != ' ' {
			continue
		}
		if strings.EqualFold(name[n:], s.long) {
			name = name[:n] + s.short
			break
		}
	}

	return name, nil
}

// NameKey returns the comparison-only form of a business name:
// lowercase, "&" expanded to "and", punctuation stripped, whitespace
// collapsed, and a trailing legal suffix dropped. "Joe's Diner",
// "Joe's Diner Inc", and "JOES DINER INCORPORATED" all key the same.
func NameKey(raw string) string {
	name, err := Name(raw)
	if err != nil {
		return ""
	}

	name = strings.ToLower(name)
	name = strings.ReplaceAll(name, "&", " and ")
	name = namePunctRe.ReplaceAllString(name, "")
	name = collapseSpaces(name)

	if idx := strings.LastIndex(name, " "); idx > 0 && legalSuffixTokens[name[idx+1:]] {
		name = name[:idx]
	}
	return name
}

func collapseSpaces(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}
