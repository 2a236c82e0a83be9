package normalize

import "strings"

// DefaultCategory is the fallback when free-text input matches no
// known category. Falling back rather than rejecting is deliberate
// policy: a submission should never fail over a category typo.
const DefaultCategory = "Services"

// Categories is the fixed enumerated set for directory listings.
var Categories = []string{
	"Agriculture",
	"Automotive",
	"Construction",
	"Dining",
	"Health & Wellness",
	"Lodging",
	"Professional Services",
	"Recreation",
	"Retail",
	"Services",
}

var categoryIndex = func() map[string]string {
	m := make(map[string]string, len(Categories))
	for _, c := range Categories {
		m[strings.ToLower(c)] = c
	}
	return m
}()

// Category maps free-text input to the nearest fixed category by
// case-insensitive exact match, falling back to DefaultCategory.
func Category(raw string) string {
	if c, ok := categoryIndex[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return c
	}
	return DefaultCategory
}
