package normalize

import (
	"regexp"
	"strings"
)

// streetAbbreviations maps spelled-out street suffixes and unit
// designators to USPS-style abbreviations. Keys are lowercase without
// trailing punctuation; values map to themselves on a second pass so
// Address stays idempotent.
var streetAbbreviations = map[string]string{
	"street":    "St",
	"st":        "St",
	"avenue":    "Ave",
	"ave":       "Ave",
	"boulevard": "Blvd",
	"blvd":      "Blvd",
	"drive":     "Dr",
	"dr":        "Dr",
	"lane":      "Ln",
	"ln":        "Ln",
	"road":      "Rd",
	"rd":        "Rd",
	"court":     "Ct",
	"ct":        "Ct",
	"place":     "Pl",
	"pl":        "Pl",
	"highway":   "Hwy",
	"hwy":       "Hwy",
	"suite":     "Ste",
	"ste":       "Ste",
	"apartment": "Apt",
	"apt":       "Apt",
}

// directionAbbreviations maps directional words to single/double letter
// forms. Applied to whole tokens only, so "Northport" is untouched.
var directionAbbreviations = map[string]string{
	"north":     "N",
	"south":     "S",
	"east":      "E",
	"west":      "W",
	"northeast": "NE",
	"northwest": "NW",
	"southeast": "SE",
	"southwest": "SW",
}

var (
	addrPunctRe = regexp.MustCompile(`[^a-z0-9 ]`)
	zipRe       = regexp.MustCompile(`\b(\d{5})(?:-\d{4})?\s*$`)
)

// Address returns the canonical single-line form of an address:
// whitespace trimmed and collapsed, street suffixes and directionals
// abbreviated. State and ZIP are left untouched. Idempotent.
func Address(raw string) string {
	addr := collapseSpaces(raw)
	if addr == "" {
		return ""
	}

	tokens := strings.Split(addr, " ")
	for i, tok := range tokens {
		word, trail := splitTrailing(tok)
		key := strings.ToLower(strings.TrimSuffix(word, "."))

		if abbr, ok := streetAbbreviations[key]; ok {
			tokens[i] = abbr + trail
			continue
		}
		if abbr, ok := directionAbbreviations[key]; ok {
			tokens[i] = abbr + trail
		}
	}

	return strings.Join(tokens, " ")
}

// AddressKey returns the comparison-only form of an address: the
// canonical form lowercased with punctuation stripped.
func AddressKey(raw string) string {
	addr := strings.ToLower(Address(raw))
	addr = addrPunctRe.ReplaceAllString(addr, "")
	return collapseSpaces(addr)
}

// Zip extracts the trailing 5-digit ZIP from an address, dropping any
// +4 extension. Empty when the address carries no ZIP.
func Zip(address string) string {
	m := zipRe.FindStringSubmatch(strings.TrimSpace(address))
	if m == nil {
		return ""
	}
	return m[1]
}

// splitTrailing separates a token from its trailing comma, if any, so
// abbreviation replacement preserves punctuation ("Street," -> "St,").
func splitTrailing(tok string) (word, trail string) {
	if strings.HasSuffix(tok, ",") {
		return tok[:len(tok)-1], ","
	}
	return tok, ""
}
