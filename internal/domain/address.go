package domain

import (
	"regexp"
	"sort"
	"strings"
)

// directionals maps every spelling of a compound or cardinal direction to
// its canonical abbreviation. Longest-key-first ordering in dirPattern is
// what makes "SOUTHWEST" collapse to "SW" instead of "SOUTH" firing first
// and leaving a stray "WEST" behind.
var directionals = map[string]string{
	"SOUTHWEST": "SW", "SOUTH WEST": "SW", "S WEST": "SW", "S.W.": "SW", "S.W": "SW",
	"NORTHWEST": "NW", "NORTH WEST": "NW", "N WEST": "NW", "N.W.": "NW", "N.W": "NW",
	"SOUTHEAST": "SE", "SOUTH EAST": "SE", "S EAST": "SE", "S.E.": "SE", "S.E": "SE",
	"NORTHEAST": "NE", "NORTH EAST": "NE", "N EAST": "NE", "N.E.": "NE", "N.E": "NE",
	"SOUTH": "S", "NORTH": "N", "EAST": "E", "WEST": "W",
}

// suffixes maps street-type spellings (with or without a trailing period)
// to the USPS-style abbreviation we standardize on.
var suffixes = map[string]string{
	"STREET": "ST", "STR": "ST", "ST.": "ST",
	"AVENUE": "AVE", "AVE.": "AVE", "AV": "AVE",
	"DRIVE": "DR", "DR.": "DR",
	"BOULEVARD": "BLVD", "BLVD.": "BLVD",
	"PLACE": "PL", "PL.": "PL",
	"COURT": "CT", "CT.": "CT",
	"LANE": "LN", "LN.": "LN",
	"ROAD": "RD", "RD.": "RD",
	"CIRCLE": "CIR", "CIR.": "CIR",
	"TERRACE": "TER", "TER.": "TER",
	"PARKWAY": "PKWY", "PKWY.": "PKWY",
	"WAY": "WAY",
}

var ordinalWords = map[string]string{
	"FIRST": "1ST", "SECOND": "2ND", "THIRD": "3RD", "FOURTH": "4TH",
	"FIFTH": "5TH", "SIXTH": "6TH", "SEVENTH": "7TH", "EIGHTH": "8TH",
	"NINTH": "9TH", "TENTH": "10TH",
}

var (
	// dirPattern's alternation includes both dotted and undotted compound
	// spellings ("S.W." and "S.W"), so a trailing \b always finds a match:
	// when the dotted form's closing "\b" can't land between two non-word
	// runes (the period and whatever follows), regexp falls back to the
	// shorter undotted alternative, which closes on a word rune and leaves
	// the stray period to be swept up later by periodPattern.
	dirPattern = regexp.MustCompile(`(?i)\b(` + alternation(directionals) + `)\b`)
	// singleDirPattern matches a lone directional letter followed by a
	// period ("S." in "456 S. Main"). There's no lookahead in RE2, so
	// instead of asserting what follows, it consumes one optional
	// following alnum rune and replays it in the replacement.
	singleDirPattern = regexp.MustCompile(`(?i)\b([SNEW])\.\s*([A-Z0-9]?)`)
	suffixPattern    = regexp.MustCompile(`(?i)\b(` + alternation(suffixes) + `)\b\.?`)
	unitPattern      = regexp.MustCompile(`(?i)\b(?:UNIT|APT|SUITE|STE|#|BLDG|BUILDING|FLOOR|FL|RM|ROOM)\s*[#.]?\s*\S*`)
	hashTokenPattern = regexp.MustCompile(`#\s*\w+`)
	cityStateZip     = regexp.MustCompile(`(?i),?\s*(?:SEATTLE)?\s*,?\s*(?:WA|WASHINGTON)?\s*,?\s*\d{5}(?:-\d{4})?\s*$`)
	splitOrdinal     = regexp.MustCompile(`\b(\d+)\s+(ST|ND|RD|TH)\b`)
	commaPattern     = regexp.MustCompile(`,`)
	whitespacePattern = regexp.MustCompile(`\s+`)
	periodPattern    = regexp.MustCompile(`\.`)
)

var ordinalPatterns = buildOrdinalPatterns()

func buildOrdinalPatterns() map[string]*regexp.Regexp {
	out := make(map[string]*regexp.Regexp, len(ordinalWords))
	for word := range ordinalWords {
		out[word] = regexp.MustCompile(`\b` + word + `\b`)
	}
	return out
}

// alternation builds a regex alternation of a map's keys, longest first, so
// the regex engine's first-match semantics prefer the most specific key.
func alternation(m map[string]string) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, regexp.QuoteMeta(k))
	}
	sort.Slice(keys, func(i, j int) bool { return len(keys[i]) > len(keys[j]) })
	return strings.Join(keys, "|")
}

// NormalizeAddress reduces a raw address string to a canonical form used as
// the cross-source join key. It is deterministic, stateless, and idempotent:
// NormalizeAddress(NormalizeAddress(x)) == NormalizeAddress(x) for any
// non-nil result. Returns nil on empty input or an empty result.
//
// Passes run in a fixed order:
//  1. Flatten newlines, uppercase, strip a trailing city/state/zip tail.
//  2. Remove unit designators and stray "#token" markers, drop commas.
//  3. Collapse directionals — compound spellings ("SOUTH WEST", "S.W.")
//     before single-letter ones, so dotted forms match before periods
//     are stripped.
//  4. Rewrite street-type suffixes, tolerating a trailing period.
//  5. Strip remaining periods.
//  6. Rewrite ordinal words and rejoin ordinals a stray space split apart
//     ("1 ST" -> "1ST").
//  7. Collapse whitespace.
func NormalizeAddress(raw *string) *string {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil
	}

	addr := strings.TrimSpace(*raw)
	addr = strings.ReplaceAll(addr, "\n", " ")
	addr = strings.ReplaceAll(addr, "\r", " ")

	addr = strings.ToUpper(addr)
	addr = cityStateZip.ReplaceAllString(addr, "")
	addr = unitPattern.ReplaceAllString(addr, "")
	addr = hashTokenPattern.ReplaceAllString(addr, " ")
	addr = commaPattern.ReplaceAllString(addr, "")
	addr = whitespacePattern.ReplaceAllString(addr, " ")
	addr = strings.TrimSpace(addr)

	addr = dirPattern.ReplaceAllStringFunc(addr, func(m string) string {
		if v, ok := directionals[strings.ToUpper(m)]; ok {
			return v
		}
		return strings.ToUpper(m)
	})
	addr = singleDirPattern.ReplaceAllString(addr, "$1 $2")

	addr = suffixPattern.ReplaceAllStringFunc(addr, func(m string) string {
		if v, ok := suffixes[strings.ToUpper(m)]; ok {
			return v
		}
		return strings.ToUpper(m)
	})

	addr = periodPattern.ReplaceAllString(addr, "")

	for word, repl := range ordinalWords {
		addr = ordinalPatterns[word].ReplaceAllString(addr, repl)
	}
	addr = splitOrdinal.ReplaceAllString(addr, "$1$2")

	addr = whitespacePattern.ReplaceAllString(addr, " ")
	addr = strings.TrimSpace(addr)

	if addr == "" {
		return nil
	}
	return &addr
}
