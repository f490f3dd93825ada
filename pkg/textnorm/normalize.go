// pkg/textnorm/normalize.go
package textnorm

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// nullTokens are the spellings that mean "no value" in the raw extracts.
// Comparison is case-insensitive after trimming. The pandas-era exports
// serialize missing cells as "nan"/"nat", and the corrupted extracts also
// carry literal "none"/"null" placeholders.
var nullTokens = map[string]struct{}{
	"":     {},
	"none": {},
	"null": {},
	"n/a":  {},
	"na":   {},
	"nan":  {},
	"nat":  {},
}

// stripMarks removes combining diacritical marks after canonical
// decomposition, so "são paulo" becomes "sao paulo"
var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

var titleCaser = cases.Title(language.Und)

// IsNullToken reports whether the trimmed, lowercased string is one of
// the enumerated no-value spellings
func IsNullToken(s string) bool {
	_, ok := nullTokens[strings.ToLower(strings.TrimSpace(s))]
	return ok
}

// Normalize repairs a single raw text value. It returns the normalized
// string and true, or "" and false when the value is missing. The steps,
// in order: trim, null-token check, mojibake re-encoding repair, diacritic
// stripping with non-ASCII residue dropped, whitespace collapsing, and a
// final emptiness/null-token re-check (mojibake repair can surface a null
// spelling that was hidden by the corruption).
//
// Normalize is pure and total: it never fails, and it is a fixed point on
// its own output.
func Normalize(raw string) (string, bool) {
	s := strings.TrimSpace(raw)
	if IsNullToken(s) {
		return "", false
	}

	s = RepairEncoding(s)
	s = stripDiacritics(s)
	s = collapseWhitespace(s)

	if IsNullToken(s) {
		return "", false
	}
	return s, true
}

// NormalizeLower normalizes and lowercases
func NormalizeLower(raw string) (string, bool) {
	s, ok := Normalize(raw)
	if !ok {
		return "", false
	}
	return strings.ToLower(s), true
}

// NormalizeUpper normalizes and uppercases
func NormalizeUpper(raw string) (string, bool) {
	s, ok := Normalize(raw)
	if !ok {
		return "", false
	}
	return strings.ToUpper(s), true
}

// TitleCase title-cases each word ("sao paulo" -> "Sao Paulo")
func TitleCase(s string) string {
	return titleCaser.String(s)
}

// RepairEncoding reinterprets a latin1-as-UTF-8 mis-decoding: each rune of
// the corrupted string was originally one byte of a multi-byte UTF-8
// sequence. Runes that map to no latin1 byte are discarded. The repair is
// only accepted when the recovered bytes form valid UTF-8; otherwise the
// input is returned unchanged and the diacritic pass drops the residue.
func RepairEncoding(s string) string {
	if isASCII(s) {
		return s
	}

	buf := make([]byte, 0, len(s))
	for _, r := range s {
		if b, ok := charmap.ISO8859_1.EncodeRune(r); ok {
			buf = append(buf, b)
		}
	}

	if len(buf) == 0 || !utf8.Valid(buf) {
		return s
	}

	repaired := string(buf)
	if repaired == s {
		return s
	}
	return repaired
}

// stripDiacritics removes combining marks and drops any remaining
// non-ASCII runes
func stripDiacritics(s string) string {
	out, _, err := transform.String(stripMarks, s)
	if err != nil {
		out = s
	}

	var sb strings.Builder
	sb.Grow(len(out))
	for _, r := range out {
		if r < utf8.RuneSelf {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// collapseWhitespace reduces internal whitespace runs to single spaces
func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}
