package geo

import "strings"

// regionalIndicatorA is REGIONAL INDICATOR SYMBOL LETTER A.
const regionalIndicatorA = 0x1F1E6

// Flag returns the flag pictograph for a two-letter country code, built
// from two regional indicator symbols. Case is ignored. It returns false
// for anything that is not exactly two ASCII letters.
func Flag(code string) (string, bool) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if !IsCountryCode(code) {
		return "", false
	}
	return string([]rune{
		rune(regionalIndicatorA + int(code[0]-'A')),
		rune(regionalIndicatorA + int(code[1]-'A')),
	}), true
}

// IsCountryCode reports whether code is two upper-case ASCII letters.
func IsCountryCode(code string) bool {
	return len(code) == 2 &&
		code[0] >= 'A' && code[0] <= 'Z' &&
		code[1] >= 'A' && code[1] <= 'Z'
}

// normalizeCode upper-cases a backend answer and maps the values backends
// use for "no data" to the empty string.
func normalizeCode(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if !IsCountryCode(code) {
		return ""
	}
	return code
}
