package handlers

import (
	"regexp"
	"strings"
)

// candidatePhoneRe matches Egyptian mobile number candidates: an optional
// +20/0020 international prefix followed by the national digits, allowing a
// single space or hyphen between digit groups. Boundary digits are checked
// separately because RE2 has no lookarounds.
var candidatePhoneRe = regexp.MustCompile(`(?:\+20[ -]?1[0125]|0020[ -]?1[0125]|01[0125])(?:[ -]?[0-9]){8}`)

var validPrefixes = []string{"010", "011", "012", "015"}

// ExtractPhones returns every valid 11-digit Egyptian mobile number found in
// text, normalized and de-duplicated, in first-seen order. Matches embedded
// in longer digit runs are rejected: the pattern must anchor on the full
// number, so a 12-digit sequence never yields an 11-digit sub-match.
func ExtractPhones(text string) []string {
	var phones []string
	seen := make(map[string]bool)

	for _, loc := range candidatePhoneRe.FindAllStringIndex(text, -1) {
		if digitAdjacent(text, loc[0], loc[1]) {
			continue
		}
		phone, ok := NormalizePhone(text[loc[0]:loc[1]])
		if !ok || seen[phone] {
			continue
		}
		seen[phone] = true
		phones = append(phones, phone)
	}
	return phones
}

// NormalizePhone strips formatting from a phone candidate and validates it.
// International +20/0020 forms are converted to the 11-digit national form.
// Returns the normalized number and whether it is valid.
func NormalizePhone(raw string) (string, bool) {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()

	// 0020XXXXXXXXXX or 20XXXXXXXXXX -> 0XXXXXXXXXX
	if strings.HasPrefix(digits, "0020") && len(digits) == 14 {
		digits = "0" + digits[4:]
	} else if strings.HasPrefix(digits, "20") && len(digits) == 12 {
		digits = "0" + digits[2:]
	}

	return digits, ValidPhone(digits)
}

// ValidPhone reports whether digits is exactly 11 digits long and starts
// with one of the Egyptian mobile prefixes 010/011/012/015.
func ValidPhone(digits string) bool {
	if len(digits) != 11 {
		return false
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return false
		}
	}
	for _, p := range validPrefixes {
		if strings.HasPrefix(digits, p) {
			return true
		}
	}
	return false
}

// digitAdjacent reports whether the match at [start,end) touches a digit on
// either side, meaning it is a fragment of a longer number.
func digitAdjacent(text string, start, end int) bool {
	if start > 0 {
		if c := text[start-1]; c >= '0' && c <= '9' {
			return true
		}
	}
	if end < len(text) {
		if c := text[end]; c >= '0' && c <= '9' {
			return true
		}
	}
	return false
}
