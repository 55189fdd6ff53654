package application

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// normalizeText trims s and brings it to Unicode NFC so that names typed on
// different devices compare equal.
func normalizeText(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

func normalizeOptionalString(value *string) *string {
	if value == nil {
		return nil
	}
	normalized := normalizeText(*value)
	if normalized == "" {
		return nil
	}
	return &normalized
}

// normalizeList normalizes every entry and drops the blank ones.
func normalizeList(values []string) []string {
	var out []string
	for _, v := range values {
		if n := normalizeText(v); n != "" {
			out = append(out, n)
		}
	}
	return out
}

var (
	slugPattern   = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
	slugSeparator = regexp.MustCompile(`[^a-z0-9]+`)
)

// slugify derives a lower-kebab slug from a display name.
func slugify(name string) string {
	decomposed := norm.NFD.String(strings.ToLower(name))
	var b strings.Builder
	for _, r := range decomposed {
		// Drop combining marks left by the decomposition.
		if r >= 0x0300 && r <= 0x036f {
			continue
		}
		b.WriteRune(r)
	}
	return strings.Trim(slugSeparator.ReplaceAllString(b.String(), "-"), "-")
}
