package normalize

import (
	"regexp"
	"strings"
)

var (
	nonAlphanumeric = regexp.MustCompile(`[^A-Za-z0-9]`)
	multiSpace      = regexp.MustCompile(`\s+`)
)

// Code uppercases a clinical code and strips everything but letters and
// digits, so "k35.80" and "K3580" compare equal.
func Code(s string) string {
	return nonAlphanumeric.ReplaceAllString(strings.ToUpper(strings.TrimSpace(s)), "")
}

// PlanName lowercases a plan id and collapses its whitespace.
func PlanName(s string) string {
	return multiSpace.ReplaceAllString(strings.ToLower(strings.TrimSpace(s)), " ")
}
