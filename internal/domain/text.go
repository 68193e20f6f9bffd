package domain

import "strings"

// NormalizeHumanName collapses whitespace runs and trims the ends. User and trip names are
// stored in this form.
func NormalizeHumanName(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// NormalizeEmail is the key form of an email in the users index: trimmed and lower-cased.
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
