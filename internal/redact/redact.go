// Package redact masks PII patterns in free text before it is logged.
//
// The rule table is ordered and order is load-bearing: narrower, more
// identifying patterns run before looser ones so that a card number is
// tagged as a card and not swallowed by the phone pattern. Reordering
// rules is a deliberate, reviewable change.
package redact

import "regexp"

// Rule maps one PII pattern to its fixed placeholder.
type Rule struct {
	Name        string
	Pattern     *regexp.Regexp
	Placeholder string
}

// Rules is the ordered redaction table. Placeholders are digit-free, which
// makes Redact idempotent: a second pass finds nothing left to match.
var Rules = []Rule{
	{
		Name:        "email",
		Pattern:     regexp.MustCompile(`[a-zA-Z0-9_.+-]+@[a-zA-Z0-9-]+\.[a-zA-Z0-9-.]+`),
		Placeholder: "[REDACTED_EMAIL]",
	},
	{
		// National-ID format (#####-#######-#). Runs before the card rule,
		// which would otherwise match the same 13 digits as a card number.
		Name:        "national_id",
		Pattern:     regexp.MustCompile(`\b\d{5}-\d{7}-\d\b`),
		Placeholder: "[REDACTED_NID]",
	},
	{
		// Card-like runs of 13-19 digits, optionally separated by spaces or
		// dashes. Runs before the phone rule so a card is never tagged as a
		// phone number.
		Name:        "credit_card",
		Pattern:     regexp.MustCompile(`\b\d(?:[ -]?\d){12,18}\b`),
		Placeholder: "[REDACTED_CC]",
	},
	{
		Name:        "phone",
		Pattern:     regexp.MustCompile(`\+?\d[\d\- ]{7,}\d`),
		Placeholder: "[REDACTED_PHONE]",
	},
}

// Redact applies the rule table in order. Pure, deterministic, and total:
// it never fails, and redacting already-redacted text is a no-op.
func Redact(text string) string {
	for _, r := range Rules {
		text = r.Pattern.ReplaceAllString(text, r.Placeholder)
	}
	return text
}
