package ruleflow

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// RulePrefix starts every conventional rule name.
const RulePrefix = "rule_"

// RuleName turns a human label into a conventional rule name,
// e.g. "Vérifier l'âge" becomes "rule_verifier_l_age".
func RuleName(label string) string {
	name := Slug(label)
	switch {
	case name == "", name == "rule":
		return RulePrefix + "unnamed"
	case strings.HasPrefix(name, RulePrefix):
		return name
	}
	return RulePrefix + name
}

// Slug folds accents, lowercases, and joins runs of ASCII letters and digits
// with single underscores. It returns "" if nothing survives.
func Slug(label string) string {
	folded, _, err := transform.String(
		transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC),
		label,
	)
	if err != nil {
		folded = label
	}

	var b strings.Builder
	pendingSep := false
	for _, r := range strings.ToLower(folded) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSep = false
			b.WriteRune(r)
			continue
		}
		pendingSep = true
	}
	return b.String()
}
