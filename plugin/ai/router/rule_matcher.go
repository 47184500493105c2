package router

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// PrefixRule maps a command prefix to an intent.
type PrefixRule struct {
	Prefix string
	Intent Intent
}

// DefaultPrefixes is the command table in match order. The first match wins.
var DefaultPrefixes = []PrefixRule{
	{Prefix: "@add", Intent: IntentAdd},
	{Prefix: "@remove", Intent: IntentRemove},
	{Prefix: "@list", Intent: IntentList},
	{Prefix: "@help", Intent: IntentHelp},
	{Prefix: "@check", Intent: IntentCheckAvailability},
	{Prefix: "@when", Intent: IntentCheckAvailability},
	{Prefix: "@suggest", Intent: IntentSuggestTime},
}

var (
	confirmWords = []string{"yes", "y", "yeah", "yep", "sure", "ok", "okay", "confirm", "add it", "yes, add it", "please do"}
	declineWords = []string{"no", "n", "nope", "cancel", "never mind", "don't"}
)

// RuleMatcher matches command prefixes and the confirmation vocabulary.
type RuleMatcher struct {
	prefixes []PrefixRule
	confirm  map[string]struct{}
	decline  map[string]struct{}
}

// NewRuleMatcher creates a matcher over the given prefix table.
func NewRuleMatcher(prefixes []PrefixRule) *RuleMatcher {
	m := &RuleMatcher{
		prefixes: prefixes,
		confirm:  make(map[string]struct{}, len(confirmWords)),
		decline:  make(map[string]struct{}, len(declineWords)),
	}
	for _, w := range confirmWords {
		m.confirm[w] = struct{}{}
	}
	for _, w := range declineWords {
		m.decline[w] = struct{}{}
	}
	return m
}

// MatchPrefix returns the first rule whose prefix starts input, ignoring case.
// The prefix must be followed by the end of input or a non-word rune, so
// "@addison" is not "@add".
func (m *RuleMatcher) MatchPrefix(input string) (Route, bool) {
	trimmed := strings.TrimSpace(input)
	for _, rule := range m.prefixes {
		if len(trimmed) < len(rule.Prefix) || !strings.EqualFold(trimmed[:len(rule.Prefix)], rule.Prefix) {
			continue
		}
		rest := trimmed[len(rule.Prefix):]
		if r, _ := utf8.DecodeRuneInString(rest); rest != "" && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			continue
		}
		return Route{Intent: rule.Intent, Prefix: rule.Prefix, Content: strings.TrimSpace(rest)}, true
	}
	return Route{}, false
}

// MatchConfirmation classifies input as a confirm or decline response.
func (m *RuleMatcher) MatchConfirmation(input string) (Intent, bool) {
	w := normalizeReply(input)
	if _, ok := m.confirm[w]; ok {
		return IntentConfirm, true
	}
	if _, ok := m.decline[w]; ok {
		return IntentDecline, true
	}
	return "", false
}

// normalizeReply lowercases, collapses whitespace and drops trailing punctuation.
func normalizeReply(s string) string {
	s = strings.Join(strings.Fields(strings.ToLower(s)), " ")
	return strings.TrimRightFunc(s, func(r rune) bool {
		return unicode.IsPunct(r) && r != '\''
	})
}
