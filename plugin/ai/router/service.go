package router

import (
	"log/slog"
	"strings"
)

// Service classifies chat turns in two layers:
// Layer 1: command prefixes, in table order.
// Layer 2: the confirm/decline vocabulary.
// Anything else is free text for the general answer path.
type Service struct {
	ruleMatcher *RuleMatcher
}

// NewService creates a router over DefaultPrefixes.
func NewService() *Service {
	return &Service{ruleMatcher: NewRuleMatcher(DefaultPrefixes)}
}

// Route classifies input. Confirm and decline words are classified
// whether or not anything is pending; the dispatcher decides what they mean.
func (s *Service) Route(input string) Route {
	if route, ok := s.ruleMatcher.MatchPrefix(input); ok {
		slog.Debug("routed by prefix",
			"input", truncate(input, 50),
			"intent", route.Intent)
		return route
	}

	if intent, ok := s.ruleMatcher.MatchConfirmation(input); ok {
		return Route{Intent: intent, Content: strings.TrimSpace(input)}
	}

	return Route{Intent: IntentGeneral, Content: strings.TrimSpace(input)}
}

// truncate truncates a string to maxLen bytes.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
