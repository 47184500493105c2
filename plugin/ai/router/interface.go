// Package router classifies chat turns into commands.
package router

// Intent is the command a chat turn resolves to.
type Intent string

const (
	IntentAdd               Intent = "add"
	IntentRemove            Intent = "remove"
	IntentList              Intent = "list"
	IntentHelp              Intent = "help"
	IntentCheckAvailability Intent = "check_availability"
	IntentSuggestTime       Intent = "suggest_time"
	IntentConfirm           Intent = "confirm"
	IntentDecline           Intent = "decline"
	// IntentGeneral is free text answered by the completion service.
	IntentGeneral Intent = "general"
)

// Route is the classification of one chat turn.
type Route struct {
	Intent Intent `json:"intent"`
	// Prefix is the matched command prefix, empty for confirmations and free text.
	Prefix string `json:"prefix,omitempty"`
	// Content is the text after the prefix, trimmed.
	Content string `json:"content"`
}

// RouterService classifies chat turns.
type RouterService interface {
	Route(input string) Route
}

// Ensure Service implements RouterService
var _ RouterService = (*Service)(nil)
