// Package timeout defines centralized timeout constants for collaborator calls.
package timeout

import "time"

const (
	// CalendarTimeout bounds a single calendar store call.
	CalendarTimeout = 5 * time.Second

	// MailTimeout bounds a single mail store call.
	MailTimeout = 5 * time.Second

	// CompletionTimeout bounds a single text-completion request, retries included.
	CompletionTimeout = 10 * time.Second

	// IngestRunTimeout bounds one full mailbox ingestion pass.
	IngestRunTimeout = 2 * time.Minute

	// PendingSuggestionTTL is how long an unconfirmed slot suggestion stays valid.
	PendingSuggestionTTL = 30 * time.Minute

	// SessionTTL is how long idle session state is retained.
	SessionTTL = 24 * time.Hour

	// MaxTruncateLength is the maximum length for truncating strings in logs.
	MaxTruncateLength = 200
)
