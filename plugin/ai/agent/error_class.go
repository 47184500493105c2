package agent

import (
	"fmt"

	aierrors "github.com/hrygo/rundown/internal/errors"
)

// ErrorClass is the category of a turn failure, deciding how the reply
// phrases it.
type ErrorClass int

const (
	// ErrorClassTransient is a collaborator outage or timeout; retrying may succeed.
	ErrorClassTransient ErrorClass = iota

	// ErrorClassCanceled is a request abandoned by the caller.
	ErrorClassCanceled

	// ErrorClassPermanent is bad input or a missing event; retrying the same text will not help.
	ErrorClassPermanent
)

func (c ErrorClass) String() string {
	switch c {
	case ErrorClassTransient:
		return "transient"
	case ErrorClassCanceled:
		return "canceled"
	default:
		return "permanent"
	}
}

// ClassifyError maps an error to its class by taxonomy code. Unclassified
// errors are treated as transient.
func ClassifyError(err error) ErrorClass {
	switch aierrors.GetCodeFromError(err, aierrors.ErrCodeCollaboratorUnavailable) {
	case aierrors.ErrCodeCollaboratorUnavailable, aierrors.ErrCodeTimeout:
		return ErrorClassTransient
	case aierrors.ErrCodeContextCanceled:
		return ErrorClassCanceled
	default:
		return ErrorClassPermanent
	}
}

// failureReply explains a failed action in the user's terms. action reads
// after "trying to", e.g. "list your events".
func failureReply(action string, err error) string {
	switch ClassifyError(err) {
	case ErrorClassTransient:
		return fmt.Sprintf("I couldn't reach your calendar while trying to %s. Please try again in a moment.", action)
	case ErrorClassCanceled:
		return fmt.Sprintf("The request was canceled before I could %s.", action)
	default:
		return fmt.Sprintf("I encountered an error trying to %s. Please check the details and try again.", action)
	}
}
