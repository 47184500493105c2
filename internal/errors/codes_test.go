package errors

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAIError_Error(t *testing.T) {
	err := CollaboratorUnavailable("calendar", fmt.Errorf("dial tcp: refused"))
	assert.Equal(t, "[COLLABORATOR_UNAVAILABLE] calendar unavailable: dial tcp: refused", err.Error())

	assert.Equal(t, "[NOT_FOUND] no such event", NotFound("no such event").Error())
}

func TestIsCode_WrappedChain(t *testing.T) {
	base := TemporalAmbiguity("someday")
	wrapped := fmt.Errorf("resolve: %w", base)

	assert.True(t, IsCode(wrapped, ErrCodeTemporalAmbiguity))
	assert.False(t, IsCode(wrapped, ErrCodeNotFound))
	assert.False(t, IsCode(fmt.Errorf("plain"), ErrCodeNotFound))
	assert.Equal(t, ErrCodeTemporalAmbiguity, GetCodeFromError(wrapped, ErrCodeValidation))
	assert.Equal(t, ErrCodeValidation, GetCodeFromError(fmt.Errorf("plain"), ErrCodeValidation))
}

func TestFromContextErr(t *testing.T) {
	assert.Equal(t, ErrCodeTimeout, FromContextErr(context.DeadlineExceeded).Code)
	assert.Equal(t, ErrCodeContextCanceled, FromContextErr(fmt.Errorf("x: %w", context.Canceled)).Code)
	assert.Nil(t, FromContextErr(fmt.Errorf("other")))
}

func TestWithContext(t *testing.T) {
	err := Validation("duration must be positive").WithContext("duration", -5)
	assert.Equal(t, -5, err.Context["duration"])
	assert.Equal(t, ErrCodeValidation, err.GetCode())
}
