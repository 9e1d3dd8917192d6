package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_IsMatchesByCode(t *testing.T) {
	err := Validation("chat id must be an integer")

	assert.ErrorIs(t, err, ErrValidation)
	assert.NotErrorIs(t, err, ErrUnavailable)

	wrapped := fmt.Errorf("set channel: %w", err)
	assert.ErrorIs(t, wrapped, ErrValidation)
}

func TestError_UnwrapKeepsCause(t *testing.T) {
	cause := errors.New("chat not found")
	err := Unavailable("could not access that chat", cause)

	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, "could not access that chat: chat not found", err.Error())
}

func TestUserMessage(t *testing.T) {
	assert.Equal(t, "name cannot be empty", UserMessage(Validation("name cannot be empty"), "oops"))
	assert.Equal(t, "oops", UserMessage(errors.New("disk full"), "oops"))
	assert.Equal(t, "no access", UserMessage(fmt.Errorf("ctx: %w", Unavailable("no access", errors.New("403"))), "oops"))
}
