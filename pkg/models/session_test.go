package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSession_State(t *testing.T) {
	pending := NewPendingSnippet(Snippet{Text: "hello"}, []CategoryRef{{ID: 1, Name: "Work"}})

	assert.Equal(t, StateIdle, Session{}.State())
	assert.True(t, Session{}.IsIdle())
	assert.Equal(t, StateAwaitingCategoryChoice, Session{Pending: pending}.State())
	assert.Equal(t, StateAwaitingNewCategoryName, Session{AwaitingCategoryName: true}.State())
	assert.Equal(t, StateAwaitingNewCategoryName, Session{AwaitingCategoryName: true, Pending: pending}.State())
}

func TestNewPendingSnippet_Snapshot(t *testing.T) {
	pending := NewPendingSnippet(Snippet{Text: "hello"}, []CategoryRef{{ID: 1, Name: "Work"}, {ID: 7, Name: "ideas"}})

	assert.Equal(t, map[int64]string{1: "Work", 7: "ideas"}, pending.Categories)
	assert.Equal(t, "hello", pending.Text)
}
