// Package errors содержит доменные ошибки бота с кодом и сообщением для пользователя.
//
// Ненайденные сущности ядро возвращает как bool, поэтому кодов здесь два:
//
//	chatID, err := bot.ParseChannelID(arg)
//	if errors.Is(err, apperrors.ErrValidation) {
//	    reply(apperrors.UserMessage(err, "Invalid chat id."))
//	}
package errors

import (
	"errors"
	"fmt"
)

// Code - машиночитаемый код ошибки.
type Code string

const (
	CodeValidation  Code = "VALIDATION"
	CodeUnavailable Code = "UNAVAILABLE"
)

// Error - доменная ошибка; Message можно показывать пользователю.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Is сравнивает только коды.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// Эталоны для errors.Is
var (
	ErrValidation  = &Error{Code: CodeValidation, Message: "validation failed"}
	ErrUnavailable = &Error{Code: CodeUnavailable, Message: "unavailable"}
)

func Validation(msg string) *Error {
	return &Error{Code: CodeValidation, Message: msg}
}

// Unavailable оборачивает сбой внешней стороны (Telegram, архивный канал).
func Unavailable(msg string, cause error) *Error {
	return &Error{Code: CodeUnavailable, Message: msg, cause: cause}
}

// UserMessage возвращает текст доменной ошибки или fallback для любой другой.
func UserMessage(err error, fallback string) string {
	var domainErr *Error
	if errors.As(err, &domainErr) {
		return domainErr.Message
	}
	return fallback
}
