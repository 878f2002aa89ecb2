package apperrors

import (
	"errors"
	"strings"
)

type Kind string

const (
	KindValidation Kind = "validation"
	KindTimeout    Kind = "timeout"
	KindText       Kind = "text"
	KindNetwork    Kind = "network"
	KindServer     Kind = "server"
	KindParse      Kind = "parse"
	KindAuth       Kind = "auth"
	KindRateLimit  Kind = "rate_limit"
	KindBadRequest Kind = "bad_request"
)

type Error struct {
	Kind Kind
	// SafeMessage is intended for user-facing output and logs.
	SafeMessage string
	// Cause keeps the original internal error for troubleshooting.
	Cause error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if msg := strings.TrimSpace(e.SafeMessage); msg != "" {
		return msg
	}
	if e.Cause != nil {
		return e.Cause.Error()
	}
	return "unknown error"
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func defaultSafeMessage(kind Kind) string {
	switch kind {
	case KindValidation:
		return "Invalid configuration."
	case KindTimeout:
		return "Operation timed out."
	case KindText:
		return "Original text could not be retrieved."
	case KindNetwork:
		return "Translation request failed due to a network error."
	case KindServer:
		return "Translation server error."
	case KindParse:
		return "Translation response could not be parsed."
	case KindAuth:
		return "Authentication failed. Please verify your API key."
	case KindRateLimit:
		return "Rate limit exceeded. Please try again later."
	case KindBadRequest:
		return "Request rejected by translation server."
	default:
		return "Request failed."
	}
}

func New(kind Kind, safeMessage string, cause error) error {
	msg := strings.TrimSpace(safeMessage)
	if msg == "" {
		msg = defaultSafeMessage(kind)
	}
	return &Error{
		Kind:        kind,
		SafeMessage: msg,
		Cause:       cause,
	}
}

func Validation(msg string) error {
	return New(KindValidation, msg, nil)
}

func Timeout(msg string, cause error) error {
	return New(KindTimeout, msg, cause)
}

func Network(msg string, cause error) error {
	return New(KindNetwork, msg, cause)
}

func Parse(msg string, cause error) error {
	return New(KindParse, msg, cause)
}

func KindOf(err error) (Kind, bool) {
	var e *Error
	if !errors.As(err, &e) {
		return "", false
	}
	return e.Kind, true
}

// Is reports whether err carries the given kind anywhere in its chain.
func Is(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}

func PublicMessage(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Error()
	}
	return err.Error()
}

