// Package result holds the envelope every mutating action returns and the
// redirect signal that actions must pass through untouched.
package result

import (
	"errors"

	"smallbiznis-backoffice/pkg/errutil"
)

type Result[T any] struct {
	Success bool             `json:"success"`
	Data    T                `json:"data,omitempty"`
	Message string           `json:"message,omitempty"`
	Errors  []errutil.Detail `json:"errors,omitempty"`
}

func OK[T any](data T, message string) Result[T] {
	return Result[T]{Success: true, Data: data, Message: message}
}

func Fail[T any](message string) Result[T] {
	return Result[T]{Success: false, Message: message}
}

// Invalid reports field-level validation errors.
func Invalid[T any](details []errutil.Detail) Result[T] {
	return Result[T]{Success: false, Message: "Invalid input", Errors: details}
}

// Redirect is a navigation signal raised below the action layer (an expired
// session, for example). Actions return it as their error unmodified.
type Redirect struct {
	Location string
}

func (r Redirect) Error() string {
	return "redirect to " + r.Location
}

// AsRedirect reports whether err carries a Redirect.
func AsRedirect(err error) (Redirect, bool) {
	var r Redirect
	if errors.As(err, &r) {
		return r, true
	}
	return Redirect{}, false
}

// From turns an error raised while preparing an action into the action's
// return pair. Redirects pass through untouched; BaseErrors keep their message.
func From[T any](err error) (Result[T], error) {
	if _, ok := AsRedirect(err); ok {
		return Result[T]{}, err
	}
	if base, ok := errutil.As(err); ok {
		return Result[T]{Success: false, Message: base.Message, Errors: base.Details}, nil
	}
	return Fail[T]("Something went wrong. Please try again."), nil
}
