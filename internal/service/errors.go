// Package service holds the seat reservation rules: the venue catalog,
// team registry, match scheduler, seat pricing and reservation engine.
// Every operation takes the calling Actor and validated input, talks to
// storage only through the interfaces in package repository and reports
// failures with the error types declared here.
package service

import (
	"errors"
	"fmt"
	"strings"
)

// Code identifies the kind of a ValidationError.
type Code string

const (
	CodeRequired            Code = "required"
	CodeInvalid             Code = "invalid"
	CodeDuplicateName       Code = "duplicate_name"
	CodeDuplicateSlug       Code = "duplicate_slug"
	CodeDuplicateSeatCode   Code = "duplicate_seat_code"
	CodeDuplicateEmail      Code = "duplicate_email"
	CodePasswordMismatch    Code = "password_mismatch"
	CodeSameTeam            Code = "same_team"
	CodeDuplicateFixture    Code = "duplicate_fixture"
	CodeSeatNotInStadium    Code = "seat_not_in_stadium"
	CodeSeatAlreadyPriced   Code = "seat_already_priced"
	CodeSeatAlreadyReserved Code = "seat_already_reserved"
	CodeSeatNotPriced       Code = "seat_not_priced"
	CodeSeatNotReserved     Code = "seat_not_reserved"
)

// NonFieldErrors is the field name used for object-level validation
// errors.
const NonFieldErrors = "non_field_errors"

// ValidationError is a recoverable, caller-caused failure scoped to one
// input field.
type ValidationError struct {
	Code    Code
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" || e.Field == NonFieldErrors {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Is matches another ValidationError with the same code.  This lets the
// exported sentinels below be used with errors.Is regardless of the
// field and message of the concrete error.
func (e *ValidationError) Is(target error) bool {
	t, ok := target.(*ValidationError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

func invalid(code Code, field, msg string) *ValidationError {
	return &ValidationError{Code: code, Field: field, Message: msg}
}

// Sentinels for errors.Is.
var (
	ErrDuplicateName       = &ValidationError{Code: CodeDuplicateName}
	ErrDuplicateSlug       = &ValidationError{Code: CodeDuplicateSlug}
	ErrDuplicateSeatCode   = &ValidationError{Code: CodeDuplicateSeatCode}
	ErrDuplicateEmail      = &ValidationError{Code: CodeDuplicateEmail}
	ErrPasswordMismatch    = &ValidationError{Code: CodePasswordMismatch}
	ErrSameTeam            = &ValidationError{Code: CodeSameTeam}
	ErrDuplicateFixture    = &ValidationError{Code: CodeDuplicateFixture}
	ErrSeatNotInStadium    = &ValidationError{Code: CodeSeatNotInStadium}
	ErrSeatAlreadyPriced   = &ValidationError{Code: CodeSeatAlreadyPriced}
	ErrSeatAlreadyReserved = &ValidationError{Code: CodeSeatAlreadyReserved}
	ErrSeatNotPriced       = &ValidationError{Code: CodeSeatNotPriced}
	ErrSeatNotReserved     = &ValidationError{Code: CodeSeatNotReserved}
	ErrRequired            = &ValidationError{Code: CodeRequired}
	ErrInvalid             = &ValidationError{Code: CodeInvalid}
)

// ErrNotFound is matched by every NotFoundError.
var ErrNotFound = errors.New("not found")

// NotFoundError reports that a referenced entity does not exist.
type NotFoundError struct {
	Entity string
	ID     uint64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Entity, e.ID)
}

// Is matches ErrNotFound and any NotFoundError for the same entity
// whose ID is zero, so ErrMatchNotFound works with errors.Is.
func (e *NotFoundError) Is(target error) bool {
	if target == ErrNotFound {
		return true
	}
	t, ok := target.(*NotFoundError)
	return ok && t.Entity == e.Entity && (t.ID == 0 || t.ID == e.ID)
}

// ErrMatchNotFound is returned when a match id does not resolve.
var ErrMatchNotFound = &NotFoundError{Entity: "match"}

// ErrStadiumNotFound is returned when a stadium id does not resolve.
var ErrStadiumNotFound = &NotFoundError{Entity: "stadium"}

var (
	// ErrUnauthenticated means the caller supplied no usable credentials.
	ErrUnauthenticated = errors.New("authentication credentials were not provided")
	// ErrForbidden means the caller is authenticated but lacks the
	// capability the operation needs.
	ErrForbidden = errors.New("you do not have permission to perform this action")
	// ErrBusy means the seats stayed locked by concurrent requests and
	// the operation gave up.  Retrying later may succeed.
	ErrBusy = errors.New("the seats are being changed by another request, try again")
)

// ValidationErrors collects several field errors reported together,
// e.g. every missing field of a request.
type ValidationErrors []*ValidationError

func (v ValidationErrors) Error() string {
	msgs := make([]string, 0, len(v))
	for _, e := range v {
		msgs = append(msgs, e.Error())
	}
	return strings.Join(msgs, "; ")
}

// Is matches when any contained error matches target.
func (v ValidationErrors) Is(target error) bool {
	for _, e := range v {
		if e.Is(target) {
			return true
		}
	}
	return false
}

func (v ValidationErrors) orNil() error {
	if len(v) == 0 {
		return nil
	}
	return v
}

// FieldMessages flattens a ValidationError or ValidationErrors into the
// field -> messages map returned to API clients.  ok is false for any
// other error.
func FieldMessages(err error) (map[string][]string, bool) {
	out := map[string][]string{}
	var many ValidationErrors
	if errors.As(err, &many) {
		for _, e := range many {
			out[fieldOf(e)] = append(out[fieldOf(e)], e.Message)
		}
		return out, true
	}
	var one *ValidationError
	if errors.As(err, &one) {
		out[fieldOf(one)] = []string{one.Message}
		return out, true
	}
	return nil, false
}

func fieldOf(e *ValidationError) string {
	if e.Field == "" {
		return NonFieldErrors
	}
	return e.Field
}
