package core

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by a service wraps exactly one of these, so
// adapters can classify failures with errors.Is.
var (
	ErrUnauthenticated   = errors.New("unauthenticated")
	ErrForbidden         = errors.New("forbidden")
	ErrNotFound          = errors.New("not found")
	ErrValidation        = errors.New("validation failed")
	ErrConflict          = errors.New("conflict")
	ErrLoanLimitExceeded = errors.New("loan limit exceeded")
	ErrUnavailable       = errors.New("book is not available")
	ErrAlreadyReturned   = errors.New("book is already returned")
	ErrIntegrity         = errors.New("integrity violation")
)

// Entity names used in NotFoundError.
const (
	EntityUser   = "User"
	EntityAuthor = "Author"
	EntityBook   = "Book"
	EntityIssue  = "Issue"
)

// NotFoundError reports a missing record of a given entity kind.
type NotFoundError struct {
	Entity string
}

func (e *NotFoundError) Error() string { return e.Entity + " not found" }

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// NotFound returns a NotFoundError for entity.
func NotFound(entity string) error { return &NotFoundError{Entity: entity} }

// kindError attaches a human-readable message to a sentinel kind.
type kindError struct {
	kind error
	msg  string
}

func (e *kindError) Error() string { return e.msg }

func (e *kindError) Unwrap() error { return e.kind }

// KindErrorf returns an error of the given kind with a formatted message.
func KindErrorf(kind error, format string, args ...any) error {
	return &kindError{kind: kind, msg: fmt.Sprintf(format, args...)}
}

func validationf(format string, args ...any) error {
	return KindErrorf(ErrValidation, format, args...)
}

func forbiddenf(format string, args ...any) error {
	return KindErrorf(ErrForbidden, format, args...)
}

func unauthenticatedf(format string, args ...any) error {
	return KindErrorf(ErrUnauthenticated, format, args...)
}

// PublicMessage returns the client-facing message of the classified error
// wrapped in err, without the operation context added on the way up.
// It returns "" when err carries no kind.
func PublicMessage(err error) string {
	var nf *NotFoundError
	if errors.As(err, &nf) {
		return nf.Error()
	}
	var ke *kindError
	if errors.As(err, &ke) {
		return ke.msg
	}
	for _, kind := range kinds {
		if errors.Is(err, kind) {
			return kind.Error()
		}
	}
	return ""
}

var kinds = []error{
	ErrUnauthenticated, ErrForbidden, ErrNotFound, ErrValidation, ErrConflict,
	ErrLoanLimitExceeded, ErrUnavailable, ErrAlreadyReturned, ErrIntegrity,
}
