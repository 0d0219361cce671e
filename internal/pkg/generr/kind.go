package generr

import (
	stderrors "errors"
	"fmt"
	"net/http"

	"github.com/pkg/errors"
)

// Kind classifies a domain error so the HTTP layer can pick a status.
type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindNotFound
	KindInvalidState
	KindPersistence
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not found"
	case KindInvalidState:
		return "invalid state"
	case KindPersistence:
		return "persistence"
	default:
		return "unknown"
	}
}

// Error carries a Kind next to the wrapped cause.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

func Validation(format string, args ...interface{}) error {
	return errors.WithStack(&Error{Kind: KindValidation, Msg: fmt.Sprintf(format, args...)})
}

func NotFound(format string, args ...interface{}) error {
	return errors.WithStack(&Error{Kind: KindNotFound, Msg: fmt.Sprintf(format, args...)})
}

func InvalidState(format string, args ...interface{}) error {
	return errors.WithStack(&Error{Kind: KindInvalidState, Msg: fmt.Sprintf(format, args...)})
}

// Persistence wraps a storage failure. A nil err yields nil.
func Persistence(err error, msg string) error {
	if err == nil {
		return nil
	}
	return errors.WithStack(&Error{Kind: KindPersistence, Msg: msg, Err: err})
}

// KindOf walks the wrap chain and returns the first Kind found.
func KindOf(err error) Kind {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

func Is(err error, k Kind) bool {
	return err != nil && KindOf(err) == k
}

// Response maps err to an HTTP status and a response body.
func Response(err error) (int, *mErr) {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest, &mErr{ParseParam.Code, message(err)}
	case KindNotFound:
		return http.StatusNotFound, &mErr{PeriodNotFound.Code, message(err)}
	case KindInvalidState:
		return http.StatusConflict, &mErr{PeriodState.Code, message(err)}
	case KindPersistence:
		return http.StatusInternalServerError, UpdateDB
	default:
		return http.StatusInternalServerError, ServerError
	}
}

func message(err error) string {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Msg
	}
	return err.Error()
}
