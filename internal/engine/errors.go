package engine

import (
	"errors"
	"fmt"

	"feeline/internal/repo"
)

// Kind classifies engine errors for callers that map them to transport codes.
type Kind int

const (
	KindInternal Kind = iota
	KindInvalidArgument
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindInvalidArgument:
		return "invalid_argument"
	case KindNotFound:
		return "not_found"
	default:
		return "internal"
	}
}

type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Msg != "" && e.Err != nil:
		return e.Msg + ": " + e.Err.Error()
	case e.Msg != "":
		return e.Msg
	case e.Err != nil:
		return e.Err.Error()
	}
	return e.Kind.String()
}

func (e *Error) Unwrap() error { return e.Err }

func InvalidArgument(format string, args ...any) error {
	return &Error{Kind: KindInvalidArgument, Msg: fmt.Sprintf(format, args...)}
}

func NotFound(entity, id string) error {
	return &Error{Kind: KindNotFound, Msg: fmt.Sprintf("%s %s not found", entity, id), Err: repo.ErrNotFound}
}

func Internal(err error, msg string) error {
	return &Error{Kind: KindInternal, Msg: msg, Err: err}
}

// KindOf reports the kind of err. Unclassified errors are internal, except
// repo.ErrNotFound which maps to KindNotFound.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	if errors.Is(err, repo.ErrNotFound) {
		return KindNotFound
	}
	return KindInternal
}

// lookup converts a repository read error for entity id into an engine error.
func lookup(err error, entity, id string) error {
	if errors.Is(err, repo.ErrNotFound) {
		return NotFound(entity, id)
	}
	return Internal(err, "load "+entity)
}
