package locator

import (
	"fmt"
	"io/fs"

	"github.com/Iron-Ham/servloc/internal/errors"
)

// Kind identifies one of the ways a locator operation can fail.
type Kind int

const (
	// NotProvided means the slot was empty when it was accessed.
	NotProvided Kind = iota + 1
	// AlreadyProvided means TryRegister found the slot occupied.
	AlreadyProvided
	// Poisoned means a previous exclusive holder panicked.
	Poisoned
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case NotProvided:
		return "not_provided"
	case AlreadyProvided:
		return "already_provided"
	case Poisoned:
		return "poisoned"
	default:
		return "unknown"
	}
}

// Sentinels for errors.Is. They match any *Error of the same Kind.
var (
	ErrNotProvided     = &Error{Kind: NotProvided}
	ErrAlreadyProvided = &Error{Kind: AlreadyProvided}
	ErrPoisoned        = &Error{Kind: Poisoned}
)

// Error is returned by locator operations.
type Error struct {
	Kind    Kind
	Service string // capability type name, empty for the sentinels
}

func newError(kind Kind, service string) *Error {
	return &Error{Kind: kind, Service: service}
}

// Error returns the human-readable description.
func (e *Error) Error() string {
	subject := "service"
	if e.Service != "" {
		subject = fmt.Sprintf("service <%s>", e.Service)
	}
	switch e.Kind {
	case NotProvided:
		return subject + " is not provided yet"
	case AlreadyProvided:
		return subject + " is already provided"
	case Poisoned:
		return subject + " is poisoned: a caller panicked while holding it mutably"
	default:
		return subject + ": unknown locator error"
	}
}

// Is matches errors of the same Kind, and the coarse fs classification:
// NotProvided is fs.ErrNotExist and AlreadyProvided is fs.ErrExist.
func (e *Error) Is(target error) bool {
	switch target {
	case fs.ErrNotExist:
		return e.Kind == NotProvided
	case fs.ErrExist:
		return e.Kind == AlreadyProvided
	}
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// External converts the error into the generic error classes used by hosting
// code: not-found, already-exists, or a generic operation failure. The
// returned error wraps e.
func (e *Error) External() error {
	name := e.Service
	if name == "" {
		name = "unknown"
	}
	switch e.Kind {
	case NotProvided:
		return errors.NewNotFoundError("service", name).WithCause(e).WithRetryable(true)
	case AlreadyProvided:
		return errors.NewAlreadyExistsError("service", name).WithCause(e)
	default:
		return errors.NewOperationError("access service "+name, e)
	}
}
