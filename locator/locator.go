package locator

import (
	"reflect"
	"sync"
	"time"

	"github.com/Iron-Ham/servloc/internal/errors"
)

// Locator is a single-occupancy slot for an implementation of T, where T is
// normally an interface type. The zero value is an empty slot ready for use.
// A Locator must not be copied after first use.
type Locator[T any] struct {
	mu       sync.RWMutex
	value    T
	occupied bool
	poisoned bool // latched by a panicking exclusive holder, cleared by registration

	opts options
}

// New creates an empty Locator configured with opts.
func New[T any](opts ...Option) *Locator[T] {
	l := &Locator[T]{}
	for _, opt := range opts {
		opt(&l.opts)
	}
	return l
}

// Name returns the service name used in errors and diagnostics. It defaults to
// the type name of T.
func (l *Locator[T]) Name() string {
	if l.opts.name != "" {
		return l.opts.name
	}
	return reflect.TypeFor[T]().String()
}

// Register installs service, dropping any previously provided value. A
// poisoned slot is recovered. Guards already handed out keep the value they
// were created with; only later accesses see service.
//
// A nil interface value provides nothing and is ignored. A typed nil, such
// as a nil *MidiPlayer stored in T, is a non-nil interface value and is
// installed like any other; calls through it are the caller's concern.
func (l *Locator[T]) Register(service T) {
	if isNil(service) {
		l.warn("ignoring nil service registration", "service", l.Name())
		return
	}

	l.mu.Lock()
	replaced := l.occupied
	recovered := l.poisoned
	l.value = service
	l.occupied = true
	l.poisoned = false
	l.mu.Unlock()

	l.info("provided service", "service", l.Name(), "replaced", replaced, "recovered", recovered)
	l.emit(Event{Type: EventProvided, Service: l.Name(), Replaced: replaced})
}

// TryRegister installs service only if the slot is empty. It returns an
// AlreadyProvided error and keeps the existing value otherwise.
//
// A poisoned slot is treated as empty: its value is discarded before the
// check, so TryRegister succeeds on it.
//
// A nil interface value is rejected with a validation error matching
// errors.ErrInvalidInput, whatever the state of the slot, and the slot is
// left untouched. Typed nils are installed as with Register.
func (l *Locator[T]) TryRegister(service T) error {
	if isNil(service) {
		l.warn("rejecting nil service registration", "service", l.Name())
		return errors.NewValidationError("nil service").WithField("service").WithValue(l.Name())
	}

	l.mu.Lock()
	if l.poisoned {
		var zero T
		l.value = zero
		l.occupied = false
		l.poisoned = false
	}
	if l.occupied {
		l.mu.Unlock()
		err := newError(AlreadyProvided, l.Name())
		l.logError("service already provided", "service", l.Name())
		l.emit(Event{Type: EventRejected, Service: l.Name(), Err: err})
		return err
	}
	l.value = service
	l.occupied = true
	l.mu.Unlock()

	l.info("provided service", "service", l.Name(), "replaced", false)
	l.emit(Event{Type: EventProvided, Service: l.Name()})
	return nil
}

// Access acquires shared access to the service. It blocks while a writer
// holds the slot. The poison flag is reported, not cleared.
func (l *Locator[T]) Access() (*ReadGuard[T], error) {
	l.mu.RLock()
	if l.poisoned {
		l.mu.RUnlock()
		return nil, l.fail(Poisoned)
	}
	if !l.occupied {
		l.mu.RUnlock()
		return nil, l.fail(NotProvided)
	}
	return &ReadGuard[T]{l: l, service: l.value}, nil
}

// AccessMut acquires exclusive access to the service. It blocks until every
// other holder has released. The poison flag is reported, not cleared.
//
// A panic poisons the slot only if the guard's Release is deferred directly
// (defer g.Release()); wrapping it in another deferred func hides the panic
// from Release. Code that must poison reliably should use Write.
func (l *Locator[T]) AccessMut() (*WriteGuard[T], error) {
	l.mu.Lock()
	if l.poisoned {
		l.mu.Unlock()
		return nil, l.fail(Poisoned)
	}
	if !l.occupied {
		l.mu.Unlock()
		return nil, l.fail(NotProvided)
	}
	return &WriteGuard[T]{l: l, service: l.value}, nil
}

// Read calls fn with shared access to the service and releases it when fn
// returns or panics.
func (l *Locator[T]) Read(fn func(T) error) error {
	g, err := l.Access()
	if err != nil {
		return err
	}
	defer g.Release()
	return fn(g.Service())
}

// Write calls fn with exclusive access to the service. If fn panics the slot
// is poisoned, access is released, and the panic continues.
func (l *Locator[T]) Write(fn func(T) error) error {
	g, err := l.AccessMut()
	if err != nil {
		return err
	}
	completed := false
	defer func() {
		if !completed {
			g.poison()
		}
		g.Release()
	}()
	err = fn(g.Service())
	completed = true
	return err
}

// fail builds the error for a failed access, logs it and notifies the
// observer. The lock must not be held.
func (l *Locator[T]) fail(kind Kind) error {
	err := newError(kind, l.Name())
	l.logError("service access failed", "service", l.Name(), "reason", kind.String())
	l.emit(Event{Type: EventAccessFailed, Service: l.Name(), Err: err})
	return err
}

func (l *Locator[T]) logger() Logger {
	if l.opts.logger != nil {
		return l.opts.logger
	}
	return fallbackLogger()
}

func (l *Locator[T]) info(msg string, args ...any) {
	if lg := l.logger(); lg != nil {
		lg.Info(msg, args...)
	}
}

func (l *Locator[T]) warn(msg string, args ...any) {
	if lg := l.logger(); lg != nil {
		lg.Warn(msg, args...)
	}
}

func (l *Locator[T]) logError(msg string, args ...any) {
	if lg := l.logger(); lg != nil {
		lg.Error(msg, args...)
	}
}

func (l *Locator[T]) emit(ev Event) {
	if l.opts.observer == nil {
		return
	}
	ev.At = time.Now()
	l.opts.observer(ev)
}

// isNil reports whether v is a nil interface value.
func isNil[T any](v T) bool {
	return any(v) == nil
}
