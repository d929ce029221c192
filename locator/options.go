package locator

import (
	"sync/atomic"
	"time"
)

// Logger is the diagnostic sink used by a locator. Both *slog.Logger and the
// repository's logging.Logger satisfy it.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Event types emitted to an Observer.
const (
	EventProvided     = "service.provided"
	EventRejected     = "service.rejected"
	EventAccessFailed = "service.access_failed"
	EventPoisoned     = "service.poisoned"
)

// Event describes a registration or a failed access. It satisfies the
// EventType/Timestamp contract of the event bus so it can be published as is.
type Event struct {
	Type     string
	Service  string
	Replaced bool  // set on EventProvided when a previous value was dropped
	Err      error // set on failures
	At       time.Time
}

// EventType returns the event type identifier.
func (e Event) EventType() string { return e.Type }

// Timestamp returns when the event occurred.
func (e Event) Timestamp() time.Time { return e.At }

// Observer receives locator events. It is called after the lock is released.
type Observer func(Event)

// Option configures a Locator created with New.
type Option func(*options)

type options struct {
	name     string
	logger   Logger
	observer Observer
}

// WithName overrides the service name used in errors and diagnostics.
func WithName(name string) Option {
	return func(o *options) { o.name = name }
}

// WithLogger sets the locator's own diagnostic logger. A nil logger falls
// back to the process-wide one installed with SetLogger.
func WithLogger(l Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithObserver registers a callback for locator events.
func WithObserver(fn Observer) Option {
	return func(o *options) { o.observer = fn }
}

type loggerBox struct{ l Logger }

var defaultLogger atomic.Pointer[loggerBox]

// SetLogger installs the fallback logger for every locator that was not given
// one with WithLogger. Passing nil disables fallback logging.
func SetLogger(l Logger) {
	if l == nil {
		defaultLogger.Store(nil)
		return
	}
	defaultLogger.Store(&loggerBox{l: l})
}

func fallbackLogger() Logger {
	if b := defaultLogger.Load(); b != nil {
		return b.l
	}
	return nil
}
