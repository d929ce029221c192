package provider

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/Iron-Ham/servloc/internal/audio"
	"github.com/Iron-Ham/servloc/internal/event"
	"github.com/Iron-Ham/servloc/internal/logging"
	"github.com/Iron-Ham/servloc/locator"
)

// DefaultDebounce is used when Options.Debounce is zero.
const DefaultDebounce = 200 * time.Millisecond

// Options configures a Watcher.
type Options struct {
	// Path is the provider file to watch.
	Path string
	// Debounce is how long the file must stay quiet before it is reloaded.
	// Editors often write a file in several steps.
	Debounce time.Duration
	// Drivers resolves driver names. Nil means audio.Drivers.
	Drivers *audio.Registry
	// Logger receives reload diagnostics. Nil discards them.
	Logger *logging.Logger
	// Bus receives DriverSwappedEvent and ProviderErrorEvent. Optional.
	Bus *event.Bus
}

// Watcher keeps a locator's value in step with a provider file.
type Watcher struct {
	loc      *locator.Locator[audio.Subsystem]
	path     string
	debounce time.Duration
	drivers  *audio.Registry
	logger   *logging.Logger
	bus      *event.Bus

	mu      sync.Mutex
	current string // driver most recently installed by this watcher

	ready     chan struct{}
	readyOnce sync.Once
}

// NewWatcher returns a Watcher that re-registers loc from opts.Path.
func NewWatcher(loc *locator.Locator[audio.Subsystem], opts Options) (*Watcher, error) {
	if opts.Path == "" {
		return nil, fmt.Errorf("provider file path is required")
	}
	path, err := filepath.Abs(opts.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve provider file path: %w", err)
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.Drivers == nil {
		opts.Drivers = audio.Drivers
	}
	if opts.Logger == nil {
		opts.Logger = logging.NopLogger()
	}
	return &Watcher{
		loc:      loc,
		path:     path,
		debounce: opts.Debounce,
		drivers:  opts.Drivers,
		logger:   opts.Logger.WithComponent("watcher"),
		bus:      opts.Bus,
		ready:    make(chan struct{}),
	}, nil
}

// Path returns the absolute path of the watched provider file.
func (w *Watcher) Path() string { return w.path }

// Current returns the driver most recently installed by the watcher, or ""
// if it has not installed one yet.
func (w *Watcher) Current() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.current
}

// Ready is closed once the watch is established and the initial load has
// been attempted.
func (w *Watcher) Ready() <-chan struct{} { return w.ready }

// Reload reads the provider file now and registers the driver it names.
// On failure the locator is left untouched.
func (w *Watcher) Reload() error {
	f, err := Load(w.path, w.drivers)
	if err != nil {
		w.logger.Warn("ignoring provider file", "path", w.path, "error", err)
		w.publish(event.NewProviderErrorEvent(w.path, err))
		return err
	}

	// Parse has already checked the name against the registry.
	s, err := w.drivers.New(f.Driver)
	if err != nil {
		return err
	}

	w.mu.Lock()
	previous := w.current
	w.current = f.Driver
	w.mu.Unlock()

	w.loc.Register(s)
	w.logger.Info("provided driver from file", "path", w.path, "driver", f.Driver, "previous", previous)
	w.publish(event.NewDriverSwappedEvent(previous, f.Driver, w.path))
	return nil
}

// Run loads the provider file once, then reloads it after every change until
// ctx is cancelled. A missing or invalid file is not fatal; the watcher keeps
// waiting for a valid one. The directory is watched rather than the file so
// that editors replacing the file by rename are still seen.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer func() { _ = fsw.Close() }()

	if err := fsw.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("failed to watch provider directory: %w", err)
	}

	_ = w.Reload()
	w.readyOnce.Do(func() { close(w.ready) })

	debounceTimer := time.NewTimer(0)
	<-debounceTimer.C // drain initial timer
	defer debounceTimer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			debounceTimer.Reset(w.debounce)

		case <-debounceTimer.C:
			_ = w.Reload()

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("file watcher error", "path", w.path, "error", err)
		}
	}
}

func (w *Watcher) publish(e event.Event) {
	if w.bus != nil {
		w.bus.Publish(e)
	}
}
