// Package audio is the example capability served through the locator: an
// audio subsystem whose concrete driver can be swapped while the program runs.
package audio

import (
	"sort"
	"sync"
	"sync/atomic"

	"github.com/Iron-Ham/servloc/internal/errors"
	"github.com/Iron-Ham/servloc/locator"
)

// Subsystem plays sounds. Implementations are safe for concurrent use, so a
// shared guard may call Play as well as an exclusive one.
type Subsystem interface {
	Name() string
	Play()
	Stop()
	IsPlaying() bool
	// Plays returns how many times Play was called on this instance.
	Plays() int
}

// Locator is the process-wide slot for the current audio subsystem.
var Locator = locator.New[Subsystem](locator.WithName("audio"))

// player holds the state shared by every built-in driver.
type player struct {
	name    string
	playing atomic.Bool
	plays   atomic.Int64
}

func (p *player) Name() string    { return p.name }
func (p *player) Play()           { p.playing.Store(true); p.plays.Add(1) }
func (p *player) Stop()           { p.playing.Store(false) }
func (p *player) IsPlaying() bool { return p.playing.Load() }
func (p *player) Plays() int      { return int(p.plays.Load()) }

// MidiPlayer plays MIDI sequences.
type MidiPlayer struct{ player }

// NewMidiPlayer returns a stopped MidiPlayer.
func NewMidiPlayer() *MidiPlayer { return &MidiPlayer{player{name: "midi"}} }

// Mp3Player plays MP3 files.
type Mp3Player struct{ player }

// NewMp3Player returns a stopped Mp3Player.
func NewMp3Player() *Mp3Player { return &Mp3Player{player{name: "mp3"}} }

// NullPlayer counts plays and produces no sound. It is the default driver.
type NullPlayer struct{ player }

// NewNullPlayer returns a stopped NullPlayer.
func NewNullPlayer() *NullPlayer { return &NullPlayer{player{name: "null"}} }

// Factory builds a fresh Subsystem.
type Factory func() Subsystem

// Registry maps driver names to factories.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds or replaces the factory for name.
func (r *Registry) Register(name string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = f
}

// Lookup returns the factory registered for name.
func (r *Registry) Lookup(name string) (Factory, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.factories[name]
	return f, ok
}

// Names returns the registered driver names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// New builds the driver registered for name. Unknown names produce a
// ValidationError wrapping errors.ErrUnknownDriver.
func (r *Registry) New(name string) (Subsystem, error) {
	f, ok := r.Lookup(name)
	if !ok {
		return nil, errors.NewValidationError("unsupported audio driver").
			WithField("driver").
			WithValue(name).
			WithCause(errors.ErrUnknownDriver)
	}
	return f(), nil
}

// Drivers holds the built-in drivers.
var Drivers = func() *Registry {
	r := NewRegistry()
	r.Register("midi", func() Subsystem { return NewMidiPlayer() })
	r.Register("mp3", func() Subsystem { return NewMp3Player() })
	r.Register("null", func() Subsystem { return NewNullPlayer() })
	return r
}()

// Lookup returns the built-in factory for name.
func Lookup(name string) (Factory, bool) { return Drivers.Lookup(name) }

// Names returns the built-in driver names.
func Names() []string { return Drivers.Names() }

// New builds the built-in driver registered for name.
func New(name string) (Subsystem, error) { return Drivers.New(name) }
