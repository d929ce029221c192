package event

import (
	"fmt"
	"time"

	"github.com/Iron-Ham/servloc/locator"
)

// Event is the interface that all events must implement.
// It provides a common way to identify and timestamp events.
// locator.Event satisfies it, so locator observers can publish directly.
type Event interface {
	// EventType returns a string identifier for this event type.
	// Convention: "category.action" (e.g., "service.provided", "driver.swapped")
	EventType() string

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// baseEvent provides common fields for all events.
// Embed this in concrete event types to satisfy the Event interface.
type baseEvent struct {
	eventType string
	timestamp time.Time
}

func (e baseEvent) EventType() string    { return e.eventType }
func (e baseEvent) Timestamp() time.Time { return e.timestamp }

// newBaseEvent creates a baseEvent with the current time.
func newBaseEvent(eventType string) baseEvent {
	return baseEvent{
		eventType: eventType,
		timestamp: time.Now(),
	}
}

// Event types published by servloc components other than the locator.
const (
	TypeDriverSwapped    = "driver.swapped"
	TypeProviderError    = "provider.error"
	TypeScenarioFinished = "scenario.finished"
)

// -----------------------------------------------------------------------------
// Provider Events
// -----------------------------------------------------------------------------

// DriverSwappedEvent is emitted when the provider watcher installs a new
// audio driver into the locator.
type DriverSwappedEvent struct {
	baseEvent
	Previous string // Driver name before the swap, empty on first install
	Current  string // Driver name now provided
	Source   string // Provider file that triggered the swap
}

// NewDriverSwappedEvent creates a DriverSwappedEvent.
func NewDriverSwappedEvent(previous, current, source string) DriverSwappedEvent {
	return DriverSwappedEvent{
		baseEvent: newBaseEvent(TypeDriverSwapped),
		Previous:  previous,
		Current:   current,
		Source:    source,
	}
}

// ProviderErrorEvent is emitted when a provider file cannot be read or
// names an unknown driver. The locator keeps its current value.
type ProviderErrorEvent struct {
	baseEvent
	Source string
	Err    error
}

// NewProviderErrorEvent creates a ProviderErrorEvent.
func NewProviderErrorEvent(source string, err error) ProviderErrorEvent {
	return ProviderErrorEvent{
		baseEvent: newBaseEvent(TypeProviderError),
		Source:    source,
		Err:       err,
	}
}

// -----------------------------------------------------------------------------
// Harness Events
// -----------------------------------------------------------------------------

// ScenarioFinishedEvent is emitted after each demo scenario runs.
type ScenarioFinishedEvent struct {
	baseEvent
	Name     string
	Passed   bool
	Err      error
	Duration time.Duration
}

// NewScenarioFinishedEvent creates a ScenarioFinishedEvent.
func NewScenarioFinishedEvent(name string, passed bool, err error, d time.Duration) ScenarioFinishedEvent {
	return ScenarioFinishedEvent{
		baseEvent: newBaseEvent(TypeScenarioFinished),
		Name:      name,
		Passed:    passed,
		Err:       err,
		Duration:  d,
	}
}

// Describe returns a one-line summary of the event's payload for log panes
// and plain output.
func Describe(e Event) string {
	switch ev := e.(type) {
	case DriverSwappedEvent:
		if ev.Previous == "" {
			return ev.Current
		}
		return fmt.Sprintf("%s → %s", ev.Previous, ev.Current)
	case ProviderErrorEvent:
		if ev.Err != nil {
			return ev.Err.Error()
		}
		return ev.Source
	case ScenarioFinishedEvent:
		if ev.Passed {
			return ev.Name + " passed"
		}
		return fmt.Sprintf("%s failed: %v", ev.Name, ev.Err)
	case locator.Event:
		if ev.Err != nil {
			return ev.Err.Error()
		}
		if ev.Replaced {
			return ev.Service + " (replaced)"
		}
		return ev.Service
	default:
		return ""
	}
}
