// Package event provides a pub-sub event bus that carries service locator
// diagnostics and harness progress to whoever is watching.
//
// Publishers (locator observers, the provider watcher, the demo harness) never
// know who receives their events; the live monitor and the plain watch output
// subscribe without knowing who produced them.
//
// # Main Types
//
//   - [Event]: Interface that all events must implement, providing EventType() and Timestamp()
//   - [Bus]: Synchronous pub-sub event dispatcher with per-type counters
//   - [Handler]: Function type for event handlers (func(Event))
//
// locator.Event implements [Event], so a locator can be wired to a bus with
//
//	locator.WithObserver(func(e locator.Event) { bus.Publish(e) })
//
// # Event Types
//
//   - service.provided, service.rejected, service.access_failed, service.poisoned (locator)
//   - [DriverSwappedEvent], [ProviderErrorEvent] (provider watcher)
//   - [ScenarioFinishedEvent] (demo harness)
//
// # Thread Safety
//
// The [Bus] type is safe for concurrent use. Handlers are called synchronously
// on the publishing goroutine and protected against panics; a panicking
// handler is logged and does not prevent other handlers from running.
// [Bus.SubscribeChan] never blocks the publisher: events that do not fit in
// the channel buffer are dropped, though they are still counted.
package event
