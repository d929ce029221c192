// Package locator provides a process-wide slot that holds at most one
// implementation of a capability interface behind a read/write lock.
//
// A [Locator] is declared once per capability, usually as a package-level
// variable, and starts out empty. Any code may register an implementation at
// any point during the program's lifetime, and any goroutine may then borrow
// it through a scoped guard.
//
// # Basic Usage
//
//	type AudioSubsystem interface {
//	    Play()
//	    Stop()
//	    IsPlaying() bool
//	}
//
//	var Audio locator.Locator[AudioSubsystem]
//
//	// Provide an implementation, replacing any previous one
//	Audio.Register(&MidiPlayer{})
//
//	// Shared access
//	g, err := Audio.Access()
//	if err != nil {
//	    return err
//	}
//	defer g.Release()
//	playing := g.Service().IsPlaying()
//
//	// Exclusive access through the scoped helper
//	err = Audio.Write(func(a AudioSubsystem) error {
//	    a.Play()
//	    return nil
//	})
//
// # Errors
//
// Access can fail in exactly three ways, reported as [*Error] values whose
// [Kind] is one of [NotProvided], [AlreadyProvided] or [Poisoned]. Use
// errors.Is with [ErrNotProvided], [ErrAlreadyProvided] and [ErrPoisoned], or
// with fs.ErrNotExist and fs.ErrExist for coarse classification.
//
// # Poisoning
//
// When a goroutine panics while holding exclusive access through [Locator.Write]
// (or a [WriteGuard] whose Release is deferred directly), the slot is marked
// poisoned. [Locator.Access] and [Locator.AccessMut] then fail with [Poisoned]
// until [Locator.Register] or [Locator.TryRegister] installs a value again.
// TryRegister discards the suspect value before deciding, so it succeeds on a
// poisoned slot.
//
// # Thread Safety
//
// All [Locator] methods are safe for concurrent use. Guards belong to the
// goroutine that acquired them and must be released by it. Registering while
// holding a guard from the same locator deadlocks.
package locator
