package locator

// ReadGuard holds shared access to a locator's service until Release is
// called. It is created by Locator.Access and must not be copied.
type ReadGuard[T any] struct {
	l        *Locator[T]
	service  T
	released bool
}

// Service returns the provided value. Callers must only observe it.
func (g *ReadGuard[T]) Service() T {
	return g.service
}

// Release gives up shared access. Calling it more than once is a no-op.
func (g *ReadGuard[T]) Release() {
	if g == nil || g.released {
		return
	}
	g.released = true
	g.l.mu.RUnlock()
}

// WriteGuard holds exclusive access to a locator's service until Release is
// called. It is created by Locator.AccessMut and must not be copied.
type WriteGuard[T any] struct {
	l        *Locator[T]
	service  T
	released bool
	poisoned bool
}

// Service returns the provided value for observation or mutation.
func (g *WriteGuard[T]) Service() T {
	return g.service
}

// Release gives up exclusive access. Calling it more than once is a no-op.
//
// When deferred directly (defer g.Release()) during a panic, Release marks the
// locator poisoned before unlocking and then resumes the panic.
func (g *WriteGuard[T]) Release() {
	if g == nil || g.released {
		return
	}
	if r := recover(); r != nil {
		g.poison()
		g.unlock()
		panic(r)
	}
	g.unlock()
}

// poison latches the locator's poison flag. The exclusive hold must still be
// owned by g.
func (g *WriteGuard[T]) poison() {
	if g.released {
		return
	}
	g.poisoned = true
	g.l.poisoned = true
}

func (g *WriteGuard[T]) unlock() {
	g.released = true
	g.l.mu.Unlock()
	if g.poisoned {
		g.l.logError("service poisoned by panicking writer", "service", g.l.Name())
		g.l.emit(Event{Type: EventPoisoned, Service: g.l.Name(), Err: newError(Poisoned, g.l.Name())})
	}
}
