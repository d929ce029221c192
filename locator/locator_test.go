package locator

import (
	"fmt"
	"io/fs"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Iron-Ham/servloc/internal/errors"
)

type counter interface {
	Label() string
	Incr()
	Count() int
}

type memCounter struct {
	label string
	n     int
}

func (c *memCounter) Label() string { return c.label }
func (c *memCounter) Incr()         { c.n++ }
func (c *memCounter) Count() int    { return c.n }

type recordingLogger struct {
	mu    sync.Mutex
	lines []string
}

func (r *recordingLogger) record(level, msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines = append(r.lines, level+" "+msg)
}

func (r *recordingLogger) Info(msg string, args ...any)  { r.record("INFO", msg) }
func (r *recordingLogger) Warn(msg string, args ...any)  { r.record("WARN", msg) }
func (r *recordingLogger) Error(msg string, args ...any) { r.record("ERROR", msg) }

func (r *recordingLogger) Lines() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.lines...)
}

// poisonSlot panics inside Write and swallows the panic.
func poisonSlot(t *testing.T, l *Locator[counter]) {
	t.Helper()
	func() {
		defer func() {
			if r := recover(); r == nil {
				t.Fatal("expected Write to re-panic")
			}
		}()
		_ = l.Write(func(c counter) error {
			c.Incr()
			panic("mutation failed")
		})
	}()
}

func TestAccessEmptySlot(t *testing.T) {
	var l Locator[counter]

	t.Run("Access fails with NotProvided", func(t *testing.T) {
		g, err := l.Access()
		if g != nil {
			t.Error("expected nil guard")
		}
		if !errors.Is(err, ErrNotProvided) {
			t.Fatalf("expected ErrNotProvided, got %v", err)
		}
		if !errors.Is(err, fs.ErrNotExist) {
			t.Error("NotProvided should classify as fs.ErrNotExist")
		}
	})

	t.Run("AccessMut fails with NotProvided", func(t *testing.T) {
		g, err := l.AccessMut()
		if g != nil {
			t.Error("expected nil guard")
		}
		if !errors.Is(err, ErrNotProvided) {
			t.Fatalf("expected ErrNotProvided, got %v", err)
		}
	})

	t.Run("failed access leaves the lock free", func(t *testing.T) {
		l.Register(&memCounter{label: "a"})
		g, err := l.AccessMut()
		if err != nil {
			t.Fatalf("AccessMut after failures: %v", err)
		}
		g.Release()
	})
}

func TestRegisterReplacesValue(t *testing.T) {
	var l Locator[counter]

	l.Register(&memCounter{label: "a"})
	g, err := l.Access()
	if err != nil {
		t.Fatalf("Access: %v", err)
	}
	if got := g.Service().Label(); got != "a" {
		t.Errorf("Label() = %q, want %q", got, "a")
	}
	g.Release()

	l.Register(&memCounter{label: "b"})
	for i := 0; i < 3; i++ {
		g, err := l.Access()
		if err != nil {
			t.Fatalf("Access: %v", err)
		}
		if got := g.Service().Label(); got != "b" {
			t.Errorf("Label() = %q after replacement, want %q", got, "b")
		}
		g.Release()
	}
}

func TestTryRegister(t *testing.T) {
	var l Locator[counter]

	if err := l.TryRegister(&memCounter{label: "a"}); err != nil {
		t.Fatalf("TryRegister on empty slot: %v", err)
	}

	err := l.TryRegister(&memCounter{label: "b"})
	if !errors.Is(err, ErrAlreadyProvided) {
		t.Fatalf("expected ErrAlreadyProvided, got %v", err)
	}
	if !errors.Is(err, fs.ErrExist) {
		t.Error("AlreadyProvided should classify as fs.ErrExist")
	}

	err = l.Read(func(c counter) error {
		if c.Label() != "a" {
			return fmt.Errorf("slot holds %q, want %q", c.Label(), "a")
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestScenarioReplaceThenMutate(t *testing.T) {
	var l Locator[counter]

	if _, err := l.Access(); !errors.Is(err, ErrNotProvided) {
		t.Fatalf("expected ErrNotProvided, got %v", err)
	}

	l.Register(&memCounter{label: "A"})
	if err := l.Read(func(c counter) error {
		if c.Label() != "A" {
			t.Errorf("Label() = %q, want A", c.Label())
		}
		return nil
	}); err != nil {
		t.Fatalf("Read: %v", err)
	}

	l.Register(&memCounter{label: "B"})
	w, err := l.AccessMut()
	if err != nil {
		t.Fatalf("AccessMut: %v", err)
	}
	if w.Service().Label() != "B" {
		t.Errorf("write guard sees %q, want B", w.Service().Label())
	}
	w.Service().Incr()
	w.Release()

	r, err := l.Access()
	if err != nil {
		t.Fatalf("Access: %v", err)
	}
	defer r.Release()
	if got := r.Service().Count(); got != 1 {
		t.Errorf("Count() = %d, want mutation to be visible", got)
	}
}

func TestPoisoning(t *testing.T) {
	t.Run("access reports poison until registration", func(t *testing.T) {
		var l Locator[counter]
		l.Register(&memCounter{label: "a"})
		poisonSlot(t, &l)

		for i := 0; i < 2; i++ {
			if _, err := l.Access(); !errors.Is(err, ErrPoisoned) {
				t.Fatalf("Access #%d: expected ErrPoisoned, got %v", i, err)
			}
			if _, err := l.AccessMut(); !errors.Is(err, ErrPoisoned) {
				t.Fatalf("AccessMut #%d: expected ErrPoisoned, got %v", i, err)
			}
		}

		l.Register(&memCounter{label: "b"})
		g, err := l.Access()
		if err != nil {
			t.Fatalf("Access after Register: %v", err)
		}
		defer g.Release()
		if g.Service().Label() != "b" {
			t.Errorf("Label() = %q, want b", g.Service().Label())
		}
	})

	t.Run("poison is observed from other goroutines", func(t *testing.T) {
		var l Locator[counter]
		l.Register(&memCounter{label: "a"})
		poisonSlot(t, &l)

		errs := make(chan error, 8)
		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := l.Access()
				errs <- err
			}()
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			if !errors.Is(err, ErrPoisoned) {
				t.Errorf("expected ErrPoisoned, got %v", err)
			}
		}
	})

	t.Run("TryRegister recovers a poisoned slot", func(t *testing.T) {
		var l Locator[counter]
		l.Register(&memCounter{label: "a"})
		poisonSlot(t, &l)

		if err := l.TryRegister(&memCounter{label: "b"}); err != nil {
			t.Fatalf("TryRegister on poisoned slot: %v", err)
		}
		err := l.Read(func(c counter) error {
			if c.Label() != "b" {
				t.Errorf("Label() = %q, want b", c.Label())
			}
			return nil
		})
		if err != nil {
			t.Fatalf("Read: %v", err)
		}
	})

	t.Run("panicking reader does not poison", func(t *testing.T) {
		var l Locator[counter]
		l.Register(&memCounter{label: "a"})
		func() {
			defer func() { _ = recover() }()
			_ = l.Read(func(counter) error { panic("read failed") })
		}()
		if _, err := l.AccessMut(); err != nil {
			t.Fatalf("AccessMut after reader panic: %v", err)
		}
	})
}

func TestWriteGuardPoisoning(t *testing.T) {
	t.Run("directly deferred Release poisons and re-panics", func(t *testing.T) {
		var l Locator[counter]
		l.Register(&memCounter{label: "a"})

		recovered := func() (r any) {
			defer func() { r = recover() }()
			func() {
				g, err := l.AccessMut()
				if err != nil {
					t.Fatalf("AccessMut: %v", err)
				}
				defer g.Release()
				g.Service().Incr()
				panic("mutation failed")
			}()
			return nil
		}()
		if recovered != "mutation failed" {
			t.Fatalf("outer recover got %v, want the original panic", recovered)
		}

		if _, err := l.Access(); !errors.Is(err, ErrPoisoned) {
			t.Errorf("Access() = %v, want ErrPoisoned", err)
		}
		if _, err := l.AccessMut(); !errors.Is(err, ErrPoisoned) {
			t.Errorf("AccessMut() = %v, want ErrPoisoned", err)
		}

		l.Register(&memCounter{label: "b"})
		g, err := l.AccessMut()
		if err != nil {
			t.Fatalf("AccessMut after re-registration: %v", err)
		}
		g.Release()
	})

	t.Run("Release without a panic leaves the slot healthy", func(t *testing.T) {
		var l Locator[counter]
		l.Register(&memCounter{})

		func() {
			g, err := l.AccessMut()
			if err != nil {
				t.Fatal(err)
			}
			defer g.Release()
			g.Service().Incr()
		}()

		if err := l.Read(func(c counter) error { return nil }); err != nil {
			t.Errorf("Read() = %v, want a healthy slot", err)
		}
	})
}

func TestWriteReturnsCallbackError(t *testing.T) {
	var l Locator[counter]
	l.Register(&memCounter{})

	want := fmt.Errorf("boom")
	if err := l.Write(func(counter) error { return want }); err != want {
		t.Fatalf("Write returned %v, want %v", err, want)
	}
	// A returned error is not a panic.
	if _, err := l.Access(); err != nil {
		t.Fatalf("Access after failed callback: %v", err)
	}
}

func TestConcurrentReaders(t *testing.T) {
	var l Locator[counter]
	l.Register(&memCounter{})

	const readers = 16
	var held atomic.Int32
	release := make(chan struct{})
	var wg sync.WaitGroup

	for i := 0; i < readers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			g, err := l.Access()
			if err != nil {
				t.Errorf("Access: %v", err)
				return
			}
			defer g.Release()
			held.Add(1)
			<-release
		}()
	}

	deadline := time.Now().Add(5 * time.Second)
	for held.Load() < readers {
		if time.Now().After(deadline) {
			t.Fatalf("only %d of %d readers acquired concurrently", held.Load(), readers)
		}
		time.Sleep(time.Millisecond)
	}
	close(release)
	wg.Wait()
}

func TestWriterWaitsForReaders(t *testing.T) {
	var l Locator[counter]
	l.Register(&memCounter{})

	r, err := l.Access()
	if err != nil {
		t.Fatalf("Access: %v", err)
	}

	acquired := make(chan struct{})
	go func() {
		w, err := l.AccessMut()
		if err != nil {
			t.Errorf("AccessMut: %v", err)
			close(acquired)
			return
		}
		close(acquired)
		w.Release()
	}()

	select {
	case <-acquired:
		t.Fatal("writer acquired while a reader was outstanding")
	case <-time.After(50 * time.Millisecond):
	}

	r.Release()
	select {
	case <-acquired:
	case <-time.After(5 * time.Second):
		t.Fatal("writer never acquired after reader released")
	}
}

func TestMutualExclusionUnderStress(t *testing.T) {
	var l Locator[counter]
	l.Register(&memCounter{})

	var readers, writers atomic.Int32
	var violations atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(writer bool) {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				if writer {
					_ = l.Write(func(c counter) error {
						if writers.Add(1) != 1 || readers.Load() != 0 {
							violations.Add(1)
						}
						c.Incr()
						writers.Add(-1)
						return nil
					})
					continue
				}
				_ = l.Read(func(c counter) error {
					readers.Add(1)
					if writers.Load() != 0 {
						violations.Add(1)
					}
					_ = c.Count()
					readers.Add(-1)
					return nil
				})
			}
		}(i%4 == 0)
	}
	wg.Wait()

	if v := violations.Load(); v != 0 {
		t.Fatalf("%d mutual exclusion violations", v)
	}
	_ = l.Read(func(c counter) error {
		if c.Count() != 8*200 {
			t.Errorf("Count() = %d, want %d", c.Count(), 8*200)
		}
		return nil
	})
}

func TestGuardReleaseIsIdempotent(t *testing.T) {
	var l Locator[counter]
	l.Register(&memCounter{})

	r, _ := l.Access()
	r.Release()
	r.Release()

	w, err := l.AccessMut()
	if err != nil {
		t.Fatalf("AccessMut: %v", err)
	}
	w.Release()
	w.Release()

	var nilGuard *WriteGuard[counter]
	nilGuard.Release()
}

func TestRegisterNilIsIgnored(t *testing.T) {
	var l Locator[counter]

	l.Register(nil)
	if _, err := l.Access(); !errors.Is(err, ErrNotProvided) {
		t.Fatalf("expected ErrNotProvided after nil Register, got %v", err)
	}
}

func TestTryRegisterNil(t *testing.T) {
	t.Run("empty slot", func(t *testing.T) {
		var l Locator[counter]
		err := l.TryRegister(nil)
		if !errors.Is(err, errors.ErrInvalidInput) {
			t.Fatalf("expected ErrInvalidInput, got %v", err)
		}
		if errors.Is(err, ErrNotProvided) {
			t.Error("a nil registration is not an access failure")
		}
		if _, err := l.Access(); !errors.Is(err, ErrNotProvided) {
			t.Errorf("slot should stay empty, Access() = %v", err)
		}
	})

	t.Run("occupied slot keeps its value", func(t *testing.T) {
		var l Locator[counter]
		l.Register(&memCounter{label: "a"})
		if err := l.TryRegister(nil); !errors.Is(err, errors.ErrInvalidInput) {
			t.Fatalf("expected ErrInvalidInput, got %v", err)
		}
		err := l.Read(func(c counter) error {
			if c.Label() != "a" {
				return fmt.Errorf("slot holds %q, want %q", c.Label(), "a")
			}
			return nil
		})
		if err != nil {
			t.Fatal(err)
		}
	})
}

func TestRegisterTypedNil(t *testing.T) {
	var l Locator[counter]

	l.Register((*memCounter)(nil))
	g, err := l.Access()
	if err != nil {
		t.Fatalf("a typed nil is a provided value, Access() = %v", err)
	}
	defer g.Release()
	if c, ok := g.Service().(*memCounter); !ok || c != nil {
		t.Errorf("Service() = %#v, want the registered typed nil", g.Service())
	}
}

func TestName(t *testing.T) {
	var l Locator[counter]
	if got, want := l.Name(), "locator.counter"; got != want {
		t.Errorf("Name() = %q, want %q", got, want)
	}

	named := New[counter](WithName("audio"))
	if got := named.Name(); got != "audio" {
		t.Errorf("Name() = %q, want %q", got, "audio")
	}
	_, err := named.Access()
	if err == nil || err.Error() != "service <audio> is not provided yet" {
		t.Errorf("unexpected error message: %v", err)
	}
}

func TestDiagnostics(t *testing.T) {
	rec := &recordingLogger{}
	var events []Event
	l := New[counter](
		WithName("counter"),
		WithLogger(rec),
		WithObserver(func(e Event) { events = append(events, e) }),
	)

	_, _ = l.Access()
	l.Register(&memCounter{})
	l.Register(&memCounter{})
	_ = l.TryRegister(&memCounter{})
	poisonSlot(t, l)

	wantTypes := []string{EventAccessFailed, EventProvided, EventProvided, EventRejected, EventPoisoned}
	if len(events) != len(wantTypes) {
		t.Fatalf("got %d events, want %d: %+v", len(events), len(wantTypes), events)
	}
	for i, want := range wantTypes {
		if events[i].EventType() != want {
			t.Errorf("event %d = %q, want %q", i, events[i].EventType(), want)
		}
		if events[i].Service != "counter" {
			t.Errorf("event %d service = %q", i, events[i].Service)
		}
		if events[i].Timestamp().IsZero() {
			t.Errorf("event %d has no timestamp", i)
		}
	}
	if events[1].Replaced || !events[2].Replaced {
		t.Errorf("Replaced flags = %v, %v; want false, true", events[1].Replaced, events[2].Replaced)
	}
	if !errors.Is(events[3].Err, ErrAlreadyProvided) {
		t.Errorf("rejected event err = %v", events[3].Err)
	}

	lines := rec.Lines()
	if len(lines) != 5 {
		t.Fatalf("got %d log lines, want 5: %v", len(lines), lines)
	}
	if lines[0] != "ERROR service access failed" || lines[1] != "INFO provided service" {
		t.Errorf("unexpected log lines: %v", lines)
	}
}

func TestFallbackLogger(t *testing.T) {
	rec := &recordingLogger{}
	SetLogger(rec)
	defer SetLogger(nil)

	var l Locator[counter]
	l.Register(&memCounter{})

	if lines := rec.Lines(); len(lines) != 1 || lines[0] != "INFO provided service" {
		t.Errorf("fallback logger lines = %v", lines)
	}

	own := &recordingLogger{}
	l2 := New[counter](WithLogger(own))
	l2.Register(&memCounter{})
	if len(rec.Lines()) != 1 {
		t.Error("locator with its own logger should not use the fallback")
	}
	if len(own.Lines()) != 1 {
		t.Errorf("own logger lines = %v", own.Lines())
	}
}
