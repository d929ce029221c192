package scenario

import (
	"fmt"
	"sync"

	"github.com/sourcegraph/conc"
	"github.com/sourcegraph/conc/panics"

	"github.com/Iron-Ham/servloc/internal/audio"
	"github.com/Iron-Ham/servloc/internal/errors"
	"github.com/Iron-Ham/servloc/locator"
)

func runEmpty(loc *locator.Locator[audio.Subsystem]) error {
	_, err := loc.Access()
	if e := expectKind("access", err, locator.NotProvided); e != nil {
		return e
	}
	_, err = loc.AccessMut()
	if e := expectKind("access mut", err, locator.NotProvided); e != nil {
		return e
	}
	if !errors.Is(err, locator.ErrNotProvided) {
		return fmt.Errorf("access mut: %v does not match ErrNotProvided", err)
	}
	return nil
}

func runReplace(loc *locator.Locator[audio.Subsystem]) error {
	if _, err := loc.Access(); err == nil {
		return errors.New("access on empty slot succeeded")
	}

	loc.Register(audio.NewMidiPlayer())
	if name, err := playing(loc); err != nil || name != "midi" {
		return fmt.Errorf("after first registration: driver=%q err=%v", name, err)
	}

	mp3 := audio.NewMp3Player()
	loc.Register(mp3)

	g, err := loc.AccessMut()
	if err != nil {
		return fmt.Errorf("access mut: %w", err)
	}
	if g.Service().Name() != "mp3" {
		g.Release()
		return fmt.Errorf("write guard sees %q, want mp3", g.Service().Name())
	}
	g.Service().Play()
	g.Release()

	return loc.Read(func(s audio.Subsystem) error {
		if !s.IsPlaying() || s.Plays() != 1 {
			return fmt.Errorf("mutation not visible: playing=%v plays=%d", s.IsPlaying(), s.Plays())
		}
		return nil
	})
}

func runTryRegister(loc *locator.Locator[audio.Subsystem]) error {
	if err := loc.TryRegister(audio.NewMidiPlayer()); err != nil {
		return fmt.Errorf("first try register: %w", err)
	}
	err := loc.TryRegister(audio.NewMp3Player())
	if e := expectKind("second try register", err, locator.AlreadyProvided); e != nil {
		return e
	}
	if name, err := playing(loc); err != nil || name != "midi" {
		return fmt.Errorf("slot changed after rejected registration: driver=%q err=%v", name, err)
	}
	return nil
}

func runResultMap(loc *locator.Locator[audio.Subsystem]) error {
	loc.Register(audio.NewNullPlayer())

	var plays int
	if err := loc.Read(func(s audio.Subsystem) error {
		plays = s.Plays()
		return nil
	}); err != nil {
		return err
	}
	if plays != 0 {
		return fmt.Errorf("mapped value = %d, want 0", plays)
	}

	sentinel := errors.New("driver refused")
	if err := loc.Read(func(audio.Subsystem) error { return sentinel }); !errors.Is(err, sentinel) {
		return fmt.Errorf("callback error not returned: %v", err)
	}
	return nil
}

func runPoison(loc *locator.Locator[audio.Subsystem]) error {
	loc.Register(audio.NewMidiPlayer())

	var pc panics.Catcher
	pc.Try(func() {
		_ = loc.Write(func(s audio.Subsystem) error {
			s.Play()
			panic("driver crashed mid-play")
		})
	})
	if pc.Recovered() == nil {
		return errors.New("writer did not panic")
	}

	_, err := loc.Access()
	if e := expectKind("access", err, locator.Poisoned); e != nil {
		return e
	}
	// Reporting poison does not clear it.
	_, err = loc.AccessMut()
	if e := expectKind("access mut", err, locator.Poisoned); e != nil {
		return e
	}

	loc.Register(audio.NewMp3Player())
	if name, err := playing(loc); err != nil || name != "mp3" {
		return fmt.Errorf("after recovery: driver=%q err=%v", name, err)
	}
	return nil
}

func runThreads(loc *locator.Locator[audio.Subsystem]) error {
	midi := audio.NewMidiPlayer()
	loc.Register(midi)

	play := func() error {
		return loc.Write(func(s audio.Subsystem) error {
			s.Play()
			return nil
		})
	}

	var (
		firstRound sync.WaitGroup
		swapped    = make(chan struct{})
		mu         sync.Mutex
		failures   []error
	)
	record := func(err error) {
		if err != nil {
			mu.Lock()
			failures = append(failures, err)
			mu.Unlock()
		}
	}

	firstRound.Add(2)
	var wg conc.WaitGroup
	for range 2 {
		wg.Go(func() {
			record(play())
			firstRound.Done()
			<-swapped
			record(play())
		})
	}

	record(play())
	firstRound.Wait()

	mp3 := audio.NewMp3Player()
	loc.Register(mp3)
	close(swapped)

	record(play())
	if r := wg.WaitAndRecover(); r != nil {
		return fmt.Errorf("worker panicked: %v", r.Value)
	}

	if len(failures) > 0 {
		return errors.Join(failures...)
	}
	if midi.Plays() != 3 || mp3.Plays() != 3 {
		return fmt.Errorf("plays midi=%d mp3=%d, want 3 each", midi.Plays(), mp3.Plays())
	}
	return nil
}
