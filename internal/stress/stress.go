// Package stress hammers a locator with concurrent readers and writers while
// re-registering its value, and reports any breach of mutual exclusion.
package stress

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/sourcegraph/conc/pool"

	"github.com/Iron-Ham/servloc/internal/audio"
	"github.com/Iron-Ham/servloc/internal/errors"
	"github.com/Iron-Ham/servloc/internal/logging"
	"github.com/Iron-Ham/servloc/locator"
)

// Options controls a stress run.
type Options struct {
	Readers    int
	Writers    int
	Iterations int // acquisitions per goroutine
	SwapEvery  int // re-register after this many writer acquisitions; 0 disables
	// Drivers are cycled through on each swap. Empty means every built-in driver.
	Drivers []string
}

// Report summarizes a stress run.
type Report struct {
	Acquisitions int64
	Swaps        int64
	// Violations counts guard acquisitions that observed another holder they
	// should have excluded: a writer alongside anyone, or a reader alongside a
	// writer.
	Violations int64
	Elapsed    time.Duration
}

// OpsPerSecond returns the acquisition throughput.
func (r Report) OpsPerSecond() float64 {
	if r.Elapsed <= 0 {
		return 0
	}
	return float64(r.Acquisitions) / r.Elapsed.Seconds()
}

// probe tracks who is inside a guard right now.
type probe struct {
	readers    atomic.Int64
	writers    atomic.Int64
	acquired   atomic.Int64
	writes     atomic.Int64
	swaps      atomic.Int64
	violations atomic.Int64
}

// Runner drives one stress run.
type Runner struct {
	loc    *locator.Locator[audio.Subsystem]
	opts   Options
	logger *logging.Logger
	p      probe
}

// NewRunner validates opts and returns a Runner for loc. A nil logger
// discards output.
func NewRunner(loc *locator.Locator[audio.Subsystem], opts Options, logger *logging.Logger) (*Runner, error) {
	if opts.Readers < 0 || opts.Writers < 0 || opts.Readers+opts.Writers == 0 {
		return nil, errors.NewValidationError("at least one reader or writer is required").
			WithField("readers/writers").
			WithValue(fmt.Sprintf("%d/%d", opts.Readers, opts.Writers))
	}
	if opts.Iterations <= 0 {
		return nil, errors.NewValidationError("iterations must be positive").
			WithField("iterations").
			WithValue(opts.Iterations)
	}
	if opts.SwapEvery < 0 {
		return nil, errors.NewValidationError("swap interval must be non-negative").
			WithField("swap_every").
			WithValue(opts.SwapEvery)
	}
	if len(opts.Drivers) == 0 {
		opts.Drivers = audio.Names()
	}
	for _, name := range opts.Drivers {
		if _, ok := audio.Lookup(name); !ok {
			return nil, errors.NewValidationError("unsupported audio driver").
				WithField("drivers").
				WithValue(name).
				WithCause(errors.ErrUnknownDriver)
		}
	}
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Runner{loc: loc, opts: opts, logger: logger.WithComponent("stress")}, nil
}

// Run provides the first driver, starts every worker and waits for them. On
// cancellation or a worker error it returns what was measured so far together
// with the error.
func (r *Runner) Run(ctx context.Context) (Report, error) {
	first, _ := audio.New(r.opts.Drivers[0])
	r.loc.Register(first)

	r.logger.Info("stress run starting",
		"readers", r.opts.Readers,
		"writers", r.opts.Writers,
		"iterations", r.opts.Iterations,
		"swap_every", r.opts.SwapEvery)

	start := time.Now()
	p := pool.New().WithContext(ctx).WithCancelOnError()
	for range r.opts.Readers {
		p.Go(r.reader)
	}
	for range r.opts.Writers {
		p.Go(r.writer)
	}
	err := p.Wait()

	report := Report{
		Acquisitions: r.p.acquired.Load(),
		Swaps:        r.p.swaps.Load(),
		Violations:   r.p.violations.Load(),
		Elapsed:      time.Since(start),
	}

	r.logger.Info("stress run finished",
		"acquisitions", report.Acquisitions,
		"swaps", report.Swaps,
		"violations", report.Violations,
		"elapsed", report.Elapsed.String(),
		"ops_per_sec", report.OpsPerSecond())

	if err != nil {
		return report, errors.Wrap(err, "stress run")
	}
	return report, nil
}

func (r *Runner) reader(ctx context.Context) error {
	for range r.opts.Iterations {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := r.loc.Read(func(s audio.Subsystem) error {
			r.p.readers.Add(1)
			defer r.p.readers.Add(-1)
			r.p.acquired.Add(1)
			if r.p.writers.Load() != 0 {
				r.p.violations.Add(1)
			}
			_ = s.IsPlaying()
			return nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) writer(ctx context.Context) error {
	for range r.opts.Iterations {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := r.loc.Write(func(s audio.Subsystem) error {
			w := r.p.writers.Add(1)
			defer r.p.writers.Add(-1)
			r.p.acquired.Add(1)
			if w != 1 || r.p.readers.Load() != 0 {
				r.p.violations.Add(1)
			}
			s.Play()
			return nil
		})
		if err != nil {
			return err
		}

		n := r.p.writes.Add(1)
		if r.opts.SwapEvery > 0 && n%int64(r.opts.SwapEvery) == 0 {
			r.swap()
		}
	}
	return nil
}

// swap registers the next driver in the cycle. It runs with no guard held.
func (r *Runner) swap() {
	n := r.p.swaps.Add(1)
	name := r.opts.Drivers[int(n)%len(r.opts.Drivers)]
	s, err := audio.New(name)
	if err != nil {
		r.logger.Error("swap failed", "driver", name, "error", err)
		return
	}
	r.loc.Register(s)
	r.logger.Debug("swapped driver", "driver", name, "swap", n)
}
