// Package scenario holds the named walkthroughs run by `servloc demo`. Each one
// drives a fresh audio locator through a sequence of operations and checks the
// outcome, so the demo doubles as a self-test of the locator's guarantees.
package scenario

import (
	"context"
	"fmt"
	"time"

	"github.com/gobwas/glob"

	"github.com/Iron-Ham/servloc/internal/audio"
	"github.com/Iron-Ham/servloc/internal/errors"
	"github.com/Iron-Ham/servloc/locator"
)

// Scenario is a named, self-checking sequence of locator operations.
type Scenario struct {
	Name        string
	Description string
	run         func(loc *locator.Locator[audio.Subsystem]) error
}

// Result is the outcome of one scenario.
type Result struct {
	Name     string
	Passed   bool
	Err      error
	Duration time.Duration
}

var all = []Scenario{
	{"slot.empty", "an empty slot refuses shared and exclusive access", runEmpty},
	{"slot.replace", "registration replaces the value seen by later guards", runReplace},
	{"slot.try-register", "conditional registration never replaces a provided value", runTryRegister},
	{"slot.result-map", "a value computed under a shared guard is returned to the caller", runResultMap},
	{"slot.poison", "a panicking writer poisons the slot until it is re-registered", runPoison},
	{"slot.threads", "writers on several goroutines see the driver swapped between rounds", runThreads},
}

// All returns every scenario in run order.
func All() []Scenario {
	return append([]Scenario(nil), all...)
}

// Select returns the scenarios whose name matches the glob pattern. An empty
// pattern selects everything.
func Select(pattern string) ([]Scenario, error) {
	if pattern == "" {
		return All(), nil
	}
	g, err := glob.Compile(pattern)
	if err != nil {
		return nil, errors.NewValidationError("invalid scenario pattern").
			WithField("run").
			WithValue(pattern).
			WithCause(err)
	}
	var out []Scenario
	for _, s := range all {
		if g.Match(s.Name) {
			out = append(out, s)
		}
	}
	return out, nil
}

// Run executes scenarios in order, each against a fresh locator configured
// with opts. It stops early when ctx is cancelled; scenarios not started are
// omitted from the results.
func Run(ctx context.Context, scenarios []Scenario, opts ...locator.Option) []Result {
	results := make([]Result, 0, len(scenarios))
	for _, s := range scenarios {
		if ctx.Err() != nil {
			break
		}
		results = append(results, s.Run(opts...))
	}
	return results
}

// Run executes the scenario against a fresh locator.
func (s Scenario) Run(opts ...locator.Option) Result {
	loc := locator.New[audio.Subsystem](append([]locator.Option{locator.WithName("audio")}, opts...)...)

	start := time.Now()
	err := s.run(loc)
	return Result{
		Name:     s.Name,
		Passed:   err == nil,
		Err:      err,
		Duration: time.Since(start),
	}
}

// expectKind fails unless err is a locator error of the given kind.
func expectKind(op string, err error, kind locator.Kind) error {
	var le *locator.Error
	if !errors.As(err, &le) || le.Kind != kind {
		return fmt.Errorf("%s: expected %s error, got %v", op, kind, err)
	}
	return nil
}

// playing reports which driver a shared guard currently sees.
func playing(loc *locator.Locator[audio.Subsystem]) (string, error) {
	var name string
	err := loc.Read(func(s audio.Subsystem) error {
		name = s.Name()
		return nil
	})
	return name, err
}
