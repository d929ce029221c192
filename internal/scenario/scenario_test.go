package scenario

import (
	"context"
	"testing"

	"github.com/Iron-Ham/servloc/internal/audio"
	"github.com/Iron-Ham/servloc/internal/errors"
	"github.com/Iron-Ham/servloc/internal/logging"
	"github.com/Iron-Ham/servloc/locator"
)

func names(ss []Scenario) []string {
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = s.Name
	}
	return out
}

func TestSelect(t *testing.T) {
	tests := []struct {
		pattern string
		want    []string
	}{
		{"", names(All())},
		{"slot.*", names(All())},
		{"slot.empty", []string{"slot.empty"}},
		{"slot.{poison,threads}", []string{"slot.poison", "slot.threads"}},
		{"*register*", []string{"slot.try-register"}},
		{"nothing", nil},
	}

	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			got, err := Select(tt.pattern)
			if err != nil {
				t.Fatalf("Select(%q) error = %v", tt.pattern, err)
			}
			gotNames := names(got)
			if len(gotNames) != len(tt.want) {
				t.Fatalf("Select(%q) = %v, want %v", tt.pattern, gotNames, tt.want)
			}
			for i := range gotNames {
				if gotNames[i] != tt.want[i] {
					t.Errorf("Select(%q)[%d] = %q, want %q", tt.pattern, i, gotNames[i], tt.want[i])
				}
			}
		})
	}
}

func TestSelectInvalidPattern(t *testing.T) {
	_, err := Select("slot.[")
	if err == nil {
		t.Fatal("expected error for malformed pattern")
	}
	if !errors.Is(err, errors.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestAllScenariosPass(t *testing.T) {
	for _, s := range All() {
		t.Run(s.Name, func(t *testing.T) {
			res := s.Run(locator.WithLogger(logging.NopLogger()))
			if !res.Passed {
				t.Fatalf("scenario %s failed: %v", s.Name, res.Err)
			}
			if res.Name != s.Name {
				t.Errorf("Result.Name = %q", res.Name)
			}
			if res.Duration < 0 {
				t.Error("Result.Duration should not be negative")
			}
		})
	}
}

func TestRunUsesFreshLocators(t *testing.T) {
	// slot.empty would fail if it saw a locator left occupied by slot.replace.
	ss, err := Select("slot.{replace,empty}")
	if err != nil {
		t.Fatal(err)
	}
	for _, res := range Run(context.Background(), append(ss, ss...)) {
		if !res.Passed {
			t.Errorf("%s failed: %v", res.Name, res.Err)
		}
	}
}

func TestRunForwardsOptions(t *testing.T) {
	var events []string
	obs := locator.WithObserver(func(e locator.Event) {
		events = append(events, e.Type)
	})

	ss, err := Select("slot.try-register")
	if err != nil {
		t.Fatal(err)
	}
	Run(context.Background(), ss, obs)

	want := []string{locator.EventProvided, locator.EventRejected}
	if len(events) != len(want) || events[0] != want[0] || events[1] != want[1] {
		t.Errorf("events = %v, want %v", events, want)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if got := Run(ctx, All()); len(got) != 0 {
		t.Errorf("expected no results after cancellation, got %d", len(got))
	}
}

func TestFailureIsReported(t *testing.T) {
	broken := Scenario{
		Name: "slot.broken",
		run: func(loc *locator.Locator[audio.Subsystem]) error {
			_, err := loc.Access()
			return expectKind("access", err, locator.Poisoned)
		},
	}

	res := broken.Run()
	if res.Passed || res.Err == nil {
		t.Fatal("expected scenario to fail")
	}
}
