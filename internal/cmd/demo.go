package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Iron-Ham/servloc/internal/event"
	"github.com/Iron-Ham/servloc/internal/scenario"
	"github.com/Iron-Ham/servloc/internal/tui/styles"
	"github.com/Iron-Ham/servloc/locator"
)

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run the self-checking locator scenarios",
	Long: `Run the named locator scenarios, each against a fresh slot, and report
which ones behaved as expected.

Select scenarios with a glob pattern:
  servloc demo --run 'slot.*'
  servloc demo --run 'slot.{poison,threads}'`,
	RunE: runDemo,
}

func init() {
	rootCmd.AddCommand(demoCmd)

	demoCmd.Flags().String("run", "", "glob pattern selecting scenarios by name (default: all)")
	demoCmd.Flags().Bool("list", false, "list scenarios without running them")
}

func runDemo(cmd *cobra.Command, args []string) error {
	pattern, _ := cmd.Flags().GetString("run")
	list, _ := cmd.Flags().GetBool("list")
	out := cmd.OutOrStdout()

	selected, err := scenario.Select(pattern)
	if err != nil {
		return err
	}
	if len(selected) == 0 {
		return fmt.Errorf("no scenario matches %q", pattern)
	}

	if list {
		for _, s := range selected {
			_, _ = fmt.Fprintf(out, "%-20s %s\n", s.Name, styles.Muted.Render(s.Description))
		}
		return nil
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, cleanup, err := setupLogger(cmd, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	bus := event.NewBus(logger)
	bus.Subscribe(event.TypeScenarioFinished, func(e event.Event) {
		r := e.(event.ScenarioFinishedEvent)
		logger.Debug("scenario finished", "scenario", r.Name, "passed", r.Passed, "duration", r.Duration.String())
	})

	results := scenario.Run(cmd.Context(), selected,
		locator.WithObserver(func(e locator.Event) { bus.Publish(e) }))

	_, _ = fmt.Fprintln(out, styles.Title.Render("Locator scenarios"))
	failed := 0
	for _, r := range results {
		bus.Publish(event.NewScenarioFinishedEvent(r.Name, r.Passed, r.Err, r.Duration))

		_, _ = fmt.Fprintf(out, "%s  %-20s %s\n", styles.ResultBadge(r.Passed), r.Name, styles.Muted.Render(r.Duration.String()))
		if !r.Passed {
			failed++
			_, _ = fmt.Fprintf(out, "      %s\n", styles.Error.Render(r.Err.Error()))
		}
	}

	_, _ = fmt.Fprintf(out, "\n%d passed, %d failed\n", len(results)-failed, failed)
	counts := bus.Counts()
	_, _ = fmt.Fprintf(out, "%s\n", styles.Muted.Render(fmt.Sprintf(
		"locator events: %d provided, %d rejected, %d access failures, %d poisoned",
		counts[locator.EventProvided],
		counts[locator.EventRejected],
		counts[locator.EventAccessFailed],
		counts[locator.EventPoisoned])))

	if failed > 0 {
		return fmt.Errorf("%d scenario(s) failed", failed)
	}
	return nil
}
