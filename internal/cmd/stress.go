package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Iron-Ham/servloc/internal/audio"
	"github.com/Iron-Ham/servloc/internal/config"
	"github.com/Iron-Ham/servloc/internal/stress"
	"github.com/Iron-Ham/servloc/internal/tui/styles"
)

var stressCmd = &cobra.Command{
	Use:   "stress",
	Short: "Hammer the audio locator with concurrent readers and writers",
	Long: `Run readers and writers against the process-wide audio locator while
periodically re-registering its driver, and verify that no writer ever
shares the slot with another holder.

Flags override the stress.* configuration values.`,
	RunE: runStress,
}

func init() {
	rootCmd.AddCommand(stressCmd)

	stressCmd.Flags().Int("readers", 0, "reader goroutines (default from stress.readers)")
	stressCmd.Flags().Int("writers", 0, "writer goroutines (default from stress.writers)")
	stressCmd.Flags().Int("iterations", 0, "acquisitions per goroutine (default from stress.iterations)")
	stressCmd.Flags().Int("swap-every", 0, "re-register after this many writes, 0 disables (default from stress.swap_every)")
	stressCmd.Flags().StringSlice("drivers", nil, "drivers to cycle through on each swap (default: all)")
}

// stressOptions merges explicitly set flags over the configured values.
func stressOptions(cmd *cobra.Command, cfg config.StressConfig) stress.Options {
	opts := stress.Options{
		Readers:    cfg.Readers,
		Writers:    cfg.Writers,
		Iterations: cfg.Iterations,
		SwapEvery:  cfg.SwapEvery,
	}
	flags := cmd.Flags()
	if flags.Changed("readers") {
		opts.Readers, _ = flags.GetInt("readers")
	}
	if flags.Changed("writers") {
		opts.Writers, _ = flags.GetInt("writers")
	}
	if flags.Changed("iterations") {
		opts.Iterations, _ = flags.GetInt("iterations")
	}
	if flags.Changed("swap-every") {
		opts.SwapEvery, _ = flags.GetInt("swap-every")
	}
	opts.Drivers, _ = flags.GetStringSlice("drivers")
	return opts
}

func runStress(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, cleanup, err := setupLogger(cmd, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	runner, err := stress.NewRunner(audio.Locator, stressOptions(cmd, cfg.Stress), logger)
	if err != nil {
		return err
	}

	report, err := runner.Run(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintln(out, styles.Title.Render("Stress report"))
	_, _ = fmt.Fprintf(out, "%s%d\n", styles.Label.Render("acquisitions"), report.Acquisitions)
	_, _ = fmt.Fprintf(out, "%s%d\n", styles.Label.Render("swaps"), report.Swaps)
	_, _ = fmt.Fprintf(out, "%s%s\n", styles.Label.Render("elapsed"), report.Elapsed)
	_, _ = fmt.Fprintf(out, "%s%.0f\n", styles.Label.Render("ops/sec"), report.OpsPerSecond())

	if report.Violations > 0 {
		_, _ = fmt.Fprintf(out, "%s%s\n", styles.Label.Render("violations"),
			styles.ErrorMsg.Render(fmt.Sprintf("%d", report.Violations)))
		return fmt.Errorf("mutual exclusion violated %d time(s)", report.Violations)
	}
	_, _ = fmt.Fprintf(out, "%s%s\n", styles.Label.Render("violations"), styles.SuccessMsg.Render("0"))
	return nil
}
