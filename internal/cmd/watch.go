package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/sourcegraph/conc/pool"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/Iron-Ham/servloc/internal/audio"
	"github.com/Iron-Ham/servloc/internal/event"
	"github.com/Iron-Ham/servloc/internal/logging"
	"github.com/Iron-Ham/servloc/internal/provider"
	"github.com/Iron-Ham/servloc/internal/tui/monitor"
	"github.com/Iron-Ham/servloc/internal/tui/styles"
	"github.com/Iron-Ham/servloc/locator"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Swap the audio driver live from a provider file",
	Long: `Watch a provider file and re-register the audio driver it names every
time the file changes, while a player keeps using the slot.

The provider file is YAML with a single key:

  driver: midi

On a terminal the command opens a live monitor; pass --plain (or redirect
stdout) to get one line per event instead.`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().String("file", "", "provider file to watch (default from watch.provider_file)")
	watchCmd.Flags().Bool("plain", false, "print events as lines instead of opening the monitor")
	watchCmd.Flags().Duration("duration", 0, "stop after this long, 0 runs until interrupted")
	watchCmd.Flags().Duration("play-interval", time.Second, "how often the player uses the slot, 0 disables it")
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, cleanup, err := setupLogger(cmd, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	path, _ := cmd.Flags().GetString("file")
	if path == "" {
		path = cfg.Watch.ProviderPath()
	}
	plain, _ := cmd.Flags().GetBool("plain")
	duration, _ := cmd.Flags().GetDuration("duration")
	interval, _ := cmd.Flags().GetDuration("play-interval")

	bus := event.NewBus(logger)
	loc := locator.New[audio.Subsystem](
		locator.WithName("audio"),
		locator.WithObserver(func(e locator.Event) { bus.Publish(e) }),
	)

	// The configured default is in place before the file is first read, so
	// a missing or broken provider file still leaves a usable slot.
	if def, err := audio.New(cfg.Audio.DefaultDriver); err == nil {
		loc.Register(def)
	}

	watcher, err := provider.NewWatcher(loc, provider.Options{
		Path:     path,
		Debounce: cfg.Watch.Debounce(),
		Logger:   logger,
		Bus:      bus,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if duration > 0 {
		var cancelTimeout context.CancelFunc
		ctx, cancelTimeout = context.WithTimeout(ctx, duration)
		defer cancelTimeout()
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	out := cmd.OutOrStdout()
	interactive := !plain && isTerminal(out)

	var events <-chan event.Event
	if interactive {
		var id string
		events, id = bus.SubscribeChan(256)
		defer bus.Unsubscribe(id)
	} else {
		_, _ = fmt.Fprintf(out, "%s %s\n", styles.Title.Render("Watching"), watcher.Path())
		bus.SubscribeAll(plainPrinter(out))
	}

	p := pool.New().WithContext(ctx).WithCancelOnError()
	p.Go(func(ctx context.Context) error {
		// A watcher that cannot start ends the command, monitor included.
		if err := watcher.Run(ctx); err != nil {
			cancel()
			return err
		}
		return nil
	})
	p.Go(func(ctx context.Context) error {
		return play(ctx, loc, interval, logger)
	})

	var uiErr error
	if interactive {
		uiErr = monitor.Run(ctx, events, watcher.Path())
		cancel()
	}

	if err := p.Wait(); err != nil {
		return err
	}
	return uiErr
}

// play uses the slot through a write guard on every tick, the way a game
// loop would keep calling into its audio subsystem across swaps.
func play(ctx context.Context, loc *locator.Locator[audio.Subsystem], interval time.Duration, logger *logging.Logger) error {
	if interval <= 0 {
		<-ctx.Done()
		return nil
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			err := loc.Write(func(s audio.Subsystem) error {
				s.Play()
				return nil
			})
			if err != nil {
				// The locator observer already reported the failure.
				logger.Debug("player skipped tick", "error", err)
			}
		}
	}
}

// plainPrinter writes one line per event. Events arrive from both the
// watcher and the player goroutine.
func plainPrinter(w io.Writer) event.Handler {
	var mu sync.Mutex
	return func(e event.Event) {
		t := e.EventType()
		line := fmt.Sprintf("%s %s %-22s %s",
			e.Timestamp().Format("15:04:05"),
			styles.EventIcon(t),
			t,
			event.Describe(e))

		mu.Lock()
		defer mu.Unlock()
		_, _ = fmt.Fprintln(w, line)
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
