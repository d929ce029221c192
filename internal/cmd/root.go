package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Iron-Ham/servloc/internal/config"
	"github.com/Iron-Ham/servloc/internal/errors"
	"github.com/Iron-Ham/servloc/internal/logging"
	"github.com/Iron-Ham/servloc/internal/tui/styles"
	"github.com/Iron-Ham/servloc/locator"
)

var rootCmd = &cobra.Command{
	Use:   "servloc",
	Short: "Process-wide service locator with swappable providers",
	Long: `servloc demonstrates a thread-safe, single-slot service locator.

A capability (here an audio subsystem) is registered into a slot and can be
replaced at any time while readers and writers keep using it through scoped
guards. The commands run self-checking scenarios, stress the slot under
concurrent access, and swap its provider live from a watched file.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and reports any error on stderr.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		reportError(rootCmd.ErrOrStderr(), err)
	}
	return err
}

// reportError prints err for a terminal. Messages of user-facing errors are
// printed bare, colored by severity; everything else keeps the Error prefix.
func reportError(w io.Writer, err error) {
	if !errors.IsUserFacing(err) {
		_, _ = fmt.Fprintln(w, styles.ErrorMsg.Render("Error:"), err)
		return
	}
	style := styles.Warning
	if errors.GetSeverity(err) >= errors.SeverityError {
		style = styles.Error
	}
	_, _ = fmt.Fprintln(w, style.Render(err.Error()))
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (default is $HOME/.config/servloc/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "override logging.level (debug, info, warn, error)")
	bindFlags()
}

// bindFlags connects global flags to their viper keys.
func bindFlags() {
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))
}

func initConfig() {
	// Set defaults first so they're available even without a config file
	config.SetDefaults()

	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(config.ConfigDir())
		viper.AddConfigPath("$HOME/.config/servloc")
		viper.AddConfigPath(".")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("SERVLOC")
	// Replace dots with underscores for nested keys in env vars
	// e.g., SERVLOC_STRESS_READERS for stress.readers
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file if it exists (ignore error if not found)
	_ = viper.ReadInConfig()
}

// loadConfig loads and validates the configuration. Unlike config.Get it
// reports validation errors instead of silently using defaults.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// setupLogger builds the command's logger from cfg and installs it as the
// fallback for every locator. Without a log directory, entries go to the
// command's stderr.
func setupLogger(cmd *cobra.Command, cfg *config.Config) (*logging.Logger, func(), error) {
	var logger *logging.Logger
	if cfg.Logging.Dir == "" {
		logger = logging.NewWriterLogger(cmd.ErrOrStderr(), cfg.Logging.Level)
	} else {
		l, err := logging.NewLogger(cfg.Logging.Dir, cfg.Logging.Level)
		if err != nil {
			return nil, nil, err
		}
		logger = l
	}
	logger = logger.WithComponent(cmd.Name())

	locator.SetLogger(logger.WithComponent("locator"))
	cleanup := func() {
		locator.SetLogger(nil)
		_ = logger.Close()
	}
	return logger, cleanup, nil
}
