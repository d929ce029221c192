package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Iron-Ham/servloc/internal/audio"
	"github.com/Iron-Ham/servloc/internal/tui/styles"
)

var driversCmd = &cobra.Command{
	Use:   "drivers",
	Short: "List the audio drivers a provider file may name",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		for _, name := range audio.Names() {
			if name == cfg.Audio.DefaultDriver {
				_, _ = fmt.Fprintf(out, "%s %s\n", name, styles.Muted.Render("(default)"))
				continue
			}
			_, _ = fmt.Fprintln(out, name)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(driversCmd)
}
