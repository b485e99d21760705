package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.klb.dev/cliphist/internal/history"
	"go.klb.dev/cliphist/internal/picker"
)

func newPickCmd() *cobra.Command {
	return clientCmd(&cobra.Command{
		Use:   "pick",
		Short: "Browse the history and choose an entry interactively",
		Long: `Opens a full-screen list of the history.

  ↑/↓ or k/j   move
  enter        put the entry on the clipboard and exit
  d            delete the entry
  r            reload
  q / esc      exit without changing the clipboard`,
		Args: cobra.NoArgs,
	}, runPick)
}

func runPick(cmd *cobra.Command, _ []string, _ *viper.Viper, c *daemonClient) error {
	// Fail fast with the usual error instead of an empty picker.
	if _, err := c.Status(); err != nil {
		return err
	}
	chosen, err := picker.Run(c)
	if err != nil {
		return fmt.Errorf("picker: %w", err)
	}
	if chosen != "" {
		_, err = fmt.Fprintf(cmd.ErrOrStderr(), "Copied: %s\n", history.Preview(chosen, picker.PreviewWidth))
	}
	return err
}
