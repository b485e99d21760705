package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newPasteCmd() *cobra.Command {
	return clientCmd(&cobra.Command{
		Use:   "paste [index]",
		Short: "Print a history entry to stdout (like pbpaste)",
		Long: `Prints the full text of the entry at [index] (default 0, the most recent)
without a trailing newline. The clipboard is not changed.`,
		Args: cobra.MaximumNArgs(1),
	}, runPaste)
}

func runPaste(cmd *cobra.Command, args []string, _ *viper.Viper, c *daemonClient) error {
	i := 0
	if len(args) == 1 {
		var err error
		if i, err = parseIndex(args[0]); err != nil {
			return err
		}
	}
	e, err := c.Entry(i)
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(cmd.OutOrStdout(), e.Content)
	return err
}
