package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newSelectCmd() *cobra.Command {
	cmd := clientCmd(&cobra.Command{
		Use:   "select <index>",
		Short: "Put a history entry back on the clipboard",
		Long: `Writes the entry at <index> (0 = most recent, as shown by "cliphist list")
back to the clipboard and moves it to the front of the history.

With --content the entry is addressed by its exact text instead.`,
		Args: cobra.MaximumNArgs(1),
	}, runSelect)

	cmd.Flags().String("content", "", "select the entry with exactly this text")
	return cmd
}

func runSelect(_ *cobra.Command, args []string, v *viper.Viper, c *daemonClient) error {
	content := v.GetString("content")
	switch {
	case len(args) == 1 && content != "":
		return fmt.Errorf("give either an index or --content, not both")
	case len(args) == 1:
		i, err := parseIndex(args[0])
		if err != nil {
			return err
		}
		return c.SelectIndex(i)
	case content != "":
		return c.Select(content)
	default:
		return fmt.Errorf("select needs an index or --content")
	}
}
