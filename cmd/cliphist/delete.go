package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newDeleteCmd() *cobra.Command {
	return clientCmd(&cobra.Command{
		Use:     "delete <index>",
		Aliases: []string{"rm"},
		Short:   "Remove an entry from the history",
		Args:    cobra.ExactArgs(1),
	}, runDelete)
}

func runDelete(cmd *cobra.Command, args []string, _ *viper.Viper, c *daemonClient) error {
	i, err := parseIndex(args[0])
	if err != nil {
		return err
	}
	if err := c.RemoveIndex(i); err != nil {
		return err
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Removed entry %d.\n", i)
	return err
}

func newClearCmd() *cobra.Command {
	return clientCmd(&cobra.Command{
		Use:   "clear",
		Short: "Remove every entry from the history",
		Long:  "Empties the history. The current clipboard content is left alone.",
		Args:  cobra.NoArgs,
	}, runClear)
}

func runClear(cmd *cobra.Command, _ []string, _ *viper.Viper, c *daemonClient) error {
	n, err := c.Clear()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Removed %d entries.\n", n)
	return err
}
