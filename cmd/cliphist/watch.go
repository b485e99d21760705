package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.klb.dev/cliphist/internal/history"
	"go.klb.dev/cliphist/internal/message"
)

func newWatchCmd() *cobra.Command {
	cmd := clientCmd(&cobra.Command{
		Use:   "watch",
		Short: "Stream history changes until interrupted",
		Long: `Prints one line per history change: added, promoted, selected, evicted,
removed or cleared. With --json each line is the raw event.`,
		Args: cobra.NoArgs,
	}, runWatch)

	cmd.Flags().Bool("json", false, "print events as JSON lines")
	return cmd
}

func runWatch(cmd *cobra.Command, _ []string, v *viper.Viper, c *daemonClient) error {
	out := cmd.OutOrStdout()
	asJSON := v.GetBool("json")
	return c.Watch(cmd.Context(), func(ev *message.Event) error {
		if asJSON {
			raw, err := json.Marshal(ev)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(out, string(raw))
			return err
		}
		_, err := fmt.Fprintln(out, formatEvent(ev))
		return err
	})
}

func formatEvent(ev *message.Event) string {
	if ev.Content == "" {
		return ev.Kind
	}
	return fmt.Sprintf("%-9s %s", ev.Kind, history.Preview(ev.Content, 72))
}
