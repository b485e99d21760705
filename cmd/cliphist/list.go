package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"go.klb.dev/cliphist/internal/history"
	"go.klb.dev/cliphist/internal/message"
	"go.klb.dev/cliphist/internal/picker"
)

func newListCmd() *cobra.Command {
	cmd := clientCmd(&cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "Show the clipboard history, most recent first",
		Args:    cobra.NoArgs,
	}, runList)

	f := cmd.Flags()
	f.StringP("output", "o", "table", "output format: table|json|yaml")
	f.IntP("limit", "n", 0, "show at most N entries (0 = all)")
	return cmd
}

func runList(cmd *cobra.Command, _ []string, v *viper.Viper, c *daemonClient) error {
	entries, err := c.ListN(v.GetInt("limit"))
	if err != nil {
		return err
	}
	return printEntries(cmd.OutOrStdout(), entries, v.GetString("output"), time.Now())
}

func printEntries(w io.Writer, entries []message.Entry, format string, now time.Time) error {
	if entries == nil {
		entries = []message.Entry{}
	}
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	case "yaml":
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		return enc.Encode(entries)
	case "table", "":
		if len(entries) == 0 {
			_, err := fmt.Fprintln(w, "History is empty.")
			return err
		}
		tw := tabwriter.NewWriter(w, 1, 0, 2, ' ', 0)
		_, _ = fmt.Fprintf(tw, "#\tAGE\tCONTENT\n")
		for _, e := range entries {
			_, _ = fmt.Fprintf(tw, "%d\t%s\t%s\n",
				e.Index, picker.Age(now.Sub(e.CapturedAt)), history.Preview(e.Content, picker.PreviewWidth))
		}
		return tw.Flush()
	default:
		return fmt.Errorf("unknown output format %q (want table, json or yaml)", format)
	}
}

// parseIndex parses a history index argument.
func parseIndex(s string) (int, error) {
	i, err := strconv.Atoi(s)
	if err != nil || i < 0 {
		return 0, fmt.Errorf("invalid index %q: want a number from 0 to %d", s, history.DefaultCapacity-1)
	}
	return i, nil
}

func errIndex(i, have int) error {
	return fmt.Errorf("no history entry %d (have %d)", i, have)
}
