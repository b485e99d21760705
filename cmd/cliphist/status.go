package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.klb.dev/cliphist/internal/message"
)

func newStatusCmd() *cobra.Command {
	cmd := clientCmd(&cobra.Command{
		Use:   "status",
		Short: "Show daemon status",
		Args:  cobra.NoArgs,
	}, runStatus)

	cmd.Flags().Bool("json", false, "output raw JSON")
	return cmd
}

func runStatus(cmd *cobra.Command, _ []string, v *viper.Viper, c *daemonClient) error {
	st, err := c.Status()
	if err != nil {
		return err
	}
	if st == nil {
		return fmt.Errorf("status: empty response")
	}
	if v.GetBool("json") {
		enc, _ := json.MarshalIndent(st, "", "  ")
		_, err = fmt.Fprintln(cmd.OutOrStdout(), string(enc))
		return err
	}
	return printStatus(cmd.OutOrStdout(), st, c.path, time.Now())
}

func printStatus(out io.Writer, st *message.Status, sock string, now time.Time) error {
	w := tabwriter.NewWriter(out, 1, 0, 2, ' ', 0)
	fmt.Fprintf(w, "State:\t%s\n", st.State)
	fmt.Fprintf(w, "Version:\t%s (pid %d)\n", st.Version, st.PID)
	fmt.Fprintf(w, "Socket:\t%s\n", sock)
	fmt.Fprintf(w, "Clipboard:\t%s\n", st.Backend)
	fmt.Fprintf(w, "Entries:\t%d / %d\n", st.Entries, st.Capacity)
	fmt.Fprintf(w, "Poll interval:\t%s\n", st.PollInterval)
	fmt.Fprintf(w, "History file:\t%s\n", st.HistoryFile)
	fmt.Fprintf(w, "Started:\t%s (%s ago)\n", st.StartedAt.UTC().Format(time.RFC3339), fmtAge(now.Sub(st.StartedAt)))
	switch {
	case st.LastSaveErr != "":
		fmt.Fprintf(w, "Last save:\tFAILED: %s\n", st.LastSaveErr)
	case st.LastSave.IsZero():
		fmt.Fprintf(w, "Last save:\t-\n")
	default:
		fmt.Fprintf(w, "Last save:\t%s ago\n", fmtAge(now.Sub(st.LastSave)))
	}
	fmt.Fprintf(w, "Watchers:\t%d\n", st.Subscribers)
	return w.Flush()
}

func fmtAge(d time.Duration) string {
	return d.Round(time.Second).String()
}
