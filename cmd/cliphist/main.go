// cliphist: clipboard history daemon and tools.
package main

import (
	"context"
	"fmt"
	"os"
	"syscall"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

// Version is set at build time via -ldflags "-X main.Version=x.y.z".
var Version = "dev"

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "cliphist",
		Short: "Clipboard history",
		Long: `cliphist remembers the last 50 distinct texts you copied and lets you put
any of them back on the clipboard.

Run "cliphist daemon" once per login session (launchd, systemd --user, a
startup item). The other sub-commands talk to it over a local socket.

Config file search order (first found wins):
  /etc/cliphist/cliphist.toml
  $HOME/.config/cliphist/cliphist.toml
  path supplied via --config

All flags can be set via CLIPHIST_<FLAG> env vars or config-file keys.`,
		SilenceUsage: true,
	}

	root.AddCommand(
		newDaemonCmd(),
		newListCmd(),
		newSelectCmd(),
		newCopyCmd(),
		newPasteCmd(),
		newDeleteCmd(),
		newClearCmd(),
		newStatusCmd(),
		newWatchCmd(),
		newPickCmd(),
		newVersionCmd(),
	)
	return root
}

func main() {
	if err := fang.Execute(
		context.Background(),
		newRootCmd(),
		fang.WithVersion(Version),
		fang.WithNotifySignal(os.Interrupt, syscall.SIGTERM),
	); err != nil {
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "cliphist %s\n", Version)
		},
	}
}
