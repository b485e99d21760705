package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newCopyCmd() *cobra.Command {
	cmd := clientCmd(&cobra.Command{
		Use:   "copy [text]",
		Short: "Copy stdin (or the argument) to the clipboard (like pbcopy)",
		Long: `Sends text to the daemon, which writes it to the clipboard and records it in
the history. Reads stdin unless text is given as an argument.`,
		Args: cobra.MaximumNArgs(1),
	}, runCopy)

	cmd.Flags().Bool("trim", false, "strip one trailing newline (as left by echo)")
	return cmd
}

func runCopy(cmd *cobra.Command, args []string, v *viper.Viper, c *daemonClient) error {
	var text string
	if len(args) == 1 {
		text = args[0]
	} else {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}
		text = string(data)
	}
	if v.GetBool("trim") {
		text = strings.TrimSuffix(strings.TrimSuffix(text, "\n"), "\r")
	}
	if text == "" {
		return fmt.Errorf("nothing to copy")
	}
	return c.Copy(text)
}
