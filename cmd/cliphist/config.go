package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.klb.dev/cliphist/internal/ipc"
	"go.klb.dev/cliphist/internal/logging"
)

// bindViper wires a command's flags into a viper instance with the standard
// config file search order and CLIPHIST_* env var prefix.
//
// Precedence (lowest → highest): defaults → config file → CLIPHIST_* env vars → flags
func bindViper(cmd *cobra.Command, v *viper.Viper) error {
	configFlag, _ := cmd.Flags().GetString("config")
	if configFlag != "" {
		v.SetConfigFile(configFlag)
	} else {
		v.SetConfigName("cliphist")
		v.SetConfigType("toml")
		v.AddConfigPath("/etc/cliphist/")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(fmt.Sprintf("%s/.config/cliphist", home))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("config: %w", err)
		}
	}

	v.SetEnvPrefix("CLIPHIST")
	v.AutomaticEnv()

	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("binding flags: %w", err)
	}
	return nil
}

// addLoggingFlags adds the standard logging flags to a command.
func addLoggingFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("no-background", false, "run interactively: tinter logs + debug level")
	cmd.Flags().String("log-format", "auto", "log format: auto|text|json")
	cmd.Flags().String("log-level", "", "log level: debug|info|warn|error (default: info for service, debug for interactive)")
}

// addConfigFlag adds the --config flag to a command.
func addConfigFlag(cmd *cobra.Command) {
	cmd.Flags().String("config", "", "path to config file (overrides auto-discovery)")
}

// addSocketFlag adds --socket. Empty means ipc.SocketPath().
func addSocketFlag(cmd *cobra.Command) {
	cmd.Flags().String("socket", "", "daemon socket path (default: $XDG_RUNTIME_DIR/cliphist.sock or $TMPDIR/cliphist.sock)")
}

// socketPath resolves the daemon socket from config, falling back to the
// platform default.
func socketPath(v *viper.Viper) string {
	if s := v.GetString("socket"); s != "" {
		return s
	}
	return ipc.SocketPath()
}

// setupLogging reads logging flags from viper and configures slog.
func setupLogging(v *viper.Viper) {
	interactive := v.GetBool("no-background") || logging.IsTTY(os.Stderr)
	logging.Resolve(interactive, v.GetString("log-format"), v.GetString("log-level"))
}

// clientCmd builds the common shape of a client sub-command: its own viper,
// the --socket and --config flags, and bindViper in PreRunE.
func clientCmd(cmd *cobra.Command, run func(cmd *cobra.Command, args []string, v *viper.Viper, c *daemonClient) error) *cobra.Command {
	v := viper.New()
	cmd.PreRunE = func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) }
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		return run(cmd, args, v, &daemonClient{path: socketPath(v)})
	}
	addSocketFlag(cmd)
	addConfigFlag(cmd)
	return cmd
}
