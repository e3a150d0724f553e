// Package cli implements the lights command, a client for the lightsd
// control socket.
package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/nerrad567/gray-logic-lights/internal/ipc"
	"github.com/nerrad567/gray-logic-lights/internal/light"
)

// DefaultSocketPath matches the daemon's default ipc.socket_path.
const DefaultSocketPath = "/tmp/lights.sock"

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Socket  string
	Timeout time.Duration
}

// sender delivers one command to the daemon.
type sender func(ctx context.Context, path string, cmd light.Command) error

// NewRootCommand creates the root command for the lights CLI.
func NewRootCommand() *cobra.Command {
	return newRootCommand(ipc.Send)
}

func newRootCommand(send sender) *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "lights",
		Short: "Control a light through lightsd",
		Long: "Send one command to the lightsd control socket. lightsd applies it to the\n" +
			"light's last reported state and publishes the change over MQTT.",
		SilenceUsage: true,
	}

	socketDefault := DefaultSocketPath
	if v := os.Getenv("LIGHTSD_SOCKET_PATH"); v != "" {
		socketDefault = v
	}
	cmd.PersistentFlags().StringVarP(&opts.Socket, "socket", "s", socketDefault, "lightsd control socket path")
	cmd.PersistentFlags().DurationVar(&opts.Timeout, "timeout", 5*time.Second, "connect and write timeout")

	cmd.AddCommand(newFixedCommand(opts, send, "on", "Turn the light on", light.TurnOn()))
	cmd.AddCommand(newFixedCommand(opts, send, "off", "Turn the light off", light.TurnOff()))
	cmd.AddCommand(newAmountCommand(opts, send, "dim", "Lower brightness by AMOUNT", light.Dim))
	cmd.AddCommand(newAmountCommand(opts, send, "brighten", "Raise brightness by AMOUNT", light.Brighten))
	cmd.AddCommand(newAmountCommand(opts, send, "set-brightness", "Set brightness to AMOUNT", light.SetBrightness))

	return cmd
}

func newFixedCommand(opts *RootOptions, send sender, use, short string, command light.Command) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return deliver(cmd.Context(), opts, send, command)
		},
	}
}

func newAmountCommand(opts *RootOptions, send sender, use, short string, build func(uint64) light.Command) *cobra.Command {
	return &cobra.Command{
		Use:   use + " AMOUNT",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid amount %q: must be a non-negative integer", args[0])
			}
			return deliver(cmd.Context(), opts, send, build(amount))
		},
	}
}

func deliver(ctx context.Context, opts *RootOptions, send sender, command light.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	if err := send(ctx, opts.Socket, command); err != nil {
		return fmt.Errorf("sending %s: %w", command, err)
	}
	return nil
}
