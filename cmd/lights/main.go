// lights sends a single command to the lightsd control socket.
//
//	lights on
//	lights dim 30
//	lights --socket /run/lightsd.sock set-brightness 200
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/nerrad567/gray-logic-lights/internal/cli"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := cli.NewRootCommand().ExecuteContext(ctx); err != nil {
		cancel()
		os.Exit(1)
	}
}
