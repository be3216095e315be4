// tlsdial - a TLS client connection bootstrapper: resolve, connect,
// validate the server name, hand the stream to the handshake engine,
// then relay.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"tlsdial/cmd"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := cmd.Execute(ctx, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "tlsdial: %v\n", err)
		os.Exit(1)
	}
}
