// Command ecs-scene inspects, converts and publishes scene documents.
//
// The command binds the descriptors shipped with this module (Transform).
// Games with their own descriptors embed NewRootCmd with a bridge setup
// function of their own.
package main

import (
	"context"
	"os"
	"os/signal"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := NewRootCmd(BindBuiltins).ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
