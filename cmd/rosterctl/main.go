package main

import (
	"context"
	"os"
	"os/signal"

	"rollcall/cmd/rosterctl/commands"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	commands.ExecuteContext(ctx)
}
