package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/leengari/tabular/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)

	app := cli.NewApp(os.Stdin, os.Stdout, os.Stderr)
	code := app.Main(ctx, os.Args[1:])
	stop()

	os.Exit(code)
}
