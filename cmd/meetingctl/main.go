package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/zhouzirui/z-meeting/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	// .env 可选
	_ = godotenv.Load()

	code := cli.Execute(ctx, cli.DefaultDeps(), os.Args[1:], os.Stderr)
	stop()
	os.Exit(code)
}
