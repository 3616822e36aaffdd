package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Getenv("SHORTSCOUT_CONFIG")); err != nil {
		cancel()
		log.Fatalf("shortscoutd: %v", err)
	}
}
