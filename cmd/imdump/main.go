// imdump connects to a Redis instance and prints the exposition text for
// one metrics namespace.
//
// Usage:
//
//	imdump -addr redis://localhost:6379/0 -namespace myapp
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/u9n/instrumentor/adapters/redis"
	"github.com/u9n/instrumentor/core/exposition"
)

var (
	addr      = flag.String("addr", "redis://localhost:6379/0", "redis address")
	namespace = flag.String("namespace", "", "metrics namespace to dump")
	timeout   = flag.Duration("timeout", 5*time.Second, "redis timeout")
)

func main() {
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stderr, nil))
	if *namespace == "" {
		log.Error("-namespace is required")
		os.Exit(2)
	}

	if err := run(log); err != nil {
		log.Error("dump failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(log *slog.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	s, err := redis.NewStore(redis.Config{Address: *addr, Timeout: *timeout})
	if err != nil {
		return fmt.Errorf("create store: %w", err)
	}
	defer s.Close()

	if err := s.Ping(ctx); err != nil {
		return fmt.Errorf("ping %s: %w", *addr, err)
	}

	client, err := exposition.NewClient(exposition.ClientOptions{
		Store:     s,
		Namespace: *namespace,
		Log:       log,
	})
	if err != nil {
		return fmt.Errorf("create client: %w", err)
	}

	text, err := client.Gather(ctx)
	if err != nil {
		return err
	}

	fmt.Print(text)
	return nil
}
