// Command ledgerctl runs the ledger console commands: monthly charge
// generation, recurring expense generation and site purge.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sitemanager/backend/internal/bootstrap"
	"github.com/sitemanager/backend/internal/infrastructure/config"
)

const closeTimeout = 10 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr, connect)
	stop()
	os.Exit(code)
}

func connect(ctx context.Context) (*Services, func() error, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	c, err := bootstrap.New(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() error {
		closeCtx, cancel := context.WithTimeout(context.Background(), closeTimeout)
		defer cancel()
		return c.Close(closeCtx)
	}
	return &Services{
		Generator: c.Generator,
		Purger:    c.Purger,
		Logger:    c.Logger,
	}, closeFn, nil
}
