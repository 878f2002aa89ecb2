package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/oukeidos/libretag/internal/auth"
	"github.com/oukeidos/libretag/internal/logger"
	"github.com/oukeidos/libretag/internal/prompt"
)

var (
	getKey       = auth.GetKey
	getEnvKey    = auth.GetEnvKey
	hasKey       = auth.HasKey
	promptForKey = auth.PromptForAPIKey
	confirmer    = prompt.DefaultConfirmer
)

// resolveAPIKey finds the optional LibreTranslate API key. No key at all is
// not an error; many servers accept anonymous requests.
func resolveAPIKey(allowEnv, envOnly bool) (string, string, error) {
	if envOnly {
		if key, ok := getEnvKey(); ok {
			return key, auth.SourceEnv, nil
		}
		return "", "", fmt.Errorf("env-only set but %s is not set", auth.EnvVar)
	}
	if key, source := getKey(false); key != "" {
		return key, source, nil
	}
	if allowEnv {
		if key, ok := getEnvKey(); ok {
			return key, auth.SourceEnv, nil
		}
	}
	return "", "", nil
}

// signalAbort turns the first SIGINT/SIGTERM into an abort request checked
// between records. A second signal cancels the returned context, which
// interrupts the request in flight.
func signalAbort() (context.Context, func() bool, func()) {
	ctx, cancel := context.WithCancel(context.Background())
	var aborted atomic.Bool
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		for {
			select {
			case <-sigCh:
				if aborted.Swap(true) {
					logger.Warn("Second interrupt, cancelling current request")
					cancel()
					return
				}
				logger.Warn("Abort requested, stopping after the current record")
			case <-ctx.Done():
				return
			}
		}
	}()
	stop := func() {
		signal.Stop(sigCh)
		cancel()
	}
	return ctx, aborted.Load, stop
}
