// Package acquire bounds the retrieval of a record's original text in time.
package acquire

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/oukeidos/libretag/internal/apperrors"
)

// FetchFunc retrieves the original text. It should honour ctx, but Text does
// not rely on it: a fetch that ignores cancellation is abandoned.
type FetchFunc func(ctx context.Context) (string, error)

type result struct {
	text string
	err  error
}

// Text runs fetch with a hard time bound. When the bound elapses first the
// late result is discarded and a timeout error is returned. A non-positive
// timeout leaves only the parent context in charge.
func Text(ctx context.Context, timeout time.Duration, fetch FetchFunc) (string, error) {
	fetchCtx := ctx
	cancel := func() {}
	if timeout > 0 {
		fetchCtx, cancel = context.WithTimeout(ctx, timeout)
	}
	defer cancel()

	done := make(chan result, 1)
	go func() {
		text, err := fetch(fetchCtx)
		done <- result{text: text, err: err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			if errors.Is(r.err, context.DeadlineExceeded) && ctx.Err() == nil {
				return "", timeoutError(timeout, r.err)
			}
			return "", apperrors.New(apperrors.KindText, "", fmt.Errorf("get original text: %w", r.err))
		}
		return r.text, nil
	case <-fetchCtx.Done():
		if ctx.Err() != nil {
			return "", apperrors.New(apperrors.KindText, "", ctx.Err())
		}
		return "", timeoutError(timeout, fetchCtx.Err())
	}
}

func timeoutError(timeout time.Duration, cause error) error {
	return apperrors.Timeout(
		"Getting original Text took too long",
		fmt.Errorf("text retrieval exceeded %s: %w", timeout, cause),
	)
}
