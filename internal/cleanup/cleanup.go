// Package cleanup runs process-exit hooks such as closing the log file.
package cleanup

import (
	"errors"
	"fmt"
	"sync"
)

type hook struct {
	name string
	fn   func() error
}

var (
	mu    sync.Mutex
	hooks []hook
)

// Register schedules fn to run at exit. Hooks run newest first.
func Register(name string, fn func() error) {
	if fn == nil {
		return
	}
	mu.Lock()
	defer mu.Unlock()
	hooks = append(hooks, hook{name: name, fn: fn})
}

// RunAll runs and forgets every hook. A failing hook does not stop the
// rest; all failures are joined into the returned error.
func RunAll() error {
	mu.Lock()
	pending := hooks
	hooks = nil
	mu.Unlock()

	var errs []error
	for i := len(pending) - 1; i >= 0; i-- {
		if err := pending[i].fn(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", pending[i].name, err))
		}
	}
	return errors.Join(errs...)
}
