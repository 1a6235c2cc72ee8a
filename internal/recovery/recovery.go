// internal/recovery/recovery.go
package recovery

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"runtime/debug"
)

// ErrPanic marks an error produced from a recovered panic
var ErrPanic = errors.New("recovered panic")

// exit is replaced in tests
var exit = os.Exit

// HandlePanic should be deferred at the top of main().
// It logs panic details and exits with code 1.
func HandlePanic() {
	if r := recover(); r != nil {
		report(r, debug.Stack())
		exit(1)
	}
}

// HandlePanicFunc logs panic details, calls cleanup and exits with code 1.
func HandlePanicFunc(cleanup func()) {
	if r := recover(); r != nil {
		report(r, debug.Stack())
		if cleanup != nil {
			cleanup()
		}
		exit(1)
	}
}

// Guard wraps a goroutine body so a panic becomes an ErrPanic error
// instead of killing the process. Useful with errgroup:
//
//	g.Go(recovery.Guard(func() error {
//		return session.Run(ctx, line)
//	}))
func Guard(fn func() error) func() error {
	return func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				stack := debug.Stack()
				slog.Error("goroutine panic", "panic", fmt.Sprint(r), "stack", string(stack))
				err = fmt.Errorf("%w: %v", ErrPanic, r)
			}
		}()
		return fn()
	}
}

func report(r any, stack []byte) {
	_, _ = fmt.Fprintf(os.Stderr, "FATAL: %v\n\nStack trace:\n%s\n", r, stack)
	slog.Error("fatal panic", "panic", fmt.Sprint(r), "stack", string(stack))
}
