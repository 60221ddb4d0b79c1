// Package lifecycle implements the cleanup protocol packaging scripts
// rely on: callers register cleanup functions while setting up, and on
// failure (or SIGINT/SIGTERM) the registered cleanups run in reverse
// order before the process exits non-zero. On success the cleanups are
// dropped.
package lifecycle

import (
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/selfhostd/appkit/pkg/logging"
)

// Guard holds the cleanup stack for one script run
type Guard struct {
	mu       sync.Mutex
	cleanups []cleanup
	done     bool
	logger   zerolog.Logger

	// exit is swapped in tests
	exit func(code int)
}

type cleanup struct {
	name string
	fn   func() error
}

// New creates a Guard
func New() *Guard {
	return &Guard{
		logger: logging.GetLogger("lifecycle"),
		exit:   os.Exit,
	}
}

// Defer registers a named cleanup function. Cleanups run in reverse
// registration order, each at most once.
func (g *Guard) Defer(name string, fn func() error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.done {
		return
	}
	g.cleanups = append(g.cleanups, cleanup{name: name, fn: fn})
}

// Trap installs signal handlers so an interrupted script still cleans
// up. Returns a stop function releasing the handlers.
func (g *Guard) Trap() func() {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig, ok := <-ch
		if !ok {
			return
		}
		g.logger.Warn().Str("signal", sig.String()).Msg("Interrupted, running cleanup")
		g.runCleanups()
		g.exit(1)
	}()

	return func() {
		signal.Stop(ch)
		close(ch)
	}
}

// Fail runs the cleanup stack and returns the original error. Cleanup
// failures are logged but never mask err. Fail(nil) is a no-op.
func (g *Guard) Fail(err error) error {
	if err == nil {
		return nil
	}
	g.runCleanups()
	return err
}

// Succeed disarms the guard; registered cleanups are dropped
func (g *Guard) Succeed() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.done = true
	g.cleanups = nil
}

func (g *Guard) runCleanups() {
	g.mu.Lock()
	if g.done {
		g.mu.Unlock()
		return
	}
	g.done = true
	stack := g.cleanups
	g.cleanups = nil
	g.mu.Unlock()

	for i := len(stack) - 1; i >= 0; i-- {
		c := stack[i]
		g.logger.Debug().Str("cleanup", c.name).Msg("Running cleanup")
		if err := c.fn(); err != nil {
			g.logger.Warn().Err(err).Str("cleanup", c.name).Msg("Cleanup failed")
		}
	}
}

// Run executes fn under a fresh Guard with signals trapped. This is the
// entry point CLI commands use: any error from fn triggers the cleanup
// stack, success disarms it.
func Run(fn func(*Guard) error) error {
	g := New()
	stop := g.Trap()
	defer stop()

	if err := fn(g); err != nil {
		return g.Fail(err)
	}
	g.Succeed()
	return nil
}
