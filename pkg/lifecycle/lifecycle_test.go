package lifecycle

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFailRunsCleanupsInReverseOrder(t *testing.T) {
	g := New()

	var order []string
	g.Defer("first", func() error { order = append(order, "first"); return nil })
	g.Defer("second", func() error { order = append(order, "second"); return nil })

	cause := errors.New("install failed")
	err := g.Fail(cause)

	assert.Equal(t, cause, err)
	assert.Equal(t, []string{"second", "first"}, order)
}

func TestFailNilIsNoOp(t *testing.T) {
	g := New()

	ran := false
	g.Defer("cleanup", func() error { ran = true; return nil })

	assert.NoError(t, g.Fail(nil))
	assert.False(t, ran)
}

func TestCleanupsRunAtMostOnce(t *testing.T) {
	g := New()

	count := 0
	g.Defer("once", func() error { count++; return nil })

	cause := errors.New("boom")
	_ = g.Fail(cause)
	_ = g.Fail(cause)

	assert.Equal(t, 1, count)
}

func TestSucceedDropsCleanups(t *testing.T) {
	g := New()

	ran := false
	g.Defer("cleanup", func() error { ran = true; return nil })
	g.Succeed()

	_ = g.Fail(errors.New("late failure"))
	assert.False(t, ran)
}

func TestCleanupFailureDoesNotMaskError(t *testing.T) {
	g := New()

	var order []string
	g.Defer("ok", func() error { order = append(order, "ok"); return nil })
	g.Defer("failing", func() error {
		order = append(order, "failing")
		return errors.New("cleanup broke too")
	})

	cause := errors.New("original")
	err := g.Fail(cause)

	// The failing cleanup does not stop the rest of the stack
	assert.Equal(t, []string{"failing", "ok"}, order)
	assert.Equal(t, cause, err)
}

func TestDeferAfterDoneIsIgnored(t *testing.T) {
	g := New()
	g.Succeed()

	ran := false
	g.Defer("late", func() error { ran = true; return nil })
	_ = g.Fail(errors.New("x"))

	assert.False(t, ran)
}

func TestRunSuccessDisarms(t *testing.T) {
	ran := false
	err := Run(func(g *Guard) error {
		g.Defer("cleanup", func() error { ran = true; return nil })
		return nil
	})

	require.NoError(t, err)
	assert.False(t, ran)
}

func TestRunErrorTriggersCleanup(t *testing.T) {
	ran := false
	cause := errors.New("setup failed")
	err := Run(func(g *Guard) error {
		g.Defer("cleanup", func() error { ran = true; return nil })
		return cause
	})

	assert.Equal(t, cause, err)
	assert.True(t, ran)
}
