package ui

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProgressPlain(t *testing.T) {
	var buf bytes.Buffer
	p := NewPlain(&buf)

	p.Progress(2, 5, "Provisioning database...")

	assert.Equal(t, "[##...] Provisioning database...\n", buf.String())
}

func TestProgressClampsStep(t *testing.T) {
	var buf bytes.Buffer
	p := NewPlain(&buf)

	p.Progress(9, 3, "done")

	assert.Equal(t, "[###] done\n", buf.String())
}

func TestProgressZeroTotal(t *testing.T) {
	var buf bytes.Buffer
	p := NewPlain(&buf)

	p.Progress(0, 0, "start")

	assert.Equal(t, "[.] start\n", buf.String())
}

func TestWarnPrefix(t *testing.T) {
	var buf bytes.Buffer
	p := NewPlain(&buf)

	p.Warn("database already exists")

	assert.Equal(t, "WARNING: database already exists\n", buf.String())
}

func TestInfoAndSuccessPlain(t *testing.T) {
	var buf bytes.Buffer
	p := NewPlain(&buf)

	p.Info("resolving version")
	p.Success("installed")

	assert.Equal(t, "resolving version\ninstalled\n", buf.String())
}
