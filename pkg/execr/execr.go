// Package execr wraps subprocess execution behind a small interface so
// that helpers shelling out to git, goenv, apt-get or the mysql client
// tools can be tested without running them.
package execr

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os/exec"
	"strings"

	"github.com/rs/zerolog"

	apperrors "github.com/selfhostd/appkit/pkg/errors"
	"github.com/selfhostd/appkit/pkg/logging"
)

// Cmd describes a single subprocess invocation
type Cmd struct {
	Name string
	Args []string

	// Dir is the working directory, empty for inherited
	Dir string

	// Env entries are appended to the current environment
	Env []string

	// Stdin, when set, is fed to the process
	Stdin io.Reader

	// Stdout, when set, receives the process output directly instead of
	// being captured in the Result (used for database dumps)
	Stdout io.Writer
}

// Result carries the outcome of a finished subprocess
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Runner executes subprocesses
type Runner interface {
	Run(ctx context.Context, cmd Cmd) (Result, error)
}

// osRunner executes commands on the host
type osRunner struct {
	logger zerolog.Logger
}

// New creates a Runner backed by os/exec
func New() Runner {
	return &osRunner{logger: logging.GetLogger("execr")}
}

func (r *osRunner) Run(ctx context.Context, c Cmd) (Result, error) {
	if c.Name == "" {
		return Result{}, apperrors.New(apperrors.ErrInvalidInput, "command name is required")
	}

	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Dir = c.Dir
	if len(c.Env) > 0 {
		cmd.Env = append(cmd.Environ(), c.Env...)
	}
	cmd.Stdin = c.Stdin

	var stdout, stderr bytes.Buffer
	if c.Stdout != nil {
		cmd.Stdout = c.Stdout
	} else {
		cmd.Stdout = &stdout
	}
	cmd.Stderr = &stderr

	logging.LogCommand(c.Name, c.Args)
	done := logging.LogOperationStart(r.logger, c.Name)

	err := cmd.Run()
	done()

	result := Result{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			return result, apperrors.Wrapf(err, apperrors.ErrCommandExit,
				"%s exited with status %d: %s", c.Name, result.ExitCode, strings.TrimSpace(result.Stderr))
		}
		return result, apperrors.Wrapf(err, apperrors.ErrCommandRun, "failed to run %s", c.Name)
	}

	return result, nil
}

// Output runs a command and returns its trimmed stdout
func Output(ctx context.Context, r Runner, name string, args ...string) (string, error) {
	res, err := r.Run(ctx, Cmd{Name: name, Args: args})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(res.Stdout), nil
}
