package execr

import (
	"context"
	"io"
	"strings"
	"sync"

	apperrors "github.com/selfhostd/appkit/pkg/errors"
)

// Response is a scripted outcome for the Recorder
type Response struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Err      error
}

// Recorder is a Runner test double. Responses are keyed by the joined
// command line; unkeyed commands succeed with empty output.
type Recorder struct {
	mu        sync.Mutex
	responses map[string]Response
	calls     []Cmd
}

// NewRecorder creates an empty Recorder
func NewRecorder() *Recorder {
	return &Recorder{responses: make(map[string]Response)}
}

// Stub registers a response for the given command line
func (r *Recorder) Stub(commandLine string, resp Response) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.responses[commandLine] = resp
}

// StubPrefix registers a response for every command line starting with
// the given prefix
func (r *Recorder) StubPrefix(prefix string, resp Response) {
	r.Stub(prefix+"*", resp)
}

// Calls returns the commands run so far
func (r *Recorder) Calls() []Cmd {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Cmd, len(r.calls))
	copy(out, r.calls)
	return out
}

// CommandLines returns the joined command lines run so far
func (r *Recorder) CommandLines() []string {
	lines := make([]string, 0)
	for _, c := range r.Calls() {
		lines = append(lines, commandLine(c))
	}
	return lines
}

func (r *Recorder) Run(_ context.Context, c Cmd) (Result, error) {
	r.mu.Lock()
	r.calls = append(r.calls, c)
	line := commandLine(c)
	resp, ok := r.responses[line]
	if !ok {
		for key, candidate := range r.responses {
			if strings.HasSuffix(key, "*") && strings.HasPrefix(line, strings.TrimSuffix(key, "*")) {
				resp, ok = candidate, true
				break
			}
		}
	}
	r.mu.Unlock()

	if c.Stdout != nil && resp.Stdout != "" {
		if _, err := io.WriteString(c.Stdout, resp.Stdout); err != nil {
			return Result{}, err
		}
		resp.Stdout = ""
	}

	result := Result{Stdout: resp.Stdout, Stderr: resp.Stderr, ExitCode: resp.ExitCode}
	if resp.Err != nil {
		return result, resp.Err
	}
	if resp.ExitCode != 0 {
		return result, apperrors.Newf(apperrors.ErrCommandExit,
			"%s exited with status %d", c.Name, resp.ExitCode)
	}
	return result, nil
}

func commandLine(c Cmd) string {
	return strings.Join(append([]string{c.Name}, c.Args...), " ")
}
