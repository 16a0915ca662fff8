package yolods

import (
	"bytes"
	"context"
	"io"
	"os/exec"
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"
)

// CommandRunner runs an external program and returns its standard output.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) (string, error)
}

// ExitErrorVerbose prefers the captured stderr over the bare process exit status.
type ExitErrorVerbose struct {
	E      *exec.ExitError
	Stderr string
}

func (e ExitErrorVerbose) Error() string {
	if s := strings.TrimSpace(e.Stderr); s != "" {
		return s
	}
	return e.E.Error()
}

func (e ExitErrorVerbose) Unwrap() error {
	return e.E
}

// ExecRunner runs programs with os/exec. Output is captured and, when Echo is set, also streamed
// to Echo as it arrives.
type ExecRunner struct {
	Echo io.Writer
	Dir  string
}

// Run implements CommandRunner.
func (r ExecRunner) Run(ctx context.Context, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = r.Dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if r.Echo != nil {
		echo := &lockedWriter{w: r.Echo}
		cmd.Stdout = io.MultiWriter(&stdout, echo)
		cmd.Stderr = io.MultiWriter(&stderr, echo)
	}

	log.Debugf("Running %s %s", name, strings.Join(args, " "))
	err := cmd.Run()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return stdout.String(), ExitErrorVerbose{E: exitErr, Stderr: stderr.String()}
		}
		return stdout.String(), err
	}
	// Results may be logged to either stream.
	return stdout.String() + stderr.String(), nil
}

// lockedWriter serializes writes from the stdout and stderr copiers.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}
