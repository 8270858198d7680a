// Package shell runs external commands synchronously and reports their
// outcome as a Result plus a typed error.
//
// Every external program the dry run touches (cdf, rsync) goes through Run,
// so "tool not found" and "tool exited non-zero" are reported the same way
// regardless of which step invoked it.
package shell

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os/exec"
	"strings"
)

// ErrNotFound is returned (wrapped) when the executable cannot be located.
var ErrNotFound = errors.New("executable not found")

// Command describes one invocation of an external program.
type Command struct {
	// Name is the program name or path.
	Name string

	// Args are passed to the program verbatim.
	Args []string

	// Dir is the working directory. Empty means the current directory.
	Dir string

	// Stdout and Stderr, when set, receive the program output as it is
	// produced. Output is captured into the Result either way.
	Stdout io.Writer
	Stderr io.Writer
}

// String renders the command line the way a user would type it.
func (c Command) String() string {
	return strings.Join(append([]string{c.Name}, c.Args...), " ")
}

// Result holds the captured output of a finished command.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// ExitError reports a command that ran but exited with a non-zero status.
// Its message carries the status and the last stderr line; callers add the
// command line when wrapping it.
type ExitError struct {
	// Command is the rendered command line.
	Command string

	// ExitCode is the process exit status.
	ExitCode int

	// Stderr is the trimmed standard error output, possibly empty.
	Stderr string
}

func (e *ExitError) Error() string {
	msg := fmt.Sprintf("exit status %d", e.ExitCode)
	if e.Stderr != "" {
		msg = fmt.Sprintf("%s: %s", msg, lastLine(e.Stderr))
	}
	return msg
}

// Run executes cmd and waits for it to exit.
//
// On a zero exit status it returns the captured Result and a nil error.
// A missing executable yields an error wrapping ErrNotFound; a non-zero exit
// yields an *ExitError. The Result is returned in both failure cases when
// the process was started.
func Run(ctx context.Context, cmd Command) (*Result, error) {
	// #nosec G204 -- commands are assembled internally from fixed arguments
	c := exec.CommandContext(ctx, cmd.Name, cmd.Args...)
	c.Dir = cmd.Dir

	var stdout, stderr bytes.Buffer
	c.Stdout = teeTo(&stdout, cmd.Stdout)
	c.Stderr = teeTo(&stderr, cmd.Stderr)

	err := c.Run()
	result := &Result{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	if err == nil {
		return result, nil
	}

	if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s: %v", ErrNotFound, cmd.Name, err)
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		result.ExitCode = exitErr.ExitCode()
		return result, &ExitError{
			Command:  cmd.String(),
			ExitCode: result.ExitCode,
			Stderr:   strings.TrimSpace(result.Stderr),
		}
	}

	return nil, fmt.Errorf("command '%s' could not be run: %w", cmd.String(), err)
}

// LookPath reports whether name resolves to an executable.
func LookPath(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}

func teeTo(buf *bytes.Buffer, w io.Writer) io.Writer {
	if w == nil {
		return buf
	}
	return io.MultiWriter(buf, w)
}

func lastLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return s[i+1:]
	}
	return s
}
