package toolkit

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/shinji-kodama/cdf-dryrun/internal/model"
	"github.com/shinji-kodama/cdf-dryrun/internal/shell"
)

// Toolkit invokes the cdf CLI inside a project directory.
type Toolkit struct {
	// bin is the executable name or path, normally "cdf".
	bin string

	// dir is the project root every command runs in.
	dir string

	// stdout and stderr receive the output of build and deploy, which can
	// be long-running and which the user wants to watch.
	stdout io.Writer
	stderr io.Writer
}

// Option configures a Toolkit.
type Option func(*Toolkit)

// WithOutput streams build and deploy output to the given writers.
func WithOutput(stdout, stderr io.Writer) Option {
	return func(t *Toolkit) {
		t.stdout = stdout
		t.stderr = stderr
	}
}

// New creates a Toolkit that runs bin in dir. An empty dir means the
// current working directory.
func New(bin, dir string, opts ...Option) *Toolkit {
	t := &Toolkit{bin: bin, dir: dir}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Version runs `cdf --version` and returns the first line of its output.
//
// This doubles as the liveness check: a missing binary yields an error
// wrapping shell.ErrNotFound, and a non-zero exit yields a *shell.ExitError.
func (t *Toolkit) Version(ctx context.Context) (string, error) {
	result, err := t.run(ctx, false, "--version")
	if err != nil {
		return "", err
	}
	out := strings.TrimSpace(result.Stdout)
	if line, _, ok := strings.Cut(out, "\n"); ok {
		out = line
	}
	return out, nil
}

// Build runs `cdf build`, streaming its output.
func (t *Toolkit) Build(ctx context.Context) error {
	_, err := t.run(ctx, true, "build")
	return err
}

// DeployDryRun runs `cdf deploy --dry-run`, streaming its output.
// The toolkit reports what it would change without applying anything.
func (t *Toolkit) DeployDryRun(ctx context.Context) error {
	_, err := t.run(ctx, true, "deploy", "--dry-run")
	return err
}

// CommandLine renders the command line for args, for log messages.
func (t *Toolkit) CommandLine(args ...string) string {
	return shell.Command{Name: t.bin, Args: args}.String()
}

// run executes the toolkit with args in the project directory.
//
// Failures are wrapped in a model.CLIError of kind ExternalToolFailure whose
// message names the command, so the top-level error line tells the user
// exactly which invocation broke. The shell error stays in the chain for
// errors.Is(err, shell.ErrNotFound) and errors.As(err, **shell.ExitError).
func (t *Toolkit) run(ctx context.Context, stream bool, args ...string) (*shell.Result, error) {
	cmd := shell.Command{Name: t.bin, Args: args, Dir: t.dir}
	if stream {
		cmd.Stdout = t.stdout
		cmd.Stderr = t.stderr
	}

	result, err := shell.Run(ctx, cmd)
	if err != nil {
		message := fmt.Sprintf("command '%s' failed", cmd.String())
		return result, model.WrapCLIError(model.KindExternalToolFailure, message, err)
	}
	return result, nil
}
