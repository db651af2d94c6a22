package tools

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"strings"

	"github.com/core-tools/hsu-launcher/pkg/errors"
	"github.com/core-tools/hsu-launcher/pkg/logging"
)

// Runner invokes external helper executables. Helpers are synchronous and the
// launcher applies no timeout of its own; cancellation only happens through
// the passed context (external signal delivery).
type Runner interface {
	// Run executes a helper with inherited stdio. Nonzero exit is fatal.
	Run(ctx context.Context, path string, args ...string) error
	// Output executes a helper and returns its trimmed standard output.
	// Nonzero exit or empty output is fatal.
	Output(ctx context.Context, path string, args ...string) (string, error)
}

type execRunner struct {
	logger logging.Logger
}

// NewExecRunner returns a Runner backed by os/exec. Helper stderr passes
// through to the launcher's stderr, so after log redirection it lands in the
// service's error sink.
func NewExecRunner(logger logging.Logger) Runner {
	return &execRunner{logger: logger}
}

func (r *execRunner) Run(ctx context.Context, path string, args ...string) error {
	r.logger.Debugf("Running helper tool, path: %s, args: %v", path, args)

	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		return errors.NewExternalToolError("helper tool failed", err).WithContext("path", path).WithContext("args", args)
	}
	return nil
}

func (r *execRunner) Output(ctx context.Context, path string, args ...string) (string, error) {
	r.logger.Debugf("Querying helper tool, path: %s, args: %v", path, args)

	var stdout bytes.Buffer
	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		return "", errors.NewExternalToolError("helper tool failed", err).WithContext("path", path).WithContext("args", args)
	}

	output := strings.TrimSpace(stdout.String())
	if output == "" {
		return "", errors.NewExternalToolError("helper tool produced no output", nil).WithContext("path", path).WithContext("args", args)
	}
	return output, nil
}
