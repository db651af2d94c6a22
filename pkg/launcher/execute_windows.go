//go:build windows

package launcher

import (
	"os"
	"os/exec"
	"os/signal"

	"github.com/core-tools/hsu-launcher/pkg/errors"
)

// replaceProcess emulates process replacement on Windows: spawn the target
// with the launcher's streams and environment, forward signals, and exit
// with the target's exit code. From the supervising entity's perspective the
// launcher and the target never coexist as distinct logical processes.
func replaceProcess(path string, args []string, env []string) error {
	cmd := exec.Command(path, args...)
	cmd.Env = env
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		return errors.NewLaunchError("failed to start launch target", err).WithContext("path", path)
	}

	signals := make(chan os.Signal, 1)
	signal.Notify(signals)
	go func() {
		for sig := range signals {
			cmd.Process.Signal(sig)
		}
	}()

	err := cmd.Wait()
	if exitErr, ok := err.(*exec.ExitError); ok {
		os.Exit(exitErr.ExitCode())
	}
	if err != nil {
		return errors.NewLaunchError("launch target failed", err).WithContext("path", path)
	}
	os.Exit(0)
	return nil
}
