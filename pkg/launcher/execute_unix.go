//go:build !windows

package launcher

import (
	"syscall"

	"github.com/core-tools/hsu-launcher/pkg/errors"
)

// replaceProcess replaces the current process image with the target. On
// success it does not return; the launcher ceases to exist and the target
// inherits the redirected standard streams.
func replaceProcess(path string, args []string, env []string) error {
	argv := append([]string{path}, args...)
	err := syscall.Exec(path, argv, env)
	// Only reachable when exec failed
	return errors.NewLaunchError("process image replacement failed", err).WithContext("path", path)
}
