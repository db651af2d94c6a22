//go:build linux

package launcher

import (
	"os"
	"syscall"
)

// redirectFd points target's descriptor at source's file. Linux has no dup2
// on newer architectures, so dup3 is used throughout.
func redirectFd(source *os.File, target *os.File) error {
	return syscall.Dup3(int(source.Fd()), int(target.Fd()), 0)
}
