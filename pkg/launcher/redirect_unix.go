//go:build !windows && !linux

package launcher

import (
	"os"
	"syscall"
)

func redirectFd(source *os.File, target *os.File) error {
	return syscall.Dup2(int(source.Fd()), int(target.Fd()))
}
