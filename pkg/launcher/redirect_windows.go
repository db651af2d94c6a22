//go:build windows

package launcher

import (
	"os"
)

// Windows has no descriptor duplication onto the standard handles that the
// spawned child would inherit the way exec does on Unix. The Go-level
// standard streams are swapped here; the spawn path in execute_windows.go
// wires the sink files into the child explicitly.
func redirectFd(source *os.File, target *os.File) error {
	switch target {
	case os.Stdout:
		os.Stdout = source
	case os.Stderr:
		os.Stderr = source
	}
	return nil
}
