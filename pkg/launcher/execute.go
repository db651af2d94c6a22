package launcher

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/core-tools/hsu-launcher/pkg/errors"
)

// checkExecutable verifies the launch target exists and is executable. The
// launcher never chmods the target; a non-executable target is an
// unrecoverable deployment error.
func checkExecutable(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return errors.NewLaunchError("launch target not found", err).WithContext("path", path)
	}
	if info.IsDir() {
		return errors.NewLaunchError("launch target is a directory", nil).WithContext("path", path)
	}

	if runtime.GOOS == "windows" {
		ext := filepath.Ext(path)
		if ext == ".exe" || ext == ".bat" || ext == ".cmd" {
			return nil
		}
	}

	if info.Mode()&0111 == 0 {
		return errors.NewLaunchError("launch target is not executable", nil).WithContext("path", path)
	}
	return nil
}
