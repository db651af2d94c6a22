package launcher

import (
	"os"
	"path/filepath"

	"github.com/core-tools/hsu-launcher/pkg/errors"
)

// LogSink is the pair of append-only files capturing the service's standard
// output and standard error. Rotation is external (the files are reopened by
// nobody here); the descriptors stay open for the remaining life of the
// process and are inherited by the exec'd image, so nothing written after
// Redirect is lost. The OS reclaims them at service shutdown.
type LogSink struct {
	StdoutPath string
	StderrPath string

	stdoutFile *os.File
	stderrFile *os.File
}

// NewLogSink derives the sink pair for a service. The derivation is pure and
// deterministic: the same logDir and baseName always yield the same pair.
func NewLogSink(logDir string, baseName string) *LogSink {
	return &LogSink{
		StdoutPath: filepath.Join(logDir, baseName+".out.log"),
		StderrPath: filepath.Join(logDir, baseName+".err.log"),
	}
}

// Open creates the log directory and opens both files for append.
func (s *LogSink) Open() error {
	if s.stdoutFile != nil {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(s.StdoutPath), 0755); err != nil {
		return errors.NewIOError("failed to create log directory", err).WithContext("path", filepath.Dir(s.StdoutPath))
	}

	stdoutFile, err := os.OpenFile(s.StdoutPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return errors.NewIOError("failed to open stdout log", err).WithContext("path", s.StdoutPath)
	}

	stderrFile, err := os.OpenFile(s.StderrPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		stdoutFile.Close()
		return errors.NewIOError("failed to open stderr log", err).WithContext("path", s.StderrPath)
	}

	s.stdoutFile = stdoutFile
	s.stderrFile = stderrFile
	return nil
}

// Redirect points the process's stdout and stderr file descriptors at the
// sink, opening it first if needed. Must complete strictly before launch;
// the exec'd image inherits the redirected descriptors.
func (s *LogSink) Redirect() error {
	if err := s.Open(); err != nil {
		return err
	}
	if err := redirectFd(s.stdoutFile, os.Stdout); err != nil {
		return errors.NewIOError("failed to redirect stdout", err).WithContext("path", s.StdoutPath)
	}
	if err := redirectFd(s.stderrFile, os.Stderr); err != nil {
		return errors.NewIOError("failed to redirect stderr", err).WithContext("path", s.StderrPath)
	}
	return nil
}

// Files returns the open sink files, or nil before Open.
func (s *LogSink) Files() (*os.File, *os.File) {
	return s.stdoutFile, s.stderrFile
}
