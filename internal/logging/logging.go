// Package logging configures the application logger.
//
// feedback logs to a file in the data directory by default so the
// terminal stays free for the UI; console output is opt-in for
// debugging. The log file rotates once past 5 MiB, keeping one old
// generation.
package logging

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
)

const maxLogSize = 5 * 1024 * 1024

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Options controls Setup.
type Options struct {
	Level     log.Level
	LogFile   string // empty disables the file target
	ToConsole bool   // also log to stderr
}

// Setup builds the application logger and installs it as the package
// default, so code holding no explicit logger still ends up in the
// right place. The returned closer owns the log file.
func Setup(opts Options) (*log.Logger, io.Closer, error) {
	var writers []io.Writer
	var closer io.Closer = nopCloser{}

	if opts.LogFile != "" {
		if err := os.MkdirAll(filepath.Dir(opts.LogFile), 0755); err != nil {
			return nil, nil, err
		}
		rotate(opts.LogFile)

		f, err := os.OpenFile(opts.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, nil, err
		}
		writers = append(writers, f)
		closer = f
	}
	if opts.ToConsole {
		writers = append(writers, os.Stderr)
	}
	if len(writers) == 0 {
		writers = append(writers, io.Discard)
	}

	logger := log.NewWithOptions(io.MultiWriter(writers...), log.Options{
		Level:           opts.Level,
		ReportTimestamp: true,
		TimeFormat:      time.DateTime,
	})
	log.SetDefault(logger)
	return logger, closer, nil
}

// rotate moves an oversized log aside, replacing any previous old
// generation.
func rotate(path string) {
	info, err := os.Stat(path)
	if err != nil || info.Size() <= maxLogSize {
		return
	}
	old := path + ".old"
	os.Remove(old)
	os.Rename(path, old)
}
