package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/golang-cz/devslog"
	"github.com/mattn/go-isatty"
)

var ErrInvalidLogLevel = errors.New("invalid log level")

// newLogger writes human readable logs when w is a terminal and JSON lines
// otherwise. Debug logs carry their source location.
func newLogger(w *os.File, level string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidLogLevel, level)
	}

	opts := &slog.HandlerOptions{
		Level:     lvl,
		AddSource: lvl <= slog.LevelDebug,
	}

	if isatty.IsTerminal(w.Fd()) {
		return slog.New(devslog.NewHandler(w, &devslog.Options{
			HandlerOptions: opts,
		})), nil
	}
	return slog.New(slog.NewJSONHandler(w, opts)), nil
}

// initLogger installs the process logger. Logs go to stderr, stdout is left
// to client command output.
func initLogger(level string) error {
	logger, err := newLogger(os.Stderr, level)
	if err != nil {
		return err
	}

	slog.SetDefault(logger.With("app", "nunc", "version", VERSION))
	return nil
}
