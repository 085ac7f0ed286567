// Package logging builds the zerolog logger shared by the CLI and the API server.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"

	"feeline/internal/config"
)

// Options selects level and sinks.
type Options struct {
	Level   string
	File    string
	MaxSize int
	Backups int
	MaxAge  int
	JSON    bool
	Console io.Writer
}

// FromConfig maps the log section of feeline.yml onto Options.
func FromConfig(c config.LogConfig) Options {
	return Options{
		Level:   c.Level,
		File:    c.File,
		MaxSize: c.MaxSizeMB,
		Backups: c.MaxBackups,
		MaxAge:  c.MaxAgeDays,
	}
}

// New builds a logger and installs it as the zerolog global. The returned
// closer flushes the rotating file, if any.
func New(opts Options) (zerolog.Logger, io.Closer) {
	console := opts.Console
	if console == nil {
		console = os.Stderr
	}
	var out io.Writer = console
	if !opts.JSON && isTerminal(console) {
		out = zerolog.ConsoleWriter{Out: console, TimeFormat: time.Kitchen}
	}

	var closer io.Closer = nopCloser{}
	if strings.TrimSpace(opts.File) != "" {
		file := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    opts.MaxSize,
			MaxBackups: opts.Backups,
			MaxAge:     opts.MaxAge,
			Compress:   true,
		}
		out = zerolog.MultiLevelWriter(out, file)
		closer = file
	}

	logger := zerolog.New(out).Level(ParseLevel(opts.Level)).With().Timestamp().Logger()
	log.Logger = logger
	return logger, closer
}

// ParseLevel falls back to info for empty or unknown levels.
func ParseLevel(level string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
