// Package logging configures zerolog for the display binaries.
package logging

import (
	"io"
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Verbosity is a repeatable -v flag
type Verbosity int

func (v *Verbosity) String() string   { return strconv.Itoa(int(*v)) }
func (v *Verbosity) IsBoolFlag() bool { return true }
func (v *Verbosity) Set(string) error { *v++; return nil }

// Level returns the configured level raised by one step per -v flag:
// info, then debug, then trace. Unknown names fall back to info.
func Level(name string, verbose int) zerolog.Level {
	level, err := zerolog.ParseLevel(name)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	for ; verbose > 0 && level > zerolog.TraceLevel; verbose-- {
		level--
	}
	return level
}

// Setup returns a console logger for the named binary and installs it as
// the global logger
func Setup(service, level string, verbose int) zerolog.Logger {
	return setup(os.Stderr, service, Level(level, verbose))
}

func setup(out io.Writer, service string, level zerolog.Level) zerolog.Logger {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: out, TimeFormat: time.TimeOnly}).
		Level(level).
		With().
		Timestamp().
		Str("service", service).
		Logger()

	log.Logger = logger
	return logger
}
