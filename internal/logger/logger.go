// Package logger is the process-wide diagnostic logger. Report output goes to stdout
// through the commands; diagnostics go to stderr so the two never interleave in pipes.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

var logger zerolog.Logger

func init() {
	SetOutput(os.Stderr)
	SetLevel("info")
}

// SetOutput redirects log output (tests use a buffer).
func SetOutput(w io.Writer) {
	_, isFile := w.(*os.File)
	writer := zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: time.RFC3339,
		NoColor:    !isFile,
	}
	logger = zerolog.New(writer).With().Timestamp().Logger()
}

// SetLevel sets the minimum level by name (debug, info, warn, error). Unknown names mean info.
func SetLevel(level string) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
}

// Level returns the active level name.
func Level() string {
	return zerolog.GlobalLevel().String()
}

func Info(msg string) {
	logger.Info().Msg(msg)
}

func Infof(format string, args ...interface{}) {
	logger.Info().Msgf(format, args...)
}

func Warn(msg string) {
	logger.Warn().Msg(msg)
}

func Warnf(format string, args ...interface{}) {
	logger.Warn().Msgf(format, args...)
}

func Error(msg string) {
	logger.Error().Msg(msg)
}

func Errorf(format string, args ...interface{}) {
	logger.Error().Msgf(format, args...)
}

func Debug(msg string) {
	logger.Debug().Msg(msg)
}

func Debugf(format string, args ...interface{}) {
	logger.Debug().Msgf(format, args...)
}

// Step logs the start of a pipeline step with its input and output.
func Step(name, in, out string) {
	logger.Info().Str("step", name).Str("in", in).Str("out", out).Msg("step started")
}

// Printer adapts the logger to the Printf/Fatalf interface that libraries such as goose
// accept. Printf lines are logged at debug level.
type Printer struct{}

func (Printer) Printf(format string, args ...interface{}) {
	logger.Debug().Msg(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (Printer) Fatalf(format string, args ...interface{}) {
	logger.Fatal().Msg(strings.TrimSpace(fmt.Sprintf(format, args...)))
}
