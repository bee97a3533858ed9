package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/pkgerrors"
)

var (
	// Log is the global logger instance. The console report goes to stdout;
	// logs go to stderr so they can be separated.
	Log zerolog.Logger
)

func init() {
	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack
	zerolog.TimeFieldFormat = time.RFC3339Nano

	Log = newLogger(os.Stderr, zerolog.WarnLevel)
}

func newLogger(w io.Writer, level zerolog.Level) zerolog.Logger {
	output := zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: "2006-01-02 15:04:05",
	}
	return zerolog.New(output).
		Level(level).
		With().
		Timestamp().
		Logger()
}

// SetLevel sets the log level. Invalid levels fall back to warn.
func SetLevel(levelStr string) {
	if levelStr == "" {
		return
	}
	level, err := zerolog.ParseLevel(levelStr)
	if err != nil {
		Log.Warn().Str("level", levelStr).Msg("invalid log level, defaulting to warn")
		level = zerolog.WarnLevel
	}
	Log = Log.Level(level)
}

// SetOutput redirects logs (for testing).
func SetOutput(w io.Writer) {
	Log = newLogger(w, Log.GetLevel())
}
