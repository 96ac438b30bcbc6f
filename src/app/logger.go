package app

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

func InitLogger(levelStr string) zerolog.Logger {
	return NewLogger(os.Stdout, levelStr)
}

// NewLogger builds a console logger writing to out. The CLI logs to stderr so
// command output stays on stdout.
func NewLogger(out io.Writer, levelStr string) zerolog.Logger {
	// Set global log level
	level, err := zerolog.ParseLevel(levelStr)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	// Add color and formatting
	output := zerolog.ConsoleWriter{
		Out:        out,
		NoColor:    out != os.Stdout,
		TimeFormat: "2006-01-02 15:04:05",
	}

	logger := zerolog.New(output).With().
		Timestamp().
		Logger()

	return logger
}
