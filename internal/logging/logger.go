package logging

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

var stderr io.Writer = os.Stderr

// New builds the process logger. Dev gets the console writer, everything
// else gets JSON lines on stdout.
func New(env, component string) zerolog.Logger {
	var out io.Writer = os.Stdout
	if env == "dev" {
		out = zerolog.ConsoleWriter{Out: os.Stdout}
	}
	return build(out, component)
}

// Bootstrap logs to stderr for failures that happen before the config
// is loaded.
func Bootstrap(component string) zerolog.Logger {
	return build(stderr, component)
}

func build(out io.Writer, component string) zerolog.Logger {
	return zerolog.New(out).With().Timestamp().Str("component", component).Logger()
}
