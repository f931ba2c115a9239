package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/term"
)

// Component names attached to log lines
const (
	AGENT      = "AGENT"
	CLEANUP    = "CLEANUP"
	CREDENTIAL = "CREDENTIAL"
	FILES      = "FILES"
	LEDGER     = "LEDGER"
	MIDDLEWARE = "MIDDLEWARE"
	SERVICE    = "SERVICE"
)

func getLogLevel() zerolog.Level {
	level := strings.ToUpper(os.Getenv("LOG_LEVEL"))
	switch level {
	case "TRACE":
		return zerolog.TraceLevel
	case "DEBUG":
		return zerolog.DebugLevel
	case "INFO":
		return zerolog.InfoLevel
	case "WARN":
		return zerolog.WarnLevel
	case "ERROR":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// Init configures the global zerolog logger. Terminals get the console
// writer, everything else gets JSON lines.
func Init(out *os.File) {
	var w io.Writer = out
	if term.IsTerminal(int(out.Fd())) {
		w = zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen}
	}
	InitWriter(w)
}

// InitWriter configures the global logger to write JSON lines to w.
func InitWriter(w io.Writer) {
	zerolog.SetGlobalLevel(getLogLevel())
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = zerolog.New(w).With().Timestamp().Logger()
}

// ApplyLevel re-reads LOG_LEVEL into the global level. Call it when the
// variable may have been set after Init, e.g. from a .env file.
func ApplyLevel() {
	zerolog.SetGlobalLevel(getLogLevel())
}

// For returns a child of the global logger tagged with a component name.
func For(component string) *zerolog.Logger {
	l := log.With().Str("component", component).Logger()
	return &l
}
