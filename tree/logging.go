package tree

import (
	"io"

	"github.com/rs/zerolog"
)

// logger is the package-level structured logger for tree operations. It is
// silent by default (the library should not make noise a caller didn't ask
// for); SetLogger lets a driver program route tree diagnostics into its own
// logging pipeline, in the style of optakt-flow-dps's package-level
// zerolog.Logger.
var logger = zerolog.Nop()

// SetLogger replaces the package-level logger used for structural
// diagnostics (create/remove/move events, logged at debug level). Pass
// zerolog.Nop() to silence it again.
func SetLogger(l zerolog.Logger) {
	logger = l
}

// NewLogger builds a zerolog.Logger writing to w at the given level, for
// callers who just want "log somewhere" without constructing one by hand.
func NewLogger(w io.Writer, level zerolog.Level) zerolog.Logger {
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}
