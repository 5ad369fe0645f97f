// Package stdlogger adapts the global zerolog logger to printf style logger interfaces
// such as the one gorm expects.
package stdlogger

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
)

// Logger forwards printf style calls to zerolog.
type Logger struct{}

// New returns a Logger writing to the global zerolog logger.
func New() *Logger {
	return &Logger{}
}

// Debugf logs at debug level.
func (Logger) Debugf(format string, args ...any) {
	log.Debug().Msg(fmt.Sprintf(format, args...))
}

// Infof logs at info level.
func (Logger) Infof(format string, args ...any) {
	log.Info().Msg(fmt.Sprintf(format, args...))
}

// Warningf logs at warn level.
func (Logger) Warningf(format string, args ...any) {
	log.Warn().Msg(fmt.Sprintf(format, args...))
}

// Errorf logs at error level.
func (Logger) Errorf(format string, args ...any) {
	log.Error().Msg(fmt.Sprintf(format, args...))
}

// Printf implements gorm's logger.Writer. gorm prefixes its messages with
// the level in brackets, which is mapped back to a zerolog level.
func (l Logger) Printf(format string, args ...any) {
	msg := strings.TrimSpace(fmt.Sprintf(format, args...))

	switch {
	case strings.Contains(msg, "[error]"):
		l.Errorf("%s", msg)
	case strings.Contains(msg, "[warn]"), strings.Contains(msg, "SLOW SQL"):
		l.Warningf("%s", msg)
	case strings.Contains(msg, "[info]"):
		l.Infof("%s", msg)
	default:
		l.Debugf("%s", msg)
	}
}
