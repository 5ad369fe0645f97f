package logger

import (
	"errors"
	"fmt"
	"os"
)

var (
	// ErrUnsupportedLogLevel is returned for a Log.LogLevel zerolog does not know.
	ErrUnsupportedLogLevel = errors.New("unsupported log level")

	// ErrAppNameIsEmpty is returned if Log.AppName was not defined.
	ErrAppNameIsEmpty = errors.New("config Log.AppName can not be empty")

	// ErrServiceNameIsEmpty is returned if Log.ServiceName was not defined.
	ErrServiceNameIsEmpty = errors.New("config Log.ServiceName can not be empty")
)

// ErrorHandler reports writer failures of zerolog on stderr.
func ErrorHandler(err error) {
	_, _ = fmt.Fprintf(os.Stderr, "zerolog: could not write event: %v\n", err)
}
