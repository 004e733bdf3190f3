package logging

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
)

// DebugEnabled returns true if debug mode is enabled via HT_DEBUG environment variable
func DebugEnabled() bool {
	return os.Getenv("HT_DEBUG") != ""
}

var debugLogger = zap.NewNop().Sugar()

// SetDebugLogger routes Debugf and Debugln through the given logger.
func SetDebugLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	debugLogger = l.Sugar()
}

// Debugf logs a formatted debug message only if debug mode is enabled
func Debugf(format string, args ...interface{}) {
	if DebugEnabled() {
		debugLogger.Debugf(strings.TrimSuffix(format, "\n"), args...)
	}
}

// Debugln logs its arguments joined by spaces only if debug mode is enabled
func Debugln(args ...interface{}) {
	if DebugEnabled() {
		debugLogger.Debug(strings.TrimSuffix(fmt.Sprintln(args...), "\n"))
	}
}
