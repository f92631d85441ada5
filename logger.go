package m2c2

import (
	"sync/atomic"

	"go.uber.org/zap"
)

var loggerPtr atomic.Pointer[zap.Logger]

func init() {
	loggerPtr.Store(zap.NewNop())
}

// SetLogger sets the logger used by the package. The package is silent
// until a logger is set. Passing nil restores the no-op logger.
func SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	loggerPtr.Store(l)
}

// Logger returns the package logger.
func Logger() *zap.Logger {
	return loggerPtr.Load()
}

func logger() *zap.Logger {
	return loggerPtr.Load()
}
