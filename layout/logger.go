package layout

import (
	"sync/atomic"

	"go.uber.org/zap"
)

var logger atomic.Pointer[zap.Logger]

// Logger returns the logger shared by the bitpack packages. Resolution,
// schema compilation and WIT conversion log at debug level. It is a no-op
// logger until SetLogger is called.
func Logger() *zap.Logger {
	if l := logger.Load(); l != nil {
		return l
	}
	return zap.NewNop()
}

// SetLogger replaces the shared logger; nil restores the no-op logger.
// Entries are tagged with the "bitpack" logger name.
func SetLogger(l *zap.Logger) {
	if l == nil {
		logger.Store(nil)
		return
	}
	logger.Store(l.Named("bitpack"))
}
