package log

import (
	"go.uber.org/zap"
)

// L is the process-wide logger, set once by Init at startup.
var L *zap.Logger = zap.NewNop()

// Init builds the process logger. prod selects the JSON production encoder;
// otherwise the human-readable development encoder is used.
func Init(prod bool) (*zap.Logger, error) {
	var (
		l   *zap.Logger
		err error
	)
	if prod {
		l, err = zap.NewProduction()
	} else {
		l, err = zap.NewDevelopment()
	}
	if err != nil {
		return nil, err
	}
	L = l
	return l, nil
}

// Sync flushes buffered log entries. Safe to call on shutdown.
func Sync() {
	_ = L.Sync()
}
