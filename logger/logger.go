package logger

import (
	"go.uber.org/zap"
)

// Log is the process-wide logger. It discards everything until Init or
// InitDevelopment is called, so packages can log from tests without setup.
var Log = zap.NewNop().Sugar()

// Init installs a production (JSON) logger.
func Init() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic("failed to initialize zap logger: " + err.Error())
	}
	Log = logger.Sugar()
}

// InitDevelopment installs a human readable console logger, used by the
// terminal client.
func InitDevelopment() {
	logger, err := zap.NewDevelopment()
	if err != nil {
		panic("failed to initialize zap logger: " + err.Error())
	}
	Log = logger.Sugar()
}

// Sync flushes buffered log entries.
func Sync() {
	_ = Log.Sync()
}
