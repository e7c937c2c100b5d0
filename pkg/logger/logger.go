package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is a global logger instance, set by Init.
var Logger *zap.Logger

// Init builds the global logger for the given environment. Production gets
// JSON at info level; everything else gets colored console output at debug.
func Init(env string) error {
	log, err := newConfig(env).Build()
	if err != nil {
		return err
	}
	Logger = log
	return nil
}

func newConfig(env string) zap.Config {
	var config zap.Config
	if env == "production" {
		config = zap.NewProductionConfig()
		config.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	} else {
		config = zap.NewDevelopmentConfig()
		config.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return config
}

// Sync flushes any buffered log entries
func Sync() {
	if Logger != nil {
		_ = Logger.Sync()
	}
}

// Get returns the global logger. Packages grab it at construction time, so
// before Init runs (tests, mostly) it hands out a development logger.
func Get() *zap.Logger {
	if Logger == nil {
		log, _ := zap.NewDevelopment()
		return log
	}
	return Logger
}
