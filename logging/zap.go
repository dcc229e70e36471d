package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type zapLogger struct {
	sugar *zap.SugaredLogger
}

// NewZapLogger builds the host's diagnostic logger. Debug-level messages are only
// emitted when verbose is true.
func NewZapLogger(verbose bool) (Logger, func(), error) {
	config := zap.NewProductionConfig()
	config.Encoding = "console"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if verbose {
		config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	logger, err := config.Build()
	if err != nil {
		return nil, nil, err
	}
	return WrapZap(logger), func() { _ = logger.Sync() }, nil
}

// WrapZap adapts an existing zap logger. Messages are logged at debug level.
func WrapZap(logger *zap.Logger) Logger {
	return zapLogger{sugar: logger.Sugar()}
}

func (l zapLogger) Printf(message string, args ...interface{}) {
	l.sugar.Debugf(message, args...)
}
