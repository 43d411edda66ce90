package telemetry

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var log = newDefault()

// Init replaces the process logger. Level is a zap level name ("debug",
// "info", ...); format is "json" or "console".
func Init(level, format string) error {
	var zapLevel zapcore.Level
	if err := zapLevel.UnmarshalText([]byte(level)); err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}

	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "ts",
		LevelKey:       "level",
		MessageKey:     "msg",
		CallerKey:      "caller",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.MillisDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	var encoder zapcore.Encoder
	if format == "console" {
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	} else {
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	}

	core := zapcore.NewCore(encoder, zapcore.AddSync(os.Stdout), zapLevel)
	log = zap.New(core, zap.AddStacktrace(zapcore.ErrorLevel))
	return nil
}

func newDefault() *zap.Logger {
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{"stdout"}
	l, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return l
}

// Logger returns the process logger for callers that need a *zap.Logger.
func Logger() *zap.Logger {
	return log
}

// Info writes an info-level log line.
func Info(msg string, fields ...zap.Field) {
	log.Info(msg, fields...)
}

// Warn writes a warn-level log line.
func Warn(msg string, fields ...zap.Field) {
	log.Warn(msg, fields...)
}

// Error writes an error-level log line.
func Error(msg string, fields ...zap.Field) {
	log.Error(msg, fields...)
}

// Debug writes a debug-level log line.
func Debug(msg string, fields ...zap.Field) {
	log.Debug(msg, fields...)
}

// Sync flushes buffered log entries. Safe to call on shutdown.
func Sync() {
	_ = log.Sync()
}
