// logging/logger.go

package logging

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var Log *zap.Logger

// InitLogger configures the global logger. logDirPath may be empty, in
// which case output goes to stdout/stderr only.
func InitLogger(logDirPath string) {
	config := zap.NewProductionConfig()

	if logLevel := os.Getenv("LOG_LEVEL"); logLevel != "" {
		if level, err := zapcore.ParseLevel(logLevel); err == nil {
			config.Level.SetLevel(level)
		}
	}

	config.OutputPaths = []string{"stdout"}
	config.ErrorOutputPaths = []string{"stderr"}

	if logDirPath != "" {
		logFilePath := logDirPath + "/weave.log"
		if _, err := os.Stat(logFilePath); os.IsNotExist(err) {
			file, err := os.Create(logFilePath)
			if err != nil {
				panic(err)
			}
			file.Close()
		}
		errorFilePath := logDirPath + "/weave_error.log"
		config.OutputPaths = append(config.OutputPaths, logFilePath)
		config.ErrorOutputPaths = append(config.ErrorOutputPaths, errorFilePath)
	}

	config.EncoderConfig.CallerKey = "caller"
	config.EncoderConfig.StacktraceKey = "stacktrace"
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	var err error
	Log, err = config.Build(zap.AddCallerSkip(1))
	if err != nil {
		panic(err)
	}

	zap.ReplaceGlobals(Log)
}

// Log methods for different levels
func Info(msg string, fields ...zap.Field) {
	logger().Info(msg, fields...)
}

func Error(msg string, fields ...zap.Field) {
	logger().Error(msg, fields...)
}

func Debug(msg string, fields ...zap.Field) {
	logger().Debug(msg, fields...)
}

func Warn(msg string, fields ...zap.Field) {
	logger().Warn(msg, fields...)
}

func Fatal(msg string, fields ...zap.Field) {
	logger().Fatal(msg, fields...)
}

// WithContext adds context fields to the logger
func WithContext(fields ...zap.Field) *zap.Logger {
	return logger().With(fields...)
}

func Sync() error {
	return logger().Sync()
}

func logger() *zap.Logger {
	if Log == nil {
		Log = zap.NewNop()
	}
	return Log
}
