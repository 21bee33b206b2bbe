package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds the service logger. Level is one of "debug", "info", "warn",
// "error" (default info); format "console" switches to the development encoder,
// anything else produces production JSON on stdout.
func New(level, format, serviceName string) (*zap.Logger, error) {
	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	var config zap.Config
	if format == "console" {
		config = zap.NewDevelopmentConfig()
	} else {
		config = zap.NewProductionConfig()
		config.EncoderConfig.TimeKey = "timestamp"
		config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		config.OutputPaths = []string{"stdout"}
		config.ErrorOutputPaths = []string{"stderr"}
	}
	config.Level = zap.NewAtomicLevelAt(zapLevel)

	base, err := config.Build()
	if err != nil {
		return nil, err
	}
	if serviceName != "" {
		base = base.With(zap.String("service", serviceName))
	}
	if hostname, err := os.Hostname(); err == nil && hostname != "" {
		base = base.With(zap.String("hostname", hostname))
	}
	return base, nil
}

// FromEnv builds the logger from LOG_LEVEL and LOG_FORMAT.
func FromEnv(serviceName string) (*zap.Logger, error) {
	return New(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"), serviceName)
}
