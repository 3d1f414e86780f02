package observability

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogLevel represents the log level
type LogLevel string

const (
	// Log levels
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
	LogLevelFatal LogLevel = "fatal"
)

// LoggingConfig holds configuration for logging
type LoggingConfig struct {
	Level      LogLevel
	JSONFormat bool
	OutputPath string
}

// DefaultLoggingConfig returns a default configuration for logging
func DefaultLoggingConfig() *LoggingConfig {
	return &LoggingConfig{
		Level:      LogLevelInfo,
		JSONFormat: true,
		OutputPath: "",
	}
}

// Logger provides structured logging for the trust boundary subsystem.
// All policy violations, fallback reads and request rejections flow
// through one of these so operators get a single consistent stream.
type Logger struct {
	zap           *zap.Logger
	metrics       *Metrics
	contextFields []zapcore.Field
}

// NewLogger creates a new logger
func NewLogger(cfg *LoggingConfig, metrics *Metrics) (*Logger, error) {
	if cfg == nil {
		cfg = DefaultLoggingConfig()
	}

	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		MessageKey:     "message",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	var encoder zapcore.Encoder
	if cfg.JSONFormat {
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	} else {
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	}

	var writer zapcore.WriteSyncer
	if cfg.OutputPath == "" {
		writer = zapcore.AddSync(os.Stdout)
	} else {
		file, err := os.OpenFile(cfg.OutputPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return nil, err
		}
		writer = zapcore.AddSync(file)
	}

	var zapLevel zapcore.Level
	switch cfg.Level {
	case LogLevelDebug:
		zapLevel = zapcore.DebugLevel
	case LogLevelInfo:
		zapLevel = zapcore.InfoLevel
	case LogLevelWarn:
		zapLevel = zapcore.WarnLevel
	case LogLevelError:
		zapLevel = zapcore.ErrorLevel
	case LogLevelFatal:
		zapLevel = zapcore.FatalLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	core := zapcore.NewCore(encoder, writer, zap.NewAtomicLevelAt(zapLevel))
	logger := zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1))

	return &Logger{
		zap:     logger,
		metrics: metrics,
	}, nil
}

// NewNopLogger returns a logger that discards everything. Intended for tests.
func NewNopLogger() *Logger {
	return &Logger{zap: zap.NewNop()}
}

// WithField returns a new logger with a field added to the context
func (l *Logger) WithField(key string, value interface{}) *Logger {
	if l == nil {
		return nil
	}

	contextFields := make([]zapcore.Field, len(l.contextFields)+1)
	copy(contextFields, l.contextFields)
	contextFields[len(contextFields)-1] = zap.Any(key, value)

	return &Logger{
		zap:           l.zap,
		metrics:       l.metrics,
		contextFields: contextFields,
	}
}

// WithFields returns a new logger with fields added to the context
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	if l == nil {
		return nil
	}

	contextFields := make([]zapcore.Field, len(l.contextFields)+len(fields))
	copy(contextFields, l.contextFields)

	i := len(l.contextFields)
	for k, v := range fields {
		contextFields[i] = zap.Any(k, v)
		i++
	}

	return &Logger{
		zap:           l.zap,
		metrics:       l.metrics,
		contextFields: contextFields,
	}
}

// Debug logs a debug message
func (l *Logger) Debug(msg string, fields ...zapcore.Field) {
	if l == nil {
		return
	}

	l.zap.Debug(msg, l.mergeFields(fields)...)
}

// Info logs an info message
func (l *Logger) Info(msg string, fields ...zapcore.Field) {
	if l == nil {
		return
	}

	l.zap.Info(msg, l.mergeFields(fields)...)
}

// Warn logs a warning message
func (l *Logger) Warn(msg string, fields ...zapcore.Field) {
	if l == nil {
		return
	}

	l.zap.Warn(msg, l.mergeFields(fields)...)
}

// Error logs an error message
func (l *Logger) Error(msg string, err error, fields ...zapcore.Field) {
	if l == nil {
		return
	}

	if l.metrics != nil {
		l.metrics.RecordError("application")
	}

	allFields := make([]zapcore.Field, 0, len(fields)+len(l.contextFields)+1)
	allFields = append(allFields, l.contextFields...)
	allFields = append(allFields, fields...)

	if err != nil {
		allFields = append(allFields, zap.Error(err))
	}

	l.zap.Error(msg, allFields...)
}

// Fatal logs a fatal message and exits
func (l *Logger) Fatal(msg string, err error, fields ...zapcore.Field) {
	if l == nil {
		os.Exit(1)
		return
	}

	if l.metrics != nil {
		l.metrics.RecordError("fatal")
	}

	allFields := make([]zapcore.Field, 0, len(fields)+len(l.contextFields)+1)
	allFields = append(allFields, l.contextFields...)
	allFields = append(allFields, fields...)

	if err != nil {
		allFields = append(allFields, zap.Error(err))
	}

	l.zap.Fatal(msg, allFields...)
}

// Shutdown closes the logger
func (l *Logger) Shutdown() error {
	if l == nil {
		return nil
	}

	return l.zap.Sync()
}

// mergeFields merges context fields with provided fields
func (l *Logger) mergeFields(fields []zapcore.Field) []zapcore.Field {
	if len(l.contextFields) == 0 {
		return fields
	}

	allFields := make([]zapcore.Field, 0, len(fields)+len(l.contextFields))
	allFields = append(allFields, l.contextFields...)
	allFields = append(allFields, fields...)

	return allFields
}
