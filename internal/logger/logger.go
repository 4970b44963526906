package logger

import (
	"context"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	// bytesInMegabyte converts byte limits into lumberjack's megabyte units.
	bytesInMegabyte = 1024 * 1024
	// defaultLogBackups is the number of rotated log files kept on disk.
	defaultLogBackups = 3
)

// contextFieldsKey is the context key under which key-value log fields are stored.
type contextFieldsKey struct{}

var (
	//nolint:gochecknoglobals // The level is shared by every logger created by this package.
	globalLevel = zap.NewAtomicLevelAt(zapcore.InfoLevel)

	//nolint:gochecknoglobals // Process-wide logger, replaced only through SetLogger.
	globalLogger *zap.SugaredLogger

	//nolint:gochecknoglobals // Guards globalLogger.
	globalLoggerMutex sync.RWMutex
)

//nolint:gochecknoinits // The logger must be usable before configuration is loaded.
func init() {
	globalLogger = New(globalLevel)
}

// New creates a console logger writing to stdout.
// A nil level falls back to the package-wide atomic level.
// Extra cores (for example a file sink) receive the same entries.
func New(level zapcore.LevelEnabler, extraCores ...zapcore.Core) *zap.SugaredLogger {
	if level == nil {
		level = globalLevel
	}

	encoderConfig := zap.NewDevelopmentEncoderConfig()
	encoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
	encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	encoderConfig.EncodeCaller = nil
	encoderConfig.CallerKey = ""

	core := newConsoleCore(zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfig),
		zapcore.Lock(os.Stdout),
		level,
	))

	if len(extraCores) > 0 {
		core = zapcore.NewTee(append([]zapcore.Core{core}, extraCores...)...)
	}

	return zap.New(core).Sugar()
}

// consoleCore ignores fields attached with With, so context fields only reach the file sink.
// Fields passed with a single entry are still printed.
type consoleCore struct {
	zapcore.Core
}

func newConsoleCore(core zapcore.Core) zapcore.Core {
	return &consoleCore{Core: core}
}

func (c *consoleCore) With([]zapcore.Field) zapcore.Core {
	return c
}

// NewFileCore creates a JSON core that writes to a size-rotated log file.
func NewFileCore(level zapcore.LevelEnabler, filename string, maxSizeBytes int) zapcore.Core {
	if level == nil {
		level = globalLevel
	}

	maxSizeMegabytes := max(maxSizeBytes/bytesInMegabyte, 1)

	//nolint:exhaustruct // Remaining lumberjack options keep their defaults.
	writer := &lumberjack.Logger{
		Filename:   filename,
		MaxSize:    maxSizeMegabytes,
		MaxBackups: defaultLogBackups,
	}

	return zapcore.NewCore(
		zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
		zapcore.AddSync(writer),
		level,
	)
}

// ParseLogLevel converts a textual level into a zap level.
// The second value reports whether the text was recognized.
func ParseLogLevel(value string) (zapcore.Level, bool) {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return zapcore.InfoLevel, false
	}

	level, err := zapcore.ParseLevel(value)
	if err != nil {
		return zapcore.InfoLevel, false
	}

	return level, true
}

// Level returns the current package-wide level.
func Level() zapcore.Level {
	return globalLevel.Level()
}

// SetLevel changes the package-wide level.
func SetLevel(level zapcore.Level) {
	globalLevel.SetLevel(level)
}

// Logger returns the process-wide logger.
func Logger() *zap.SugaredLogger {
	globalLoggerMutex.RLock()
	defer globalLoggerMutex.RUnlock()

	return globalLogger
}

// SetLogger replaces the process-wide logger.
func SetLogger(logger *zap.SugaredLogger) {
	globalLoggerMutex.Lock()
	defer globalLoggerMutex.Unlock()

	globalLogger = logger
}

// WithKV returns a context whose log entries carry the given key-value pairs.
func WithKV(ctx context.Context, keysAndValues ...any) context.Context {
	existing := fieldsFromContext(ctx)

	fields := make([]any, 0, len(existing)+len(keysAndValues))
	fields = append(fields, existing...)
	fields = append(fields, keysAndValues...)

	return context.WithValue(ctx, contextFieldsKey{}, fields)
}

func fieldsFromContext(ctx context.Context) []any {
	if ctx == nil {
		return nil
	}

	fields, _ := ctx.Value(contextFieldsKey{}).([]any)

	return fields
}

func fromContext(ctx context.Context) *zap.SugaredLogger {
	logger := Logger()

	if fields := fieldsFromContext(ctx); len(fields) > 0 {
		return logger.With(fields...)
	}

	return logger
}

// Debugf logs a formatted message at debug level.
func Debugf(ctx context.Context, format string, args ...any) {
	fromContext(ctx).Debugf(format, args...)
}

// Info logs a message at info level.
func Info(ctx context.Context, args ...any) {
	fromContext(ctx).Info(args...)
}

// Infof logs a formatted message at info level.
func Infof(ctx context.Context, format string, args ...any) {
	fromContext(ctx).Infof(format, args...)
}

// Warn logs a message at warn level.
func Warn(ctx context.Context, args ...any) {
	fromContext(ctx).Warn(args...)
}

// Warnf logs a formatted message at warn level.
func Warnf(ctx context.Context, format string, args ...any) {
	fromContext(ctx).Warnf(format, args...)
}

// Errorf logs a formatted message at error level.
func Errorf(ctx context.Context, format string, args ...any) {
	fromContext(ctx).Errorf(format, args...)
}

// Fatal logs a message at fatal level and exits the process.
func Fatal(ctx context.Context, args ...any) {
	fromContext(ctx).Fatal(args...)
}

// Fatalf logs a formatted message at fatal level and exits the process.
func Fatalf(ctx context.Context, format string, args ...any) {
	fromContext(ctx).Fatalf(format, args...)
}
