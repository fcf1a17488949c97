package logger

import (
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger wraps zap's SugaredLogger.
type Logger struct {
	*zap.SugaredLogger
}

// Unknown levels log everything.
const defaultZapLevel = zapcore.DebugLevel

func toZapLevel(level string) zapcore.Level {
	switch normalize(level) {
	case InfoLevel:
		return zapcore.InfoLevel
	case WarnLevel:
		return zapcore.WarnLevel
	case ErrorLevel:
		return zapcore.ErrorLevel
	default:
		return defaultZapLevel
	}
}

// newEncoder returns a JSON encoder for log shippers and a console encoder
// otherwise. Timestamps are RFC 3339 under "ts" in both.
func newEncoder(format string) zapcore.Encoder {
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "ts"
	cfg.EncodeTime = zapcore.RFC3339TimeEncoder
	if normalize(format) == FormatJSON {
		cfg.EncodeLevel = zapcore.LowercaseLevelEncoder
		return zapcore.NewJSONEncoder(cfg)
	}
	cfg.EncodeLevel = zapcore.CapitalLevelEncoder
	return zapcore.NewConsoleEncoder(cfg)
}

func newCore(opts Options, w io.Writer) zapcore.Core {
	ws := zapcore.Lock(zapcore.AddSync(w))
	return zapcore.NewCore(newEncoder(opts.Format), ws, zap.NewAtomicLevelAt(toZapLevel(opts.Level)))
}

// newZapLogger logs to stdout. Entries carry the caller so a relay or sensor
// failure can be traced from the journal.
func newZapLogger(opts Options) *Logger {
	return newLoggerTo(opts, os.Stdout)
}

func newLoggerTo(opts Options, w io.Writer) *Logger {
	z := zap.New(newCore(opts, w), zap.AddCaller(), zap.AddStacktrace(zapcore.DPanicLevel))
	return &Logger{SugaredLogger: z.Sugar()}
}

// Named returns a child logger tagged with the given component name.
func (l *Logger) Named(component string) *Logger {
	return &Logger{SugaredLogger: l.SugaredLogger.Named(component)}
}

// With returns a child logger carrying the given key/value pairs.
func (l *Logger) With(kv ...any) *Logger {
	return &Logger{SugaredLogger: l.SugaredLogger.With(kv...)}
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return &Logger{SugaredLogger: zap.NewNop().Sugar()}
}
