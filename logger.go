package slots

import "go.uber.org/zap"

// Level is the severity of a chain log record. Routing and formatting belong
// to the Logger implementation; the chain only picks the severity.
type Level int8

const (
	DebugLevel Level = iota - 1
	InfoLevel
	WarnLevel
	ErrorLevel
)

// Logger is the leveled printf-style sink the interception chain logs
// through. The chain never inspects how records are routed or formatted.
type Logger interface {
	Log(level Level, msg string, args ...any)
}

// LoggerFunc adapts a plain function to Logger.
type LoggerFunc func(level Level, msg string, args ...any)

// Log implements Logger.
func (f LoggerFunc) Log(level Level, msg string, args ...any) {
	if f != nil {
		f(level, msg, args...)
	}
}

type nopLogger struct{}

func (nopLogger) Log(Level, string, ...any) {}

// NopLogger discards every record.
var NopLogger Logger = nopLogger{}

// ZapLogger adapts a zap sugared logger to the Logger contract.
type ZapLogger struct {
	sugar *zap.SugaredLogger
}

// NewZapLogger wraps sugar. A nil sugar yields a logger that discards
// everything.
func NewZapLogger(sugar *zap.SugaredLogger) ZapLogger {
	if sugar == nil {
		sugar = zap.NewNop().Sugar()
	}
	return ZapLogger{sugar: sugar}
}

// Log implements Logger.
func (z ZapLogger) Log(level Level, msg string, args ...any) {
	switch level {
	case DebugLevel:
		z.sugar.Debugf(msg, args...)
	case InfoLevel:
		z.sugar.Infof(msg, args...)
	case WarnLevel:
		z.sugar.Warnf(msg, args...)
	default:
		z.sugar.Errorf(msg, args...)
	}
}

// ownerLogger resolves the logging sink for owner, falling back to NopLogger
// when the owner carries none.
func ownerLogger(owner Owner) Logger {
	if h, ok := owner.(HasLogger); ok {
		if logger := h.Logger(); logger != nil {
			return logger
		}
	}
	return NopLogger
}
