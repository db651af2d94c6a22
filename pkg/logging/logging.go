package logging

// Logger is the minimal logging surface the launcher packages depend on.
// Implementations must be safe to use before log redirection is established,
// which means the default backend writes to the inherited stderr.
type Logger interface {
	Debugf(msg string, args ...interface{})
	Infof(msg string, args ...interface{})
	Warnf(msg string, args ...interface{})
	Errorf(msg string, args ...interface{})
}

type LogFunc func(format string, args ...interface{})

type LogFuncs struct {
	Debugf LogFunc
	Infof  LogFunc
	Warnf  LogFunc
	Errorf LogFunc
}

type funcLogger struct {
	prefix string
	funcs  LogFuncs
}

// NewLogger wraps a set of log functions into a Logger, prepending prefix to
// every message. Nil functions silently drop their level.
func NewLogger(prefix string, funcs LogFuncs) Logger {
	return &funcLogger{
		prefix: prefix,
		funcs:  funcs,
	}
}

func (l *funcLogger) emit(fn LogFunc, msg string, args ...interface{}) {
	if fn == nil {
		return
	}
	if l.prefix != "" {
		msg = l.prefix + msg
	}
	fn(msg, args...)
}

func (l *funcLogger) Debugf(msg string, args ...interface{}) {
	l.emit(l.funcs.Debugf, msg, args...)
}

func (l *funcLogger) Infof(msg string, args ...interface{}) {
	l.emit(l.funcs.Infof, msg, args...)
}

func (l *funcLogger) Warnf(msg string, args ...interface{}) {
	l.emit(l.funcs.Warnf, msg, args...)
}

func (l *funcLogger) Errorf(msg string, args ...interface{}) {
	l.emit(l.funcs.Errorf, msg, args...)
}

type nopLogger struct{}

func (nopLogger) Debugf(msg string, args ...interface{}) {}
func (nopLogger) Infof(msg string, args ...interface{})  {}
func (nopLogger) Warnf(msg string, args ...interface{})  {}
func (nopLogger) Errorf(msg string, args ...interface{}) {}

// NewNopLogger returns a Logger that discards everything.
func NewNopLogger() Logger {
	return nopLogger{}
}
