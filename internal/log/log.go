package log

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

type Level string

const (
	DebugLevel Level = "debug"
	InfoLevel  Level = "info"
)

// Logger is the printf-style logger passed through the training pipeline.
type Logger interface {
	Trace(format string, v ...interface{})
	Debug(format string, v ...interface{})
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})

	SetLevel(level string)
	SetOutput(out io.Writer)
	GetOutput() io.Writer
}

type LoggerImpl struct {
	mu sync.Mutex
	l  *logrus.Logger
}

var (
	defaultLogger     *LoggerImpl
	defaultLoggerInit sync.Once
)

func New() *LoggerImpl {
	l := &LoggerImpl{l: logrus.New()}
	l.l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	l.SetLevel(string(InfoLevel))
	return l
}

// Default returns the process-wide logger, creating it on first use.
func Default() *LoggerImpl {
	defaultLoggerInit.Do(func() {
		defaultLogger = New()
	})
	return defaultLogger
}

func (l *LoggerImpl) decorate(skip int) *logrus.Entry {
	pc, file, line, ok := runtime.Caller(skip)
	if !ok {
		return logrus.NewEntry(l.l)
	}
	path := strings.Split(file, string(os.PathSeparator))
	if len(path) > 2 {
		path = path[len(path)-2:]
	}
	fName := runtime.FuncForPC(pc).Name()
	if i := strings.LastIndex(fName, "/"); i >= 0 {
		fName = fName[i+1:]
	}
	return l.l.WithField("position", fmt.Sprintf("%s:%d", strings.Join(path, "/"), line)).
		WithField("func", fName)
}

func (l *LoggerImpl) Trace(format string, v ...interface{}) {
	l.decorate(2).Tracef(format, v...)
}

func (l *LoggerImpl) Debug(format string, v ...interface{}) {
	l.decorate(2).Debugf(format, v...)
}

func (l *LoggerImpl) Info(format string, v ...interface{}) {
	l.decorate(2).Infof(format, v...)
}

func (l *LoggerImpl) Warn(format string, v ...interface{}) {
	l.decorate(2).Warnf(format, v...)
}

func (l *LoggerImpl) Error(format string, v ...interface{}) {
	l.decorate(2).Errorf(format, v...)
}

// SetLevel accepts trace, debug, info, warn or error. Anything else means info.
func (l *LoggerImpl) SetLevel(level string) {
	lvl, err := logrus.ParseLevel(strings.ToLower(level))
	if err != nil {
		lvl = logrus.InfoLevel
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.l.SetLevel(lvl)
}

func (l *LoggerImpl) GetLevel() Level {
	l.mu.Lock()
	defer l.mu.Unlock()
	return Level(l.l.GetLevel().String())
}

func (l *LoggerImpl) SetOutput(out io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.l.SetOutput(out)
}

func (l *LoggerImpl) GetOutput() io.Writer {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.l.Out
}

// Discard returns a logger that drops everything. Tests use it.
func Discard() *LoggerImpl {
	l := New()
	l.SetOutput(io.Discard)
	return l
}
