package logger

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
)

type LogLevel int

const LEVEL_TRACE LogLevel = 5
const LEVEL_DEBUG LogLevel = 4
const LEVEL_INFO LogLevel = 3
const LEVEL_WARN LogLevel = 2
const LEVEL_ERROR LogLevel = 1

type Logger struct {
	name string
}

func (l *Logger) doLog(severity string, msg string) {
	GetLogManager().output().Printf("%s - %s - %s\n", severity, l.name, msg)
}

func SetLogLevel(level LogLevel) {
	GetLogManager().currentLogLevel.Store(level)
}

// SetOutput redirects all loggers, e.g. into a buffer inside tests.
func SetOutput(w io.Writer) {
	GetLogManager().out.Store(log.New(w, "", log.LstdFlags))
}

// StringToLevel parses a level name, ignoring letter case and surrounding blanks.
func StringToLevel(level string) (LogLevel, error) {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "TRACE":
		return LEVEL_TRACE, nil
	case "DEBUG":
		return LEVEL_DEBUG, nil
	case "INFO":
		return LEVEL_INFO, nil
	case "WARN":
		return LEVEL_WARN, nil
	case "ERROR":
		return LEVEL_ERROR, nil
	default:
		return LEVEL_INFO, errors.New("Invalid log level string: '" + level + "', valid choices are TRACE, DEBUG, INFO, WARN, ERROR")
	}
}

func (l LogLevel) String() string {
	switch l {
	case LEVEL_TRACE:
		return "TRACE"
	case LEVEL_DEBUG:
		return "DEBUG"
	case LEVEL_INFO:
		return "INFO"
	case LEVEL_WARN:
		return "WARN"
	case LEVEL_ERROR:
		return "ERROR"
	default:
		panic("Unhandled log level: " + strconv.Itoa(int(l)))
	}
}

func GetLogLevel() LogLevel {
	return GetLogManager().currentLogLevel.Load().(LogLevel)
}

func (l *Logger) Name() string {
	return l.name
}

func (l *Logger) IsTraceEnabled() bool {
	return GetLogLevel() >= LEVEL_TRACE
}

func (l *Logger) IsDebugEnabled() bool {
	return GetLogLevel() >= LEVEL_DEBUG
}

func (l *Logger) IsInfoEnabled() bool {
	return GetLogLevel() >= LEVEL_INFO
}

func (l *Logger) IsWarnEnabled() bool {
	return GetLogLevel() >= LEVEL_WARN
}

func (l *Logger) IsErrorEnabled() bool {
	return GetLogLevel() >= LEVEL_ERROR
}

func (l *Logger) Trace(msg string) {
	if l.IsTraceEnabled() {
		l.doLog("TRACE", msg)
	}
}

func (l *Logger) Debug(msg string) {
	if l.IsDebugEnabled() {
		l.doLog("DEBUG", msg)
	}
}

// Debugf only formats its arguments when DEBUG is enabled.
func (l *Logger) Debugf(format string, args ...any) {
	if l.IsDebugEnabled() {
		l.doLog("DEBUG", fmt.Sprintf(format, args...))
	}
}

func (l *Logger) Info(msg string) {
	if l.IsInfoEnabled() {
		l.doLog("INFO", msg)
	}
}

func (l *Logger) Warn(msg string) {
	if l.IsWarnEnabled() {
		l.doLog("WARN", msg)
	}
}

func (l *Logger) Error(msg string) {
	if l.IsErrorEnabled() {
		l.doLog("ERROR", msg)
	}
}

type LogManager struct {
	loggersMutex    sync.Mutex
	loggers         map[string]*Logger
	currentLogLevel atomic.Value
	out             atomic.Pointer[log.Logger]
}

func newLogManager() *LogManager {
	res := LogManager{
		loggers: make(map[string]*Logger),
	}
	res.currentLogLevel.Store(LEVEL_INFO)
	res.out.Store(log.New(os.Stderr, "", log.LstdFlags))
	return &res
}

func (m *LogManager) output() *log.Logger {
	return m.out.Load()
}

var loggers = sync.OnceValue(func() *LogManager {
	return newLogManager()
})

func GetLogManager() *LogManager {
	return loggers()
}

func GetLogger(name string) *Logger {
	return GetLogManager().GetLogger(name)
}

func (m *LogManager) GetLogger(name string) *Logger {
	m.loggersMutex.Lock()
	defer m.loggersMutex.Unlock()

	existing, ok := m.loggers[name]
	if ok {
		return existing
	}
	existing = &Logger{name: name}
	m.loggers[name] = existing
	return existing
}
