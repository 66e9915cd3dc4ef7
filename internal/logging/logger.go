// Package logging provides structured logging for the RCA investigation
// service.
//
// Initialize the logger once at startup:
//
//	logging.Initialize("info")
//
// Get a named logger per component and attach request-scoped fields with
// the immutable WithField/WithFields/WithContext builder chain:
//
//	logger := logging.GetLogger("rcacore.orchestrator")
//	invLogger := logger.WithField("investigation_id", id)
//	invLogger.Info("routed incident to intent=%s domain=%s", intent, domain)
//
// Per-package log levels can be set independently of the global default,
// with exact-match and "pkg.*" wildcard patterns:
//
//	logging.Initialize("info", map[string]string{
//	    "rcacore.subinvestigator": "debug",
//	})
//
// Logger values are safe for concurrent use; WithField and friends return a
// new Logger rather than mutating the receiver.
package logging

import (
	"context"
	"os"
	"strings"
	"sync"
)

var (
	globalLogger *Logger
	initOnce     sync.Once
	exitFunc     = os.Exit
)

// Logger is a named, leveled, field-carrying log sink.
type Logger struct {
	level  LogLevel
	name   string
	fields map[string]interface{}
	ctx    context.Context
}

// Initialize sets up the global logger with a default level and optional
// per-package overrides.
func Initialize(levelStr string, packageLevels ...map[string]string) error {
	var level LogLevel
	switch strings.ToUpper(levelStr) {
	case "DEBUG":
		level = DEBUG
	case "INFO":
		level = INFO
	case "WARN":
		level = WARN
	case strError:
		level = ERROR
	case "FATAL":
		level = FATAL
	default:
		level = INFO
	}

	globalLogger = &Logger{level: level, name: "rca"}

	if len(packageLevels) > 0 && packageLevels[0] != nil {
		if err := SetPackageLogLevels(packageLevels[0]); err != nil {
			return err
		}
	}
	return nil
}

// GetLogger returns a new logger with the given component name, lazily
// initializing the global default (INFO) on first use.
func GetLogger(name string) *Logger {
	initOnce.Do(func() {
		if globalLogger == nil {
			_ = Initialize("info")
		}
	})
	return &Logger{
		level:  globalLogger.level,
		name:   name,
		fields: make(map[string]interface{}),
	}
}

func (l *Logger) shouldLog(level LogLevel) bool {
	if pkgLevel := GetPackageLogLevel(l.name); pkgLevel >= 0 {
		return level >= pkgLevel
	}
	return level >= l.level
}

func (l *Logger) Debug(msg string, args ...interface{}) {
	if l.shouldLog(DEBUG) {
		l.logf("DEBUG", msg, args...)
	}
}

func (l *Logger) Info(msg string, args ...interface{}) {
	if l.shouldLog(INFO) {
		l.logf("INFO", msg, args...)
	}
}

func (l *Logger) Warn(msg string, args ...interface{}) {
	if l.shouldLog(WARN) {
		l.logf("WARN", msg, args...)
	}
}

func (l *Logger) Error(msg string, args ...interface{}) {
	if l.shouldLog(ERROR) {
		l.logf(strError, msg, args...)
	}
}

func (l *Logger) Fatal(msg string, args ...interface{}) {
	if l.shouldLog(FATAL) {
		l.logf("FATAL", msg, args...)
		exitFunc(1)
	}
}

// ErrorWithErr logs an error message with an underlying error appended.
func (l *Logger) ErrorWithErr(msg string, err error, args ...interface{}) {
	if l.shouldLog(ERROR) {
		args = append(args, err)
		l.logf("ERROR", msg+" - %v", args...)
	}
}

// WithName returns a new logger with a different component name.
func (l *Logger) WithName(name string) *Logger {
	return &Logger{level: l.level, name: name, fields: cloneFields(l.fields), ctx: l.ctx}
}

// WithField returns a new logger with one additional persistent field.
func (l *Logger) WithField(key string, value interface{}) *Logger {
	nl := &Logger{level: l.level, name: l.name, fields: cloneFields(l.fields), ctx: l.ctx}
	nl.fields[key] = value
	return nl
}

// WithFields returns a new logger with several additional persistent fields.
func (l *Logger) WithFields(fields ...LogField) *Logger {
	nl := &Logger{level: l.level, name: l.name, fields: cloneFields(l.fields), ctx: l.ctx}
	for _, f := range fields {
		nl.fields[f.Key] = f.Value
	}
	return nl
}

// WithContext returns a new logger that extracts investigation/agent id
// fields from ctx on every log call.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	return &Logger{level: l.level, name: l.name, fields: cloneFields(l.fields), ctx: ctx}
}

func (l *Logger) DebugWithFields(msg string, fields ...LogField) {
	if l.shouldLog(DEBUG) {
		l.logWithFields("DEBUG", msg, fields...)
	}
}

func (l *Logger) InfoWithFields(msg string, fields ...LogField) {
	if l.shouldLog(INFO) {
		l.logWithFields("INFO", msg, fields...)
	}
}

func (l *Logger) WarnWithFields(msg string, fields ...LogField) {
	if l.shouldLog(WARN) {
		l.logWithFields("WARN", msg, fields...)
	}
}

func (l *Logger) ErrorWithFields(msg string, fields ...LogField) {
	if l.shouldLog(ERROR) {
		l.logWithFields(strError, msg, fields...)
	}
}

func (l *Logger) logWithFields(level, msg string, fields ...LogField) {
	contextFields := extractContextFields(l.ctx)

	var merged map[string]interface{}
	if contextFields != nil || len(l.fields) > 0 || len(fields) > 0 {
		merged = make(map[string]interface{})
		for k, v := range contextFields {
			merged[k] = v
		}
		for k, v := range l.fields {
			merged[k] = v
		}
		for _, f := range fields {
			merged[f.Key] = f.Value
		}
	}

	l.writeLog(level, msg, merged)
}

func cloneFields(fields map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		out[k] = v
	}
	return out
}
