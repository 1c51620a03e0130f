// Package logger provides structured logging for the game server.
// Session lifecycle decisions should be traceable through this.
package logger

import (
	"log"
	"os"
	"strings"
)

// Logger provides leveled logging with per-level prefixes.
type Logger struct {
	infoLogger  *log.Logger
	warnLogger  *log.Logger
	errorLogger *log.Logger
}

// NewLogger creates a new logger instance.
func NewLogger() *Logger {
	return &Logger{
		infoLogger:  log.New(os.Stdout, "[CB2-INFO] ", log.Ldate|log.Ltime|log.Lshortfile),
		warnLogger:  log.New(os.Stdout, "[CB2-WARN] ", log.Ldate|log.Ltime|log.Lshortfile),
		errorLogger: log.New(os.Stderr, "[CB2-ERROR] ", log.Ldate|log.Ltime|log.Lshortfile),
	}
}

// Info logs informational messages.
func (l *Logger) Info(msg string) {
	l.infoLogger.Println(msg)
}

// Warn logs warning messages.
func (l *Logger) Warn(msg string) {
	l.warnLogger.Println(msg)
}

// Error logs error messages.
func (l *Logger) Error(msg string) {
	l.errorLogger.Println(msg)
}

// Event logs one game event for auditing. Extra details are optional.
func (l *Logger) Event(eventType, gameID string, details ...string) {
	line := "[EVENT:" + eventType + "] Game:" + gameID
	if len(details) > 0 {
		line += " | " + strings.Join(details, " ")
	}
	l.infoLogger.Println(line)
}
