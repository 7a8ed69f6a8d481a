// Package logging provides file-based logging for issuetree.
// It outputs logs to a global log file (.issuetree/logs/issuetree.log)
// and, for lines keyed by an issue, to that issue's log file.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/runoshun/issuetree/internal/domain"
)

// Ensure Logger implements domain.Logger interface.
var _ domain.Logger = (*Logger)(nil)

// Logger wraps slog levels with file-based output.
// Fields are ordered to minimize memory padding.
type Logger struct {
	globalFile *os.File
	issueFiles map[string]*os.File
	now        func() time.Time
	dataDir    string
	mu         sync.Mutex
	level      slog.Level
}

// New creates a new Logger that writes below dataDir.
// If dataDir is empty, logging is disabled.
func New(dataDir string, level slog.Level) *Logger {
	return &Logger{
		dataDir:    dataDir,
		level:      level,
		issueFiles: make(map[string]*os.File),
		now:        time.Now,
	}
}

// ParseLevel parses a log level string into slog.Level.
func ParseLevel(levelStr string) slog.Level {
	switch levelStr {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func openAppend(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("create logs directory: %w", err)
	}
	// G302: Log files are append-only and need read access by workspace users
	return os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o640) //nolint:gosec // Log file readable by owner and group
}

// files returns the writers for one entry. Caller must hold l.mu.
func (l *Logger) files(issue string) []*os.File {
	var out []*os.File
	if l.globalFile == nil {
		if f, err := openAppend(domain.GlobalLogPath(l.dataDir)); err == nil {
			l.globalFile = f
		}
	}
	if l.globalFile != nil {
		out = append(out, l.globalFile)
	}

	link, err := domain.ParseIssueLink(issue)
	if err != nil {
		return out
	}
	f, ok := l.issueFiles[link.String()]
	if !ok {
		f, err = openAppend(domain.IssueLogPath(l.dataDir, link))
		if err != nil {
			return out
		}
		l.issueFiles[link.String()] = f
	}
	return append(out, f)
}

// Close closes all open log files.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	var lastErr error
	if l.globalFile != nil {
		if err := l.globalFile.Close(); err != nil {
			lastErr = err
		}
		l.globalFile = nil
	}
	for key, f := range l.issueFiles {
		if err := f.Close(); err != nil {
			lastErr = err
		}
		delete(l.issueFiles, key)
	}
	return lastErr
}

// formatLog formats a log entry.
// Format: [2025-12-30 09:32:51] [INFO] [owner/repo#1] [category] message
func formatLog(t time.Time, level slog.Level, issue, category, msg string) string {
	if issue == "" {
		issue = "global"
	}
	return fmt.Sprintf("[%s] [%s] [%s] [%s] %s\n",
		t.Format("2006-01-02 15:04:05"),
		levelToString(level),
		issue,
		category,
		msg,
	)
}

func levelToString(level slog.Level) string {
	switch level {
	case slog.LevelDebug:
		return "DEBUG"
	case slog.LevelInfo:
		return "INFO"
	case slog.LevelWarn:
		return "WARN"
	case slog.LevelError:
		return "ERROR"
	default:
		return "INFO"
	}
}

// log writes an entry to the global log and, when issue names a linked
// issue, to that issue's log as well.
func (l *Logger) log(level slog.Level, issue, category, msg string) {
	if l.dataDir == "" {
		return
	}
	if level < l.level {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	entry := formatLog(l.now(), level, issue, category, msg)
	for _, f := range l.files(issue) {
		_, _ = io.WriteString(f, entry)
	}
}

// Info logs an info message.
func (l *Logger) Info(issue, category, msg string) {
	l.log(slog.LevelInfo, issue, category, msg)
}

// Debug logs a debug message.
func (l *Logger) Debug(issue, category, msg string) {
	l.log(slog.LevelDebug, issue, category, msg)
}

// Warn logs a warning message.
func (l *Logger) Warn(issue, category, msg string) {
	l.log(slog.LevelWarn, issue, category, msg)
}

// Error logs an error message.
func (l *Logger) Error(issue, category, msg string) {
	l.log(slog.LevelError, issue, category, msg)
}
