package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	charmLog "github.com/charmbracelet/log"
	"github.com/evanschultz/gantt/internal/config"
	"gopkg.in/natefinch/lumberjack.v2"
)

// devLogDir is the workspace-relative log dir used in dev mode when none is configured.
const devLogDir = ".gantt/log"

// runtimeLogger writes styled events to the console and logfmt events to a rotating file.
// The console goes quiet while the TUI owns the terminal.
type runtimeLogger struct {
	console *charmLog.Logger
	file    *charmLog.Logger
	rotator *lumberjack.Logger
	muted   bool
}

// newRuntimeLogger builds the console sink and, when enabled and logDir is set, the file sink.
func newRuntimeLogger(stderr io.Writer, appName string, cfg config.LoggingConfig, logDir string) (*runtimeLogger, error) {
	level, err := charmLog.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("parse logging level %q: %w", cfg.Level, err)
	}
	if stderr == nil {
		stderr = io.Discard
	}
	sink := func(w io.Writer, formatter charmLog.Formatter) *charmLog.Logger {
		return charmLog.NewWithOptions(w, charmLog.Options{
			Level:           level,
			Prefix:          appName,
			ReportTimestamp: true,
			TimeFormat:      time.RFC3339,
			Formatter:       formatter,
		})
	}

	logger := &runtimeLogger{console: sink(stderr, charmLog.TextFormatter)}
	if !cfg.File.Enabled || strings.TrimSpace(logDir) == "" {
		return logger, nil
	}
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return nil, fmt.Errorf("create log dir %s: %w", logDir, err)
	}
	logger.rotator = &lumberjack.Logger{
		Filename:   filepath.Join(logDir, sanitizeLogFileStem(appName)+".log"),
		MaxSize:    cfg.File.MaxSizeMB,
		MaxBackups: cfg.File.MaxBackups,
		MaxAge:     cfg.File.MaxAgeDays,
		Compress:   true,
	}
	logger.file = sink(logger.rotator, charmLog.LogfmtFormatter)
	return logger, nil
}

// LogPath returns the active log file, or "" without a file sink.
func (l *runtimeLogger) LogPath() string {
	if l == nil || l.rotator == nil {
		return ""
	}
	return l.rotator.Filename
}

// Close flushes and closes the log file.
func (l *runtimeLogger) Close() error {
	if l == nil || l.rotator == nil {
		return nil
	}
	return l.rotator.Close()
}

func (l *runtimeLogger) muteConsole() {
	if l != nil {
		l.muted = true
	}
}

func (l *runtimeLogger) log(level charmLog.Level, msg string, keyvals ...any) {
	if l == nil {
		return
	}
	if !l.muted {
		l.console.Log(level, msg, keyvals...)
	}
	if l.file != nil {
		l.file.Log(level, msg, keyvals...)
	}
}

// Debug, Info, Warn and Error log one event at their level.
func (l *runtimeLogger) Debug(msg string, keyvals ...any) { l.log(charmLog.DebugLevel, msg, keyvals...) }
func (l *runtimeLogger) Info(msg string, keyvals ...any) { l.log(charmLog.InfoLevel, msg, keyvals...) }
func (l *runtimeLogger) Warn(msg string, keyvals ...any) { l.log(charmLog.WarnLevel, msg, keyvals...) }
func (l *runtimeLogger) Error(msg string, keyvals ...any) { l.log(charmLog.ErrorLevel, msg, keyvals...) }

// resolveLogDir picks the file sink directory. Relative dirs are anchored at the
// workspace root in dev mode and at the data dir otherwise.
func resolveLogDir(configured, platformLogDir, dataDir string, devMode bool) (string, error) {
	dir := strings.TrimSpace(configured)
	switch {
	case dir == "" && !devMode:
		return platformLogDir, nil
	case dir == "":
		dir = devLogDir
	}
	switch {
	case filepath.IsAbs(dir):
		return filepath.Clean(dir), nil
	case !devMode:
		return filepath.Join(dataDir, dir), nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("resolve working dir: %w", err)
	}
	return filepath.Join(workspaceRoot(cwd), dir), nil
}

// workspaceRoot returns the nearest ancestor of start holding go.mod or .git, or start.
func workspaceRoot(start string) string {
	start = filepath.Clean(start)
	for dir := start; ; dir = filepath.Dir(dir) {
		for _, marker := range []string{"go.mod", ".git"} {
			if _, err := os.Stat(filepath.Join(dir, marker)); err == nil {
				return dir
			}
		}
		if filepath.Dir(dir) == dir {
			return start
		}
	}
}

// sanitizeLogFileStem maps an app name to a file name, replacing anything outside
// letters, digits, dot, underscore and dash.
func sanitizeLogFileStem(appName string) string {
	stem := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '_', r == '-':
			return r
		default:
			return '-'
		}
	}, strings.TrimSpace(appName))
	if stem = strings.Trim(stem, "-."); stem == "" {
		return "gantt"
	}
	return stem
}
