// Package logger provides leveled logging for the map server. Entries go to
// syslog (or stderr), to a log file, and to a ring of recent lines that
// administrators can read back through the API.
package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/mapavioleta/mapavioleta/config"
	"github.com/op/go-logging"
)

const (
	moduleName   = "mapa"
	recentSize   = 2048
	recentLayout = "2006/01/02 15:04:05"
)

var (
	// logger writes to stderr until InitLogger installs the real backends.
	logger  = logging.MustGetLogger(moduleName)
	logFile *os.File

	recent = newRing(recentSize)
)

// InitLogger routes output to the console at level and to the log file at
// DEBUG.
func InitLogger(level logging.Level) {
	backends := make([]logging.Backend, 0, 2)
	if b := consoleBackend(); b != nil {
		backends = append(backends, leveled(b, level))
	}
	if b := fileBackend(); b != nil {
		backends = append(backends, leveled(b, logging.DEBUG))
	}

	l := logging.MustGetLogger(moduleName)
	l.SetBackend(logging.MultiLogger(backends...))
	logger = l
}

// ParseLevel maps a configured level to the go-logging level.
func ParseLevel(level config.LogLevel) (logging.Level, error) {
	switch level {
	case config.Debug:
		return logging.DEBUG, nil
	case config.Info:
		return logging.INFO, nil
	case config.Notice:
		return logging.NOTICE, nil
	case config.Warn:
		return logging.WARNING, nil
	case config.Error:
		return logging.ERROR, nil
	}
	return logging.INFO, fmt.Errorf("unknown log level: %s", level)
}

func leveled(b logging.Backend, level logging.Level) logging.LeveledBackend {
	lb := logging.AddModuleLevel(b)
	lb.SetLevel(level, moduleName)
	return lb
}

// consoleBackend prefers syslog and falls back to stderr, which is also
// used on Windows.
func consoleBackend() logging.Backend {
	if runtime.GOOS != "windows" {
		b, err := logging.NewSyslogBackend(config.GetName())
		if err == nil {
			return logging.NewBackendFormatter(b, formatter(false))
		}
		fmt.Fprintf(os.Stderr, "syslog backend disabled: %v\n", err)
	}
	b := logging.NewLogBackend(os.Stderr, "", 0)
	return logging.NewBackendFormatter(b, formatter(true))
}

// fileBackend appends to <log folder>/<name>.log.
func fileBackend() logging.Backend {
	dir := config.GetLogFolder()
	if err := os.MkdirAll(dir, 0o750); err != nil {
		fmt.Fprintf(os.Stderr, "failed to create log folder %s: %v\n", dir, err)
		return nil
	}
	path := filepath.Join(dir, config.GetName()+".log")
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o640)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open log file %s: %v\n", path, err)
		return nil
	}
	CloseLogger()
	logFile = file
	return logging.NewBackendFormatter(logging.NewLogBackend(file, "", 0), formatter(true))
}

func formatter(withTime bool) logging.Formatter {
	if withTime {
		return logging.MustStringFormatter(`%{time:` + recentLayout + `} %{level:.4s} %{message}`)
	}
	return logging.MustStringFormatter(`%{level:.4s} %{message}`)
}

// CloseLogger closes the log file.
func CloseLogger() {
	if logFile != nil {
		_ = logFile.Close()
		logFile = nil
	}
}

func emit(level logging.Level, msg string) {
	switch level {
	case logging.DEBUG:
		logger.Debug(msg)
	case logging.INFO:
		logger.Info(msg)
	case logging.NOTICE:
		logger.Notice(msg)
	case logging.WARNING:
		logger.Warning(msg)
	default:
		logger.Error(msg)
	}
	recent.add(level, msg)
}

func Debug(args ...any)                   { emit(logging.DEBUG, fmt.Sprint(args...)) }
func Debugf(format string, args ...any)   { emit(logging.DEBUG, fmt.Sprintf(format, args...)) }
func Info(args ...any)                    { emit(logging.INFO, fmt.Sprint(args...)) }
func Infof(format string, args ...any)    { emit(logging.INFO, fmt.Sprintf(format, args...)) }
func Notice(args ...any)                  { emit(logging.NOTICE, fmt.Sprint(args...)) }
func Noticef(format string, args ...any)  { emit(logging.NOTICE, fmt.Sprintf(format, args...)) }
func Warning(args ...any)                 { emit(logging.WARNING, fmt.Sprint(args...)) }
func Warningf(format string, args ...any) { emit(logging.WARNING, fmt.Sprintf(format, args...)) }
func Error(args ...any)                   { emit(logging.ERROR, fmt.Sprint(args...)) }
func Errorf(format string, args ...any)   { emit(logging.ERROR, fmt.Sprintf(format, args...)) }

// GetLogs returns up to c of the newest lines whose severity is at least
// level, newest first. An unknown level name is treated as DEBUG.
func GetLogs(c int, level string) []string {
	threshold, err := logging.LogLevel(level)
	if err != nil {
		threshold = logging.DEBUG
	}
	return recent.newest(c, threshold)
}

type line struct {
	at    time.Time
	level logging.Level
	msg   string
}

// ring keeps the last len(lines) entries, overwriting the oldest.
type ring struct {
	mu    sync.Mutex
	lines []line
	next  int
	full  bool
}

func newRing(size int) *ring {
	return &ring{lines: make([]line, size)}
}

func (r *ring) add(level logging.Level, msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines[r.next] = line{at: time.Now(), level: level, msg: msg}
	r.next = (r.next + 1) % len(r.lines)
	if r.next == 0 {
		r.full = true
	}
}

func (r *ring) newest(c int, threshold logging.Level) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := r.next
	if r.full {
		n = len(r.lines)
	}
	var out []string
	for i := 1; i <= n && len(out) < c; i++ {
		l := r.lines[(r.next-i+len(r.lines))%len(r.lines)]
		// go-logging orders levels from CRITICAL (0) to DEBUG (5).
		if l.level <= threshold {
			out = append(out, fmt.Sprintf("%s %s - %s", l.at.Format(recentLayout), l.level, l.msg))
		}
	}
	return out
}
