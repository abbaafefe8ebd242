// control/logger.go
// Author: momentics <momentics@gmail.com>

package control

import (
	"io"
	"strings"

	"github.com/gologme/log"
)

// LogLevels in increasing verbosity. Enabling one enables all before it.
var LogLevels = [...]string{"error", "warn", "info", "debug", "trace"}

// NewLogger builds a leveled logger writing to w.
func NewLogger(w io.Writer, level string) *log.Logger {
	l := log.New(w, "", log.LstdFlags)
	SetLogLevel(l, level)
	return l
}

// SetLogLevel enables every level up to and including level. Unknown names
// fall back to info.
func SetLogLevel(l *log.Logger, level string) {
	level = strings.ToLower(strings.TrimSpace(level))
	known := false
	for _, lv := range LogLevels {
		if lv == level {
			known = true
			break
		}
	}
	if !known {
		level = "info"
	}
	for _, lv := range LogLevels {
		l.EnableLevel(lv)
		if lv == level {
			break
		}
	}
	if !known {
		l.Warnln("Loglevel parse failed. Set default level(info)")
	}
}

// Discard returns a logger with every level disabled.
func Discard() *log.Logger {
	return log.New(io.Discard, "", 0)
}
