// Package logging hands out leveled per-component loggers that share one
// level and output.
package logging

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/labstack/gommon/log"
	"github.com/pkg/errors"
)

const header = `${time_rfc3339} ${level} ${prefix}`

var (
	mu      sync.Mutex
	level   = log.INFO
	output  io.Writer = os.Stderr
	loggers = make(map[string]*log.Logger)
)

// For returns the logger for a component, creating it on first use.
func For(component string) *log.Logger {
	mu.Lock()
	defer mu.Unlock()

	if l, ok := loggers[component]; ok {
		return l
	}
	l := log.New(component)
	l.SetHeader(header)
	l.SetLevel(level)
	l.SetOutput(output)
	loggers[component] = l
	return l
}

// ParseLevel maps debug|info|warn|error|off to a gommon level.
func ParseLevel(s string) (log.Lvl, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return log.DEBUG, nil
	case "", "info":
		return log.INFO, nil
	case "warn", "warning":
		return log.WARN, nil
	case "error":
		return log.ERROR, nil
	case "off", "none", "quiet":
		return log.OFF, nil
	default:
		return log.INFO, errors.Errorf("unknown log level %q", s)
	}
}

// SetLevel applies a level name to every component logger.
func SetLevel(s string) error {
	lvl, err := ParseLevel(s)
	if err != nil {
		return err
	}
	mu.Lock()
	defer mu.Unlock()
	level = lvl
	for _, l := range loggers {
		l.SetLevel(lvl)
	}
	return nil
}

// SetOutput redirects every component logger.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
	for _, l := range loggers {
		l.SetOutput(w)
	}
}
