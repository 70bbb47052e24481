// Package positionlog appends high-precision position fixes to a
// plain-text log, one line per NAV-HPPOSLLH message.
package positionlog

import (
	"fmt"
	"os"
	"sync"
	"time"
)

// Logger appends "time, lat, lon, height" lines to a file, flushing after
// every write so a crash never loses more than the in-flight line.
type Logger struct {
	mu   sync.Mutex
	path string
	file *os.File
}

// Open opens (creating if necessary) the log file at path for appending.
func Open(path string) (*Logger, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("positionlog: open %s: %w", path, err)
	}
	return &Logger{path: path, file: f}, nil
}

// Append writes one fix: received is the host timestamp the NAV-HPPOSLLH
// frame was decoded at, lat/lon are in degrees, height in metres.
func (l *Logger) Append(received time.Time, lat, lon, height float64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	// time_received is written as Unix seconds with six decimal places
	// (microsecond resolution).
	line := fmt.Sprintf("%.6f, %.9f, %.9f, %.4f\n", unixSeconds(received), lat, lon, height)
	if _, err := l.file.WriteString(line); err != nil {
		return fmt.Errorf("positionlog: write: %w", err)
	}
	return l.file.Sync()
}

// Close closes the underlying file.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.file.Close()
}

func unixSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / 1e9
}
