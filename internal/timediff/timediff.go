// Package timediff estimates the offset between GNSS UTC time and the host
// clock from a rolling window of NAV-PVT samples.
package timediff

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// RingSize is the maximum number of samples averaged, per spec.md §4.G.
const RingSize = 20

// Writer persists the current mean offset, in seconds.
type Writer interface {
	Write(meanSeconds float64) error
}

// Estimator maintains the rolling ring of (GNSS time − host time + latency)
// samples and writes their mean to a Writer on every update.
type Estimator struct {
	mu      sync.Mutex
	samples []float64
	writer  Writer
}

// NewEstimator returns an Estimator that persists through w on every
// Update.
func NewEstimator(w Writer) *Estimator {
	return &Estimator{writer: w}
}

// Update adds one sample — GNSS time minus host time, both in Unix
// seconds, plus a fixed latency correction — and writes the new mean of
// the last RingSize samples.
func (e *Estimator) Update(tGNSS, tHost, latencySeconds float64) error {
	sample := (tGNSS - tHost) + latencySeconds

	e.mu.Lock()
	e.samples = append(e.samples, sample)
	if len(e.samples) > RingSize {
		e.samples = e.samples[len(e.samples)-RingSize:]
	}
	mean := average(e.samples)
	e.mu.Unlock()

	return e.writer.Write(mean)
}

func average(samples []float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		sum += s
	}
	return sum / float64(len(samples))
}

// FileWriter overwrites a file with the mean offset formatted to six
// decimal places, atomically (write to a temp file in the same directory,
// then rename), so a reader never observes a half-written value.
type FileWriter struct {
	Path string
}

// Write implements Writer.
func (w FileWriter) Write(meanSeconds float64) error {
	dir := filepath.Dir(w.Path)
	tmp, err := os.CreateTemp(dir, ".timediff-*.tmp")
	if err != nil {
		return fmt.Errorf("timediff: create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := fmt.Fprintf(tmp, "%.6f\n", meanSeconds); err != nil {
		tmp.Close()
		return fmt.Errorf("timediff: write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("timediff: close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), w.Path); err != nil {
		return fmt.Errorf("timediff: rename temp file: %w", err)
	}
	return nil
}
