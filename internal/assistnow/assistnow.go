// Package assistnow implements the background AssistNow ephemeris fetcher:
// a periodic HTTP download that keeps a blob file on disk fresh enough to
// shorten the receiver's time-to-first-fix, fed by position hints from the
// controller.
package assistnow

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/muexxl/rtkbase/internal/rtkerr"
	"github.com/muexxl/rtkbase/internal/ubx"
)

// Interval is the fetch cadence.
const Interval = 10 * time.Minute

// pollGranularity is how often the wait loop checks for cancellation,
// matching the upstream fetcher's second-by-second keep_running check.
const pollGranularity = 1 * time.Second

const baseURL = "http://online-live1.services.u-blox.com/GetOnlineData.ashx"

// Clock abstracts time so tests can run the fetch loop without waiting out
// a real 10-minute period.
type Clock interface {
	Now() time.Time
	Sleep(ctx context.Context, d time.Duration)
}

// RealClock is the production Clock.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

func (RealClock) Sleep(ctx context.Context, d time.Duration) {
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}

// Fetcher is the AssistNow background task. Construct with New, call
// UpdateLocation as fixes arrive, and Run it in its own goroutine; cancel
// its context to stop.
type Fetcher struct {
	token    string
	blobPath string
	baseURL  string
	client   *http.Client
	clock    Clock
	log      *logrus.Entry

	mu       sync.Mutex
	hasFix   bool
	lat, lon float64
	altM     float64
	accM     float64
}

// New builds a Fetcher that writes to blobPath using the given vendor
// token.
func New(token, blobPath string, log *logrus.Entry) *Fetcher {
	return &Fetcher{
		token:    token,
		blobPath: blobPath,
		baseURL:  baseURL,
		client:   &http.Client{Timeout: 30 * time.Second},
		clock:    RealClock{},
		log:      log,
	}
}

// UpdateLocation records the controller's latest good fix as a location
// hint for the next fetch. Implements the AssistNow collaborator contract
// the controller depends on.
func (f *Fetcher) UpdateLocation(latDeg, lonDeg, altM, accM float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hasFix = true
	f.lat, f.lon, f.altM, f.accM = latDeg, lonDeg, altM, accM
}

// Run fetches immediately, then every Interval, until ctx is cancelled.
func (f *Fetcher) Run(ctx context.Context) {
	f.fetchOnce(ctx)
	for {
		if !f.wait(ctx, Interval) {
			return
		}
		f.fetchOnce(ctx)
	}
}

// wait blocks for d in pollGranularity increments so cancellation is
// observed promptly; it reports false if ctx was cancelled first.
func (f *Fetcher) wait(ctx context.Context, d time.Duration) bool {
	deadline := f.clock.Now().Add(d)
	for f.clock.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			return false
		default:
		}
		f.clock.Sleep(ctx, pollGranularity)
	}
	select {
	case <-ctx.Done():
		return false
	default:
		return true
	}
}

func (f *Fetcher) fetchOnce(ctx context.Context) {
	reqID := uuid.NewString()
	log := f.log.WithField("request_id", reqID)

	u := f.buildURL()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		log.WithError(err).Warn("assistnow: building request failed")
		return
	}

	resp, err := f.client.Do(req)
	if err != nil {
		log.WithError(rtkerr.Wrap(rtkerr.RemoteIO, err)).Warn("assistnow: fetch failed, keeping last blob")
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.WithError(rtkerr.Wrap(rtkerr.RemoteIO, fmt.Errorf("assistnow: unexpected status %d", resp.StatusCode))).Warn("assistnow: fetch failed, keeping last blob")
		return
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		log.WithError(rtkerr.Wrap(rtkerr.RemoteIO, err)).Warn("assistnow: reading response failed, keeping last blob")
		return
	}

	stripped, ok := ubx.StripMGAIniTime(body)
	if !ok {
		log.Warn("assistnow: blob rejected after MGA-INI-TIME strip, keeping last blob")
		return
	}

	if err := f.writeBlob(stripped); err != nil {
		log.WithError(err).Warn("assistnow: writing blob failed, keeping last blob")
		return
	}
	log.WithField("bytes", len(stripped)).Debug("assistnow: wrote blob")
}

// buildURL follows the vendor service's semicolon-delimited query
// convention rather than the usual "&"-joined form.
func (f *Fetcher) buildURL() string {
	params := []string{
		"token=" + url.QueryEscape(f.token),
		"gnss=gps",
		"datatype=eph",
	}

	f.mu.Lock()
	hasFix, lat, lon, altM, accM := f.hasFix, f.lat, f.lon, f.altM, f.accM
	f.mu.Unlock()

	if hasFix {
		params = append(params,
			fmt.Sprintf("lat=%.6f", lat),
			fmt.Sprintf("lon=%.6f", lon),
			fmt.Sprintf("alt=%.6f", altM),
			fmt.Sprintf("pacc=%.6f", accM),
			"filteronpos",
		)
	}

	query := params[0]
	for _, p := range params[1:] {
		query += ";" + p
	}
	return f.baseURL + "?" + query
}

// writeBlob overwrites the blob file atomically: write to a temp file in
// the same directory, then rename.
func (f *Fetcher) writeBlob(data []byte) error {
	dir := filepath.Dir(f.blobPath)
	tmp, err := os.CreateTemp(dir, ".assistnow-*.tmp")
	if err != nil {
		return fmt.Errorf("assistnow: create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("assistnow: write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("assistnow: close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.blobPath); err != nil {
		return fmt.Errorf("assistnow: rename temp file: %w", err)
	}
	return nil
}
