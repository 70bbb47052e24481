package assistnow

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *logrus.Entry {
	return logrus.NewEntry(logrus.New())
}

func TestFetchOnceWritesStrippedBlob(t *testing.T) {
	iniTime := append([]byte{0xB5, 0x62, 0x13, 0x40, 0x18, 0x00}, make([]byte, 0x18+2)...)
	rest := []byte{0xB5, 0x62, 0x13, 0x02, 0xAA, 0xBB}
	body := append(append([]byte{}, iniTime...), rest...)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write(body)
	}))
	defer server.Close()

	blobPath := filepath.Join(t.TempDir(), "assist.bin")
	f := New("tok", blobPath, testLogger())
	f.baseURL = server.URL

	f.fetchOnce(context.Background())

	got, err := os.ReadFile(blobPath)
	require.NoError(t, err)
	assert.Equal(t, rest, got)
}

func TestFetchOnceKeepsPreviousBlobOnMalformedResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte{0xDE, 0xAD, 0xBE, 0xEF})
	}))
	defer server.Close()

	blobPath := filepath.Join(t.TempDir(), "assist.bin")
	require.NoError(t, os.WriteFile(blobPath, []byte("previous"), 0o644))

	f := New("tok", blobPath, testLogger())
	f.baseURL = server.URL

	f.fetchOnce(context.Background())

	got, err := os.ReadFile(blobPath)
	require.NoError(t, err)
	assert.Equal(t, []byte("previous"), got)
}

func TestFetchOnceKeepsPreviousBlobOnServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	blobPath := filepath.Join(t.TempDir(), "assist.bin")
	require.NoError(t, os.WriteFile(blobPath, []byte("previous"), 0o644))

	f := New("tok", blobPath, testLogger())
	f.baseURL = server.URL

	f.fetchOnce(context.Background())

	got, err := os.ReadFile(blobPath)
	require.NoError(t, err)
	assert.Equal(t, []byte("previous"), got)
}

func TestWriteBlobIsAtomic(t *testing.T) {
	dir := t.TempDir()
	blobPath := filepath.Join(dir, "assist.bin")
	f := New("tok", blobPath, testLogger())

	require.NoError(t, f.writeBlob([]byte{1, 2, 3}))
	require.NoError(t, f.writeBlob([]byte{4, 5}))

	got, err := os.ReadFile(blobPath)
	require.NoError(t, err)
	assert.Equal(t, []byte{4, 5}, got)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no leftover temp files")
}

func TestBuildURLIncludesLocationOnlyAfterAFix(t *testing.T) {
	f := New("tok", filepath.Join(t.TempDir(), "assist.bin"), testLogger())

	bare := f.buildURL()
	assert.Contains(t, bare, "token=tok")
	assert.Contains(t, bare, "gnss=gps")
	assert.NotContains(t, bare, "lat=")

	f.UpdateLocation(49.6345, 8.6314, 148.6, 1.0)
	withFix := f.buildURL()
	assert.Contains(t, withFix, "lat=49.634500")
	assert.Contains(t, withFix, "lon=8.631400")
	assert.Contains(t, withFix, "filteronpos")
}

func TestWaitReturnsFalseOnCancellation(t *testing.T) {
	f := New("tok", filepath.Join(t.TempDir(), "assist.bin"), testLogger())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.False(t, f.wait(ctx, time.Hour))
}
