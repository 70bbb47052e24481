package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muexxl/rtkbase/internal/controller"
)

func TestNewDefaultsToSurveyInMode(t *testing.T) {
	cfg, err := New(Flags{})
	require.NoError(t, err)
	assert.Equal(t, controller.ModeSurveyIn, cfg.Mode)
	assert.Equal(t, uint32(180), cfg.Survey.MinDurS)
	assert.InDelta(t, 2.0, cfg.Survey.AccM, 1e-9)
}

func TestNewParsesExplicitLocationIntoFixedMode(t *testing.T) {
	cfg, err := New(Flags{Location: "49.6345,8.6314,148.6,1.0"})
	require.NoError(t, err)
	assert.Equal(t, controller.ModeFixed, cfg.Mode)
	assert.InDelta(t, 49.6345, cfg.FixedLocation.LatDeg, 1e-9)
	assert.InDelta(t, 8.6314, cfg.FixedLocation.LonDeg, 1e-9)
}

func TestNewResolvesNamedLocationFromAntennaCSV(t *testing.T) {
	dir := t.TempDir()
	antennas := filepath.Join(dir, "Antennas.loc")
	require.NoError(t, os.WriteFile(antennas, []byte("roof,49.1,8.2,100.0,1.5\n"), 0o644))

	cfg, err := New(Flags{Location: "roof", AntennasFile: antennas})
	require.NoError(t, err)
	assert.Equal(t, controller.ModeFixed, cfg.Mode)
	assert.InDelta(t, 49.1, cfg.FixedLocation.LatDeg, 1e-9)
}

func TestNewRejectsUnknownAntennaName(t *testing.T) {
	dir := t.TempDir()
	antennas := filepath.Join(dir, "Antennas.loc")
	require.NoError(t, os.WriteFile(antennas, []byte("roof,49.1,8.2,100.0,1.5\n"), 0o644))

	_, err := New(Flags{Location: "garden", AntennasFile: antennas})
	assert.Error(t, err)
}

func TestNewEntersOutputPositionsMode(t *testing.T) {
	cfg, err := New(Flags{OutputPositions: "out.csv"})
	require.NoError(t, err)
	assert.Equal(t, controller.ModeOutputPositions, cfg.Mode)
	assert.Equal(t, "out.csv", cfg.PositionsFile)
}

func TestNewLoadsTokenFileWhenAssistanceEnabled(t *testing.T) {
	dir := t.TempDir()
	tokenPath := filepath.Join(dir, "token.txt")
	require.NoError(t, os.WriteFile(tokenPath, []byte("abc123\r\n"), 0o644))

	cfg, err := New(Flags{AssistanceFile: "blob.bin", TokenFile: tokenPath})
	require.NoError(t, err)
	assert.True(t, cfg.AssistEnabled)
	assert.Equal(t, "abc123", cfg.AssistToken)
}

func TestNewRejectsMissingTokenFile(t *testing.T) {
	_, err := New(Flags{AssistanceFile: "blob.bin", TokenFile: "/nonexistent/token.txt"})
	assert.Error(t, err)
}

func TestNewRejectsMalformedSurveyIn(t *testing.T) {
	_, err := New(Flags{SurveyIn: "not-a-number"})
	assert.Error(t, err)
}
