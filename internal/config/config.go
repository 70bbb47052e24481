// Package config builds the immutable Config record the rest of the
// system runs from, replacing the upstream tool's module-level mutable
// globals patched in place by argument parsing.
package config

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/muexxl/rtkbase/internal/controller"
	"github.com/muexxl/rtkbase/internal/rtkerr"
)

// Default file paths and timing constants, matching the CLI surface.
const (
	DefaultPositionsFile      = "HP_Antenna_Cypress.csv"
	DefaultAssistanceFile     = "assistance_data.ubx"
	DefaultTimeDifferenceFile = "timedifference.txt"
	DefaultSurveyIn           = "180,2.0"
	DefaultTokenFile          = ".keys/ublox_token.txt"
	DefaultAntennasFile       = "Antennas.loc"
	DefaultTimeDiffLatency    = 93 * time.Millisecond
)

// Config is the fully-resolved, immutable configuration for one run of the
// controller. Build it once via New and pass it down; nothing downstream
// mutates it.
type Config struct {
	Mode          controller.Mode
	Survey        controller.SurveyParams
	FixedLocation controller.Location

	OutputPositions bool
	PositionsFile   string

	AssistEnabled   bool
	AssistanceFile  string
	AssistToken     string

	TimeDiffEnabled bool
	TimeDiffFile    string
	TimeDiffLatency time.Duration

	LogLevel string
	LogJSON  bool
}

// Flags is the raw, unvalidated CLI input New resolves into a Config. It
// mirrors the flag surface in §6 one-for-one.
type Flags struct {
	OutputPositions string // path, or "" if -o not given
	AssistanceFile  string // path, or "" if -a not given
	TimeDifference  string // path, or "" if -t not given
	SurveyIn        string // "MIN_DUR,ACC_M"
	Location        string // "lat,lon,height,acc" or an Antennas.loc name
	TokenFile       string
	AntennasFile    string
	LogLevel        string
	LogJSON         bool
}

// New validates and resolves Flags into a Config, reading the token file
// and antenna CSV as needed. Every returned error is tagged rtkerr.Config.
func New(f Flags) (Config, error) {
	cfg := Config{
		PositionsFile:   DefaultPositionsFile,
		TimeDiffFile:    DefaultTimeDifferenceFile,
		TimeDiffLatency: DefaultTimeDiffLatency,
		LogLevel:        "info",
		LogJSON:         f.LogJSON,
	}
	if f.LogLevel != "" {
		cfg.LogLevel = f.LogLevel
	}

	surveyIn := f.SurveyIn
	if surveyIn == "" {
		surveyIn = DefaultSurveyIn
	}
	survey, err := parseSurveyIn(surveyIn)
	if err != nil {
		return Config{}, err
	}
	cfg.Survey = survey
	cfg.Mode = controller.ModeSurveyIn

	// -o is resolved before -l so a fixed location, like the original's
	// main(), wins when both are given.
	if f.OutputPositions != "" {
		cfg.Mode = controller.ModeOutputPositions
		cfg.OutputPositions = true
		cfg.PositionsFile = f.OutputPositions
	}

	if f.Location != "" {
		loc, err := resolveLocation(f.Location, f.AntennasFile)
		if err != nil {
			return Config{}, err
		}
		cfg.Mode = controller.ModeFixed
		cfg.FixedLocation = loc
	}

	if f.AssistanceFile != "" {
		token, err := loadTokenFile(f.TokenFile)
		if err != nil {
			return Config{}, err
		}
		cfg.AssistEnabled = true
		cfg.AssistanceFile = f.AssistanceFile
		cfg.AssistToken = token
	}

	if f.TimeDifference != "" {
		cfg.TimeDiffEnabled = true
		cfg.TimeDiffFile = f.TimeDifference
	}

	return cfg, nil
}

// parseSurveyIn parses "MIN_DUR,ACC_M", e.g. "180,2.0".
func parseSurveyIn(s string) (controller.SurveyParams, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return controller.SurveyParams{}, rtkerr.Wrap(rtkerr.Config, fmt.Errorf("config: survey-in must be \"MIN_DUR,ACC_M\", got %q", s))
	}
	minDur, err := strconv.ParseUint(strings.TrimSpace(parts[0]), 10, 32)
	if err != nil {
		return controller.SurveyParams{}, rtkerr.Wrap(rtkerr.Config, fmt.Errorf("config: invalid survey-in duration %q: %w", parts[0], err))
	}
	accM, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return controller.SurveyParams{}, rtkerr.Wrap(rtkerr.Config, fmt.Errorf("config: invalid survey-in accuracy %q: %w", parts[1], err))
	}
	return controller.SurveyParams{MinDurS: uint32(minDur), AccM: accM}, nil
}

// resolveLocation parses "-l" either as four comma-separated floats or as
// a name looked up in the antenna CSV.
func resolveLocation(arg, antennasFile string) (controller.Location, error) {
	parts := strings.Split(arg, ",")
	if len(parts) == 4 {
		vals := make([]float64, 4)
		for i, p := range parts {
			v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
			if err != nil {
				return controller.Location{}, rtkerr.Wrap(rtkerr.Config, fmt.Errorf("config: invalid location component %q: %w", p, err))
			}
			vals[i] = v
		}
		return controller.Location{LatDeg: vals[0], LonDeg: vals[1], HeightM: vals[2], AccM: vals[3]}, nil
	}

	if antennasFile == "" {
		antennasFile = DefaultAntennasFile
	}
	return lookupAntenna(antennasFile, arg)
}

// lookupAntenna reads the "name,lat,lon,height_m,acc_m" CSV at path and
// returns the row matching name.
func lookupAntenna(path, name string) (controller.Location, error) {
	f, err := os.Open(path)
	if err != nil {
		return controller.Location{}, rtkerr.Wrap(rtkerr.Config, fmt.Errorf("config: opening antenna file %s: %w", path, err))
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	for {
		record, err := r.Read()
		if err != nil {
			break
		}
		if len(record) < 5 || record[0] != name {
			continue
		}
		lat, errLat := strconv.ParseFloat(strings.TrimSpace(record[1]), 64)
		lon, errLon := strconv.ParseFloat(strings.TrimSpace(record[2]), 64)
		height, errHeight := strconv.ParseFloat(strings.TrimSpace(record[3]), 64)
		acc, errAcc := strconv.ParseFloat(strings.TrimSpace(record[4]), 64)
		if errLat != nil || errLon != nil || errHeight != nil || errAcc != nil {
			return controller.Location{}, rtkerr.Wrap(rtkerr.Config, fmt.Errorf("config: malformed antenna row for %q in %s", name, path))
		}
		return controller.Location{LatDeg: lat, LonDeg: lon, HeightM: height, AccM: acc}, nil
	}
	return controller.Location{}, rtkerr.Wrap(rtkerr.Config, fmt.Errorf("config: unknown antenna location %q in %s", name, path))
}

// loadTokenFile reads a single-line vendor API token, trimmed of CR/LF. It
// defaults to ~/.keys/ublox_token.txt when path is empty.
func loadTokenFile(path string) (string, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", rtkerr.Wrap(rtkerr.Config, fmt.Errorf("config: resolving home directory: %w", err))
		}
		path = filepath.Join(home, DefaultTokenFile)
	}

	f, err := os.Open(path)
	if err != nil {
		return "", rtkerr.Wrap(rtkerr.Config, fmt.Errorf("config: opening token file %s: %w", path, err))
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	if !scanner.Scan() {
		return "", rtkerr.Wrap(rtkerr.Config, fmt.Errorf("config: token file %s is empty", path))
	}
	token := strings.TrimRight(scanner.Text(), "\r\n")
	if token == "" {
		return "", rtkerr.Wrap(rtkerr.Config, fmt.Errorf("config: token file %s contains no token", path))
	}
	return token, nil
}
