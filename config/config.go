// Package config loads the simulator configuration from a JSON file.
package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/Masterminds/semver/v3"

	"github.com/jins0704/OS-Simulator-VirtualMemory/mm"
)

// Version is the simulator version that config compatibility constraints
// are checked against.
const Version = "1.2.0"

var (
	// ErrIncompatible is returned by Load when the config's version
	// constraint does not admit this simulator build.
	ErrIncompatible = &mm.Error{Module: "config", Message: "config requires an incompatible simulator version"}
)

// Config is the on-disk configuration. Zero values fall back to the
// defaults applied by Load.
type Config struct {
	// Geometry of the simulated memory system.
	PagesPerTable int `json:"pages_per_table"`
	Frames        int `json:"frames"`

	// Logging setup. LogFile duplicates the log stream to a file when
	// set.
	LogLevel string `json:"log_level"`
	LogFile  string `json:"log_file"`

	// MonitorAddr enables the HTTP state monitor when set.
	MonitorAddr string `json:"monitor_addr"`

	// Snapshot is the path the end-of-run PNG is rendered to when set.
	Snapshot string `json:"snapshot"`

	// Requires is a semver constraint on the simulator version this
	// config was written for.
	Requires string `json:"requires"`
}

// Default returns the configuration used when no file is supplied.
func Default() Config {
	return Config{
		PagesPerTable: mm.DefaultPagesPerTable,
		Frames:        mm.DefaultFrames,
		LogLevel:      "INFO",
	}
}

// Load reads and validates a configuration file. Missing fields take
// their defaults; a malformed file, an invalid geometry or an
// unsatisfied version constraint fail loudly.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	if err = json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}

	if cfg.PagesPerTable == 0 {
		cfg.PagesPerTable = mm.DefaultPagesPerTable
	}
	if cfg.Frames == 0 {
		cfg.Frames = mm.DefaultFrames
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "INFO"
	}

	if err = cfg.Geometry().Validate(); err != nil {
		return Config{}, err
	}

	if err = cfg.checkVersion(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Geometry derives the simulation constants from the config.
func (c Config) Geometry() mm.Geometry {
	return mm.Geometry{PagesPerTable: c.PagesPerTable, Frames: c.Frames}
}

// Level parses the configured log level, defaulting to info on unknown
// values.
func (c Config) Level() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}

	return level
}

func (c Config) checkVersion() error {
	if c.Requires == "" {
		return nil
	}

	constraint, err := semver.NewConstraint(c.Requires)
	if err != nil {
		return fmt.Errorf("config: parse version constraint %q: %w", c.Requires, err)
	}

	if !constraint.Check(semver.MustParse(Version)) {
		return ErrIncompatible
	}

	return nil
}
