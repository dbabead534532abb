// Package run gives each dataset refresh an identity: a unique ID, a file timestamp shared by every
// artifact the run produces, and a dedicated log file alongside console output.
package run

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/anchore/go-logger"
	"github.com/anchore/go-logger/adapter/logrus"
	"github.com/google/uuid"

	"github.com/itsmeakapa/secref/internal/log"
)

// timestampFormat orders artifact and log names chronologically when sorted lexically.
const timestampFormat = "2006-01-02_150405"

type Config struct {
	// Dataset names the refresh (vulnrichment, cpes, epss) and prefixes its log file.
	Dataset string

	// DataDir holds the dataset's published artifact and transient files.
	DataDir string

	// LogDir holds the per-run log files.
	LogDir string

	// Level controls verbosity of both console and file output.
	Level logger.Level

	// Quiet suppresses console output; the run log file is always written.
	Quiet bool
}

type Run struct {
	ID      uuid.UUID
	Dataset string
	Started time.Time
	DataDir string
	LogDir  string
	LogPath string
}

type Summary struct {
	// Processed counts source items successfully turned into records.
	Processed int

	// Errors counts items that failed without aborting the run.
	Errors int
}

// Start creates the run's directories, opens its log file, and installs a logger that writes to both
// console and file for the remainder of the run.
func Start(cfg Config) (*Run, error) {
	if cfg.Dataset == "" {
		return nil, fmt.Errorf("dataset name is required")
	}

	for _, dir := range []string{cfg.DataDir, cfg.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("unable to create %q: %w", dir, err)
		}
	}

	r := &Run{
		ID:      uuid.New(),
		Dataset: cfg.Dataset,
		Started: time.Now(),
		DataDir: cfg.DataDir,
		LogDir:  cfg.LogDir,
	}
	r.LogPath = filepath.Join(cfg.LogDir, fmt.Sprintf("%s_download_%s.log", cfg.Dataset, r.Timestamp()))

	// quiet silences the console only; the run log file is always written
	level := cfg.Level
	if level == "" || level == logger.DisabledLevel {
		level = logger.InfoLevel
	}

	l, err := logrus.New(logrus.Config{
		EnableConsole: !cfg.Quiet,
		FileLocation:  r.LogPath,
		Level:         level,
	})
	if err != nil {
		return nil, fmt.Errorf("unable to open run log: %w", err)
	}
	log.Set(l)

	log.WithFields("run", r.ID.String(), "dataset", r.Dataset, "log", r.LogPath).Info("run started")

	return r, nil
}

// Timestamp is the stamp embedded in every file name this run produces.
func (r *Run) Timestamp() string {
	return r.Started.Format(timestampFormat)
}

// Finish records the run's outcome. A non-nil err marks the run failed regardless of the summary.
func (r *Run) Finish(summary Summary, err error) {
	fields := log.WithFields(
		"run", r.ID.String(),
		"dataset", r.Dataset,
		"processed", summary.Processed,
		"errors", summary.Errors,
		"duration", time.Since(r.Started).Round(time.Millisecond).String(),
	)
	if err != nil {
		fields.Errorf("run failed: %v", err)
		return
	}
	fields.Info("run complete")
}
