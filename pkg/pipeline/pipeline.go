// Package pipeline wires the three dataset refreshes end to end: fetch from the source, normalize into
// records, publish the canonical artifact, and prune aged files. Each refresh is a run with its own log
// file; a failed run leaves the previous canonical artifact in place.
package pipeline

import (
	"context"

	"github.com/anchore/go-logger"
	"github.com/spf13/afero"

	"github.com/itsmeakapa/secref/internal/log"
	"github.com/itsmeakapa/secref/pkg/retention"
	"github.com/itsmeakapa/secref/pkg/run"
)

const (
	DatasetVulnrichment = "vulnrichment"
	DatasetCPEs         = "cpes"
	DatasetEPSS         = "epss"
)

// Common carries the settings shared by every dataset pipeline.
type Common struct {
	DataDir string
	LogDir  string

	// ArchiveExtension selects the compression of published artifacts (tar.gz or tar.zst).
	ArchiveExtension string

	LogLevel logger.Level
	Quiet    bool
}

// execute frames a dataset refresh as a run: start it, invoke the body, and record the outcome. The
// body's error is returned unchanged so callers can inspect it.
func execute(ctx context.Context, dataset string, cfg Common, body func(ctx context.Context, r *run.Run, summary *run.Summary) error) error {
	r, err := run.Start(run.Config{
		Dataset: dataset,
		DataDir: cfg.DataDir,
		LogDir:  cfg.LogDir,
		Level:   cfg.LogLevel,
		Quiet:   cfg.Quiet,
	})
	if err != nil {
		return err
	}

	var summary run.Summary
	err = body(ctx, r, &summary)
	r.Finish(summary, err)

	return err
}

// prune applies retention policies after a successful publish. Retention failures are reported but never
// fail a run that has already published its artifact.
func prune(dataDir, logDir string, logs retention.Policy, artifacts ...retention.Policy) {
	fs := afero.NewOsFs()
	if err := retention.PruneAll(fs, dataDir, artifacts...); err != nil {
		log.WithFields("error", err).Warn("artifact retention incomplete")
	}
	if err := retention.Prune(fs, logDir, logs); err != nil {
		log.WithFields("error", err).Warn("log retention incomplete")
	}
}
