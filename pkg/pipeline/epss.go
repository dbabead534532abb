package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/itsmeakapa/secref/internal/log"
	"github.com/itsmeakapa/secref/pkg/process"
	"github.com/itsmeakapa/secref/pkg/process/processors"
	"github.com/itsmeakapa/secref/pkg/provider/epss"
	"github.com/itsmeakapa/secref/pkg/retention"
	"github.com/itsmeakapa/secref/pkg/run"
)

const (
	epssPrefix  = "epss_scores"
	epssLogKeep = 3
)

type EPSSConfig struct {
	Common
	BaseURL string

	// Date selects the score file to fetch; the zero value means yesterday, the newest file guaranteed to
	// have been published.
	Date time.Time
}

func DefaultEPSSConfig(common Common) EPSSConfig {
	return EPSSConfig{
		Common:  common,
		BaseURL: epss.DefaultBaseURL,
	}
}

// EPSS refreshes the exploit-probability dataset: download the dated score archive, strip its metadata
// and header, and publish the score table. A date whose file was never published fails permanently
// without burning retries.
func EPSS(ctx context.Context, cfg EPSSConfig) error {
	return execute(ctx, DatasetEPSS, cfg.Common, func(ctx context.Context, r *run.Run, summary *run.Summary) error {
		date := cfg.Date
		if date.IsZero() {
			date = time.Now().AddDate(0, 0, -1)
		}

		clientCfg := epss.DefaultConfig(date)
		if cfg.BaseURL != "" {
			clientCfg.BaseURL = cfg.BaseURL
		}
		client := epss.NewClient(clientCfg)

		archivePath := filepath.Join(cfg.DataDir, client.FileName())
		if err := client.Fetch(ctx, archivePath); err != nil {
			return err
		}

		f, err := os.Open(archivePath)
		if err != nil {
			return fmt.Errorf("unable to open score archive: %w", err)
		}

		processor := processors.NewEPSSProcessor()
		records, err := processor.Process(f)
		f.Close()
		if err != nil {
			return err
		}
		summary.Processed = len(records)
		summary.Errors = processor.MalformedRows()

		log.WithFields("scores", humanize.Comma(int64(len(records))), "malformedRows", processor.MalformedRows()).Info("flattened score rows")

		if _, err := process.Publish(process.PublishConfig{
			DataDir:          cfg.DataDir,
			Prefix:           epssPrefix,
			Timestamp:        r.Timestamp(),
			ArchiveExtension: cfg.ArchiveExtension,
		}, processors.EPSSSchema, records); err != nil {
			return err
		}

		prune(cfg.DataDir, cfg.LogDir,
			retention.Policy{Glob: DatasetEPSS + "_download_*.log", Keep: epssLogKeep},
			retention.Policy{Glob: epssPrefix + "-*.csv.gz", Keep: 0},
			retention.Policy{Glob: epssPrefix + "_*.csv", Keep: 0},
		)

		return nil
	})
}
