package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/itsmeakapa/secref/internal/log"
	"github.com/itsmeakapa/secref/pkg/data"
	"github.com/itsmeakapa/secref/pkg/process"
	"github.com/itsmeakapa/secref/pkg/process/processors"
	"github.com/itsmeakapa/secref/pkg/provider"
	"github.com/itsmeakapa/secref/pkg/provider/nvdapi"
	"github.com/itsmeakapa/secref/pkg/retention"
	"github.com/itsmeakapa/secref/pkg/run"
)

const (
	cpesPrefix = "cpes"

	// cpesScratchDir holds the fetched pages and the resume checkpoint. Its name is stable across runs so
	// an aborted fetch can resume; it is removed only after a successful publish.
	cpesScratchDir = "cpes_pages"

	cpesLogKeep = 3
)

type CPEsConfig struct {
	Common
	APIURL string
	APIKey string

	// PageSize and Politeness tune the pagination; zero values take the client defaults.
	PageSize   int
	Politeness time.Duration

	Retry provider.RetryPolicy

	// TestMode caps the fetch at a handful of pages for a reduced-scope dry run against the live API.
	TestMode bool
}

func DefaultCPEsConfig(common Common) CPEsConfig {
	return CPEsConfig{
		Common: common,
		APIURL: nvdapi.DefaultURL,
		Retry:  provider.DefaultRetryPolicy(),
	}
}

// CPEs refreshes the software identifier dictionary: probe the API for the total item count, fetch every
// page with checkpointed resume, flatten the pages into one table, and publish it. The page scratch
// directory survives a failed run so the next run resumes instead of starting over.
func CPEs(ctx context.Context, cfg CPEsConfig) error {
	return execute(ctx, DatasetCPEs, cfg.Common, func(ctx context.Context, r *run.Run, summary *run.Summary) error {
		scratch := filepath.Join(cfg.DataDir, cpesScratchDir)
		if err := os.MkdirAll(scratch, 0o755); err != nil {
			return fmt.Errorf("unable to create page directory: %w", err)
		}

		client := nvdapi.NewClient(clientConfig(cfg))

		plan, err := client.Probe(ctx)
		if err != nil {
			return err
		}

		if err := client.FetchPages(ctx, plan, scratch); err != nil {
			return err
		}

		processor := processors.NewCPEProcessor()
		var records []data.Record
		for _, path := range nvdapi.PagePaths(scratch, plan.Pages) {
			pageRecords, err := processPage(processor, path)
			if err != nil {
				return fmt.Errorf("unable to process %q: %w", path, err)
			}
			records = append(records, pageRecords...)
		}
		summary.Processed = len(records)
		summary.Errors = processor.InvalidNames()

		log.WithFields("entries", humanize.Comma(int64(len(records))), "invalidNames", processor.InvalidNames()).Info("flattened dictionary pages")

		if _, err := process.Publish(process.PublishConfig{
			DataDir:          cfg.DataDir,
			Prefix:           cpesPrefix,
			Timestamp:        r.Timestamp(),
			ArchiveExtension: cfg.ArchiveExtension,
		}, processors.CPESchema, records); err != nil {
			return err
		}

		// pages and checkpoint have served their purpose once the artifact is published
		if err := os.RemoveAll(scratch); err != nil {
			log.WithFields("path", scratch, "error", err).Warn("unable to remove page directory")
		}

		prune(cfg.DataDir, cfg.LogDir,
			retention.Policy{Glob: DatasetCPEs + "_download_*.log", Keep: cpesLogKeep},
			retention.Policy{Glob: cpesPrefix + "_*.csv", Keep: 0},
		)

		return nil
	})
}

func clientConfig(cfg CPEsConfig) nvdapi.Config {
	clientCfg := nvdapi.DefaultConfig()
	if cfg.APIURL != "" {
		clientCfg.URL = cfg.APIURL
	}
	clientCfg.APIKey = cfg.APIKey
	if cfg.PageSize > 0 {
		clientCfg.PageSize = cfg.PageSize
	}
	if cfg.Politeness > 0 {
		clientCfg.Politeness = cfg.Politeness
	}
	if cfg.Retry.MaxAttempts > 0 {
		clientCfg.Retry = cfg.Retry
	}
	if cfg.TestMode {
		clientCfg.MaxPages = nvdapi.TestModePages
	}
	return clientCfg
}

func processPage(processor data.Processor, path string) ([]data.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return processor.Process(f)
}
