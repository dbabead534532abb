package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"

	"github.com/dustin/go-humanize"

	"github.com/itsmeakapa/secref/internal/log"
	"github.com/itsmeakapa/secref/pkg/data"
	"github.com/itsmeakapa/secref/pkg/process"
	"github.com/itsmeakapa/secref/pkg/process/processors"
	"github.com/itsmeakapa/secref/pkg/provider/git"
	"github.com/itsmeakapa/secref/pkg/retention"
	"github.com/itsmeakapa/secref/pkg/run"
)

const (
	DefaultVulnrichmentRepoURL = "https://github.com/cisagov/vulnrichment.git"
	DefaultVulnrichmentBranch  = "develop"

	vulnrichmentPrefix  = "cisa_vulnrichment"
	vulnrichmentRepoDir = "vulnrichment_repo"
	vulnrichmentLogKeep = 5
)

var yearDirPattern = regexp.MustCompile(`^\d{4}$`)

type VulnrichmentConfig struct {
	Common
	RepoURL string
	Branch  string

	// CloneDepth bounds the history fetched from the advisory repository; 0 means full history.
	CloneDepth int
}

func DefaultVulnrichmentConfig(common Common) VulnrichmentConfig {
	return VulnrichmentConfig{
		Common:     common,
		RepoURL:    DefaultVulnrichmentRepoURL,
		Branch:     DefaultVulnrichmentBranch,
		CloneDepth: 1,
	}
}

// Vulnrichment refreshes the vulnerability enrichment dataset: sync the upstream advisory repository,
// flatten every CVE document into one record, and publish the table. A document that cannot be parsed is
// counted and skipped; only the sync or the publish failing aborts the run.
func Vulnrichment(ctx context.Context, cfg VulnrichmentConfig) error {
	return execute(ctx, DatasetVulnrichment, cfg.Common, func(ctx context.Context, r *run.Run, summary *run.Summary) error {
		repoDir := filepath.Join(cfg.DataDir, vulnrichmentRepoDir)

		gitCfg := git.DefaultConfig(cfg.RepoURL, cfg.Branch, repoDir)
		gitCfg.Depth = cfg.CloneDepth

		if err := git.Sync(ctx, gitCfg); err != nil {
			return fmt.Errorf("unable to sync advisory repository: %w", err)
		}

		paths, err := collectCVEFiles(repoDir)
		if err != nil {
			return err
		}

		log.WithFields("documents", humanize.Comma(int64(len(paths)))).Info("flattening CVE documents")

		processor := processors.NewVulnrichmentProcessor()
		var records []data.Record
		for _, path := range paths {
			fileRecords, err := processDocument(processor, path)
			if err != nil {
				summary.Errors++
				log.WithFields("path", path, "error", err).Warn("skipping unreadable CVE document")
				continue
			}
			records = append(records, fileRecords...)
			summary.Processed++
		}

		if _, err := process.Publish(process.PublishConfig{
			DataDir:          cfg.DataDir,
			Prefix:           vulnrichmentPrefix,
			Timestamp:        r.Timestamp(),
			ArchiveExtension: cfg.ArchiveExtension,
		}, processors.VulnrichmentSchema, records); err != nil {
			return err
		}

		prune(cfg.DataDir, cfg.LogDir,
			retention.Policy{Glob: DatasetVulnrichment + "_download_*.log", Keep: vulnrichmentLogKeep},
			retention.Policy{Glob: vulnrichmentPrefix + "_*.csv", Keep: 0},
		)

		return nil
	})
}

func processDocument(processor data.Processor, path string) ([]data.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return processor.Process(f)
}

// collectCVEFiles walks the advisory repository layout (year directory, ID-range subdirectory, one JSON
// document per CVE) in sorted order, so the published table has a stable row order across runs.
func collectCVEFiles(repoDir string) ([]string, error) {
	top, err := os.ReadDir(repoDir)
	if err != nil {
		return nil, fmt.Errorf("unable to read advisory repository: %w", err)
	}

	var years []string
	for _, entry := range top {
		if entry.IsDir() && yearDirPattern.MatchString(entry.Name()) {
			years = append(years, entry.Name())
		}
	}
	sort.Strings(years)

	var paths []string
	for _, year := range years {
		yearDir := filepath.Join(repoDir, year)
		subdirs, err := os.ReadDir(yearDir)
		if err != nil {
			return nil, fmt.Errorf("unable to read %q: %w", yearDir, err)
		}

		var names []string
		for _, entry := range subdirs {
			if entry.IsDir() {
				names = append(names, entry.Name())
			}
		}
		sort.Strings(names)

		for _, name := range names {
			matches, err := filepath.Glob(filepath.Join(yearDir, name, "CVE-*.json"))
			if err != nil {
				return nil, err
			}
			sort.Strings(matches)
			paths = append(paths, matches...)
		}
	}

	return paths, nil
}
