// Package process turns normalized records into the single published artifact of a dataset: a fresh
// timestamped table is produced in full, swapped into the canonical name, compressed, and only then is
// the uncompressed form discarded. A consumer can never observe a partially written canonical artifact.
package process

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/scylladb/go-set/strset"
	"github.com/spf13/afero"

	"github.com/itsmeakapa/secref/internal/file"
	"github.com/itsmeakapa/secref/internal/log"
	"github.com/itsmeakapa/secref/internal/tarutil"
	"github.com/itsmeakapa/secref/pkg/data"
)

const DefaultArchiveExtension = "tar.gz"

var validArchiveExtensions = strset.New("tar.gz", "tar.zst")

type PublishConfig struct {
	// DataDir is the dataset's data directory holding the canonical artifact and transient per-run files.
	DataDir string

	// Prefix names the dataset's artifacts: <prefix>_<timestamp>.csv while staged, <prefix>.csv.<ext> once published.
	Prefix string

	// Timestamp is the run's file stamp; staged table names embed it so runs never overwrite each other's intermediates.
	Timestamp string

	// ArchiveExtension selects the compression of the canonical artifact; defaults to tar.gz.
	ArchiveExtension string
}

func (c PublishConfig) stagedTablePath() string {
	return filepath.Join(c.DataDir, fmt.Sprintf("%s_%s.csv", c.Prefix, c.Timestamp))
}

func (c PublishConfig) canonicalTablePath() string {
	return filepath.Join(c.DataDir, c.Prefix+".csv")
}

func (c PublishConfig) canonicalArchivePath() string {
	return c.canonicalTablePath() + "." + c.extension()
}

func (c PublishConfig) stagedArchivePath() string {
	return c.stagedTablePath() + "." + c.extension()
}

func (c PublishConfig) extension() string {
	if c.ArchiveExtension == "" {
		return DefaultArchiveExtension
	}
	return c.ArchiveExtension
}

// Publish writes the table and performs the canonical swap, returning the path of the compressed
// canonical artifact. Any failure leaves the previous canonical artifact (if any) authoritative.
func Publish(cfg PublishConfig, schema data.Schema, records []data.Record) (string, error) {
	if !validArchiveExtensions.Has(cfg.extension()) {
		return "", fmt.Errorf("archive extension must be one of %s", validArchiveExtensions.List())
	}

	staged := cfg.stagedTablePath()
	if err := writeTable(staged, schema, records); err != nil {
		return "", err
	}

	log.WithFields("path", staged, "records", humanize.Comma(int64(len(records)))).Debug("staged table written")

	canonical := cfg.canonicalTablePath()
	if err := swap(staged, canonical); err != nil {
		return "", err
	}

	archive, err := compress(cfg, canonical)
	if err != nil {
		return "", err
	}

	// the uncompressed table is discarded only once the compressed artifact is verifiably in place
	if err := os.Remove(canonical); err != nil {
		return "", fmt.Errorf("unable to remove uncompressed table: %w", err)
	}

	return archive, nil
}

// writeTable produces the complete staged table: header first, then every record, all or nothing. The
// staged name is exclusive to this run; colliding with an existing file is an error, not an overwrite.
func writeTable(path string, schema data.Schema, records []data.Record) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("unable to create staged table: %w", err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(schema); err != nil {
		f.Close()
		return fmt.Errorf("unable to write table header: %w", err)
	}
	for _, record := range records {
		if err := w.Write(record); err != nil {
			f.Close()
			return fmt.Errorf("unable to write record: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return fmt.Errorf("unable to flush table: %w", err)
	}

	return f.Close()
}

func swap(staged, canonical string) error {
	if _, err := os.Stat(canonical); err == nil {
		if err := os.Remove(canonical); err != nil {
			return fmt.Errorf("unable to remove previous canonical table: %w", err)
		}
	}

	if err := os.Rename(staged, canonical); err != nil {
		return fmt.Errorf("unable to move staged table into canonical place: %w", err)
	}

	log.WithFields("path", canonical).Info("canonical table updated")

	return nil
}

// compress packages the canonical table into a staged archive and renames it over the canonical archive
// path, so a previous canonical archive is replaced in a single step.
func compress(cfg PublishConfig, canonical string) (string, error) {
	staged := cfg.stagedArchivePath()
	if err := tarutil.PopulateWithPaths(staged, canonical); err != nil {
		return "", fmt.Errorf("unable to compress canonical table: %w", err)
	}

	fs := afero.NewOsFs()

	info, err := os.Stat(staged)
	if err != nil {
		return "", fmt.Errorf("unable to verify archive: %w", err)
	}
	if info.Size() == 0 {
		return "", fmt.Errorf("archive %q is empty", staged)
	}

	digest, err := file.ContentDigest(fs, staged)
	if err != nil {
		return "", fmt.Errorf("unable to digest archive: %w", err)
	}

	target := cfg.canonicalArchivePath()
	if err := os.Rename(staged, target); err != nil {
		return "", fmt.Errorf("unable to move archive into canonical place: %w", err)
	}

	log.WithFields("path", target, "size", humanize.Bytes(uint64(info.Size())), "xxh64", digest).Info("canonical artifact published")

	return target, nil
}
