package tarutil

import (
	"archive/tar"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/zstd"
)

var ErrUnsupportedArchiveSuffix = fmt.Errorf("archive name has an unsupported suffix")

var _ Writer = (*writer)(nil)

type writer struct {
	archive    *os.File
	compressor io.WriteCloser
	writer     *tar.Writer
}

// NewWriter creates a new tar writer that writes to the specified archive path. Supports .tar.gz and .tar.zst file extensions.
func NewWriter(archivePath string) (Writer, error) {
	archive, err := os.Create(archivePath)
	if err != nil {
		return nil, err
	}

	compressor, err := newCompressor(archivePath, archive)
	if err != nil {
		archive.Close()
		return nil, err
	}

	var tw *tar.Writer
	if compressor != nil {
		tw = tar.NewWriter(compressor)
	} else {
		tw = tar.NewWriter(archive)
	}

	return &writer{
		archive:    archive,
		compressor: compressor,
		writer:     tw,
	}, nil
}

// newCompressor returns the compression stream for the archive suffix, or nil for a plain tar.
func newCompressor(archivePath string, archive io.Writer) (io.WriteCloser, error) {
	switch {
	case strings.HasSuffix(archivePath, ".tar.gz"):
		return gzip.NewWriter(archive), nil
	case strings.HasSuffix(archivePath, ".tar.zst"):
		w, err := zstd.NewWriter(archive, zstd.WithEncoderLevel(zstd.SpeedBestCompression))
		if err != nil {
			return nil, fmt.Errorf("unable to get zst compression stream: %w", err)
		}
		return w, nil
	case strings.HasSuffix(archivePath, ".tar"):
		return nil, nil
	}
	return nil, ErrUnsupportedArchiveSuffix
}

func (w *writer) WriteEntry(entry Entry) error {
	return entry.writeEntry(w.writer)
}

func (w *writer) Close() error {
	if w.writer != nil {
		err := w.writer.Close()
		w.writer = nil
		if err != nil {
			return fmt.Errorf("unable to close tar writer: %w", err)
		}
	}

	if w.compressor != nil {
		err := w.compressor.Close()
		w.compressor = nil
		if err != nil {
			return fmt.Errorf("unable to close compression stream: %w", err)
		}
	}

	if w.archive != nil {
		err := w.archive.Close()
		w.archive = nil
		return err
	}

	return nil
}
