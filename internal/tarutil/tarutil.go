package tarutil

import (
	"archive/tar"
	"fmt"
)

type Entry interface {
	writeEntry(writer lowLevelWriter) error
}

type Writer interface {
	WriteEntry(Entry) error
	Close() error
}

type lowLevelWriter interface {
	WriteHeader(hdr *tar.Header) error
	Write(b []byte) (int, error)
	Flush() error
}

// PopulateWithPaths creates an archive at the given path containing the given files. Each file is stored
// under its base name so consumers see a flat archive regardless of where the inputs live on disk.
func PopulateWithPaths(archivePath string, filePaths ...string) error {
	w, err := NewWriter(archivePath)
	if err != nil {
		return fmt.Errorf("unable to create archive writer: %w", err)
	}
	defer w.Close()

	for _, entry := range NewEntryFromFilePaths(filePaths...) {
		if err := w.WriteEntry(entry); err != nil {
			return fmt.Errorf("unable to write entry to archive: %w", err)
		}
	}

	return w.Close()
}
