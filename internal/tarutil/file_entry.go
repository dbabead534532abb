package tarutil

import (
	"archive/tar"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

var _ Entry = (*FileEntry)(nil)

type FileEntry struct {
	Path string

	// Name is the name the file is stored under within the archive; defaults to the base name of Path.
	Name string
}

func NewEntryFromFilePath(path string) Entry {
	return FileEntry{
		Path: path,
		Name: filepath.Base(path),
	}
}

func NewEntryFromFilePaths(paths ...string) []Entry {
	var entries []Entry
	for _, path := range paths {
		entries = append(entries, NewEntryFromFilePath(path))
	}
	return entries
}

func (t FileEntry) writeEntry(tw lowLevelWriter) error {
	f, err := os.Open(t.Path)
	if err != nil {
		return fmt.Errorf("unable to open file (%s): %w", t.Path, err)
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return fmt.Errorf("unable to get stat for file (%s): %w", t.Path, err)
	}

	name := t.Name
	if name == "" {
		name = filepath.Base(t.Path)
	}

	header := &tar.Header{
		Name:    name,
		Size:    stat.Size(),
		Mode:    int64(stat.Mode()),
		ModTime: stat.ModTime(),
	}

	if err := tw.WriteHeader(header); err != nil {
		return fmt.Errorf("unable to write header for file (%s): %w", t.Path, err)
	}

	if _, err := io.Copy(tw, f); err != nil {
		return fmt.Errorf("unable to copy data to the tar (file='%s'): %w", t.Path, err)
	}

	return tw.Flush()
}
