package nvdapi

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/itsmeakapa/secref/internal/log"
)

const checkpointFileName = "checkpoint.txt"

// Checkpoint durably records the index of the next page to fetch. It is advanced only after a page's raw
// payload has been written to its per-page file, so an interrupted run can resume without refetching
// completed pages. A missing or unreadable checkpoint degrades to "start from the beginning", never to a
// failed run.
type Checkpoint struct {
	path string
}

func NewCheckpoint(dir string) Checkpoint {
	return Checkpoint{
		path: filepath.Join(dir, checkpointFileName),
	}
}

// Load returns the next page index to fetch, defaulting to 0 when the checkpoint is absent or corrupt.
func (c Checkpoint) Load() int {
	by, err := os.ReadFile(c.path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.WithFields("path", c.path, "error", err).Warn("unable to read checkpoint, starting from the first page")
		}
		return 0
	}

	next, err := strconv.Atoi(strings.TrimSpace(string(by)))
	if err != nil || next < 0 {
		log.WithFields("path", c.path, "contents", strings.TrimSpace(string(by))).Warn("malformed checkpoint, starting from the first page")
		return 0
	}

	return next
}

// Save records that all pages before the given index have durable payloads.
func (c Checkpoint) Save(next int) error {
	if err := os.WriteFile(c.path, []byte(strconv.Itoa(next)), 0o644); err != nil {
		return fmt.Errorf("unable to write checkpoint: %w", err)
	}
	return nil
}
