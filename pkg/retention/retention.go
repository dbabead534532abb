// Package retention prunes the per-run files a dataset accumulates: timestamped intermediate artifacts
// and run logs. Names embed a sortable timestamp, so lexical order is age order.
package retention

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/afero"

	"github.com/itsmeakapa/secref/internal/log"
)

// Policy bounds how many matching files survive a prune.
type Policy struct {
	// Glob selects candidate files within the directory (base names, not paths).
	Glob string

	// Keep is the number of newest matches to retain; zero removes every match.
	Keep int
}

// Prune removes all but the newest Keep files matching the policy under dir. Individual removal
// failures are collected and returned together; the survivors are unaffected by a partial failure.
func Prune(fs afero.Fs, dir string, policy Policy) error {
	matches, err := afero.Glob(fs, joinGlob(dir, policy.Glob))
	if err != nil {
		return fmt.Errorf("unable to enumerate %q candidates: %w", policy.Glob, err)
	}

	// newest first, embedded timestamps make lexical order chronological
	sort.Sort(sort.Reverse(sort.StringSlice(matches)))

	if len(matches) <= policy.Keep {
		return nil
	}

	var errs error
	removed := 0
	for _, path := range matches[policy.Keep:] {
		if err := fs.Remove(path); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("unable to remove %q: %w", path, err))
			continue
		}
		removed++
	}

	log.WithFields("glob", policy.Glob, "removed", removed, "kept", policy.Keep).Debug("pruned aged files")

	return errs
}

// PruneAll applies each policy in turn, collecting failures so one bad policy never shadows another.
func PruneAll(fs afero.Fs, dir string, policies ...Policy) error {
	var errs error
	for _, policy := range policies {
		if err := Prune(fs, dir, policy); err != nil {
			errs = multierror.Append(errs, err)
		}
	}
	return errs
}

func joinGlob(dir, glob string) string {
	if dir == "" {
		return glob
	}
	return filepath.Join(dir, glob)
}
